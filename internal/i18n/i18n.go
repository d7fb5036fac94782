package i18n

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

const defaultLang = "en"

// Translations holds all translation strings organized by section
type Translations struct {
	Bot    BotTranslations    `yaml:"bot"`
	Status StatusTranslations `yaml:"status"`
	Errors ErrorTranslations  `yaml:"errors"`
}

// BotTranslations holds the static bot reply texts
type BotTranslations struct {
	Welcome       string `yaml:"welcome"`
	Help          string `yaml:"help"`
	SendLink      string `yaml:"send_link"`
	VideoCaption  string `yaml:"video_caption"`
	PhotosCaption string `yaml:"photos_caption"`
}

// StatusTranslations holds the progress texts shown while a link is processed
type StatusTranslations struct {
	Processing  string `yaml:"processing"`
	Resolving   string `yaml:"resolving"`
	Downloading string `yaml:"downloading"`
	Uploading   string `yaml:"uploading"`
	Done        string `yaml:"done"`
}

// ErrorTranslations holds the user-visible failure texts
type ErrorTranslations struct {
	InvalidURL     string `yaml:"invalid_url"`
	APIFailure     string `yaml:"api_failure"`
	TooLarge       string `yaml:"too_large"`
	NetworkError   string `yaml:"network_error"`
	UploadFailed   string `yaml:"upload_failed"`
	SomethingWrong string `yaml:"something_wrong"`
}

var (
	translationsCache = map[string]*Translations{}
	cacheMutex        sync.RWMutex
)

// Languages lists the supported language codes
var Languages = []string{"en", "zh"}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) *Translations {
	cacheMutex.RLock()
	if t, ok := translationsCache[lang]; ok {
		cacheMutex.RUnlock()
		return t
	}
	cacheMutex.RUnlock()

	// Load from file
	t, err := loadTranslations(lang)
	if err != nil {
		// Fall back to English
		if lang != defaultLang {
			return GetTranslations(defaultLang)
		}
		// Return empty translations if even English fails
		return &Translations{}
	}

	cacheMutex.Lock()
	translationsCache[lang] = t
	cacheMutex.Unlock()

	return t
}

func loadTranslations(lang string) (*Translations, error) {
	filename := fmt.Sprintf("locales/%s.yml", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var t Translations
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// T is a convenience function for getting translations
func T(lang string) *Translations {
	return GetTranslations(lang)
}
