package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

// MediaType represents the type of media being downloaded
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// Media is the interface for all extracted media types
type Media interface {
	GetID() string
	GetTitle() string
	GetUploader() string
	Type() MediaType
}

// Extractor defines the interface for media extractors
type Extractor interface {
	// Name returns the extractor name (e.g., "tiktok")
	Name() string

	// Match returns true if this extractor can handle the URL
	// The URL is pre-parsed so extractors can reliably check the host/domain
	Match(u *url.URL) bool

	// Extract retrieves media information from the URL
	Extract(url string) (Media, error)
}

// VideoMedia represents video content with multiple format options
type VideoMedia struct {
	ID       string
	Title    string
	Uploader string
	Duration int // seconds
	Source   string
	Formats  []VideoFormat
}

func (v *VideoMedia) GetID() string       { return v.ID }
func (v *VideoMedia) GetTitle() string    { return v.Title }
func (v *VideoMedia) GetUploader() string { return v.Uploader }
func (v *VideoMedia) Type() MediaType     { return MediaTypeVideo }

// VideoFormat represents a single video quality option.
// Formats are ordered best-first; callers download Formats[0].
type VideoFormat struct {
	URL     string
	Quality string // "HD", "720p", etc.
	Ext     string // "mp4"
}

// QualityLabel returns a human-readable quality label
func (f *VideoFormat) QualityLabel() string {
	if f.Quality != "" {
		return f.Quality
	}
	return "unknown"
}

// ImageMedia represents an ordered set of images from a single post
type ImageMedia struct {
	ID       string
	Title    string
	Uploader string
	Source   string
	Images   []Image
}

func (i *ImageMedia) GetID() string       { return i.ID }
func (i *ImageMedia) GetTitle() string    { return i.Title }
func (i *ImageMedia) GetUploader() string { return i.Uploader }
func (i *ImageMedia) Type() MediaType     { return MediaTypeImage }

// Image represents a single image to download
type Image struct {
	URL string
	Ext string // "jpg", "png", "webp"
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	// Remove URLs (http:// or https://) before the replacer mangles the scheme
	name = urlInNameRegex.ReplaceAllString(name, "")

	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(name)

	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")

	// Collapse multiple spaces
	result = spaceRegex.ReplaceAllString(result, " ")

	// Most filesystems limit filenames to 255 bytes. For UTF-8 with CJK
	// characters (3-4 bytes each), 60 runes is safe, leaving room for the
	// extension.
	const maxRunes = 60
	runes := []rune(result)
	if len(runes) > maxRunes {
		result = string(runes[:maxRunes])
	}

	return strings.TrimSpace(result)
}

var (
	urlInNameRegex = regexp.MustCompile(`https?://[^\s]+`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

func truncateText(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
