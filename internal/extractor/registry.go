package extractor

import (
	"net/url"
	"strings"
	"sync"
)

var (
	// registryMu guards the host map: Register runs at startup, Match and
	// List run from handler goroutines
	registryMu sync.RWMutex

	// extractorsByHost maps hostnames to their extractors
	extractorsByHost = map[string]Extractor{}
)

// Register adds an extractor for the given hostnames, replacing any previous
// registration for those hosts
func Register(e Extractor, hosts ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, host := range hosts {
		extractorsByHost[host] = e
	}
}

// Match finds the extractor for a URL using O(1) hostname lookup.
// Returns nil for unknown hosts.
func Match(rawURL string) Extractor {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	host := strings.ToLower(u.Hostname())

	registryMu.RLock()
	defer registryMu.RUnlock()

	// Try exact match
	if e, ok := extractorsByHost[host]; ok {
		if e.Match(u) {
			return e
		}
	}

	// Try without www. prefix
	if strings.HasPrefix(host, "www.") {
		if e, ok := extractorsByHost[host[4:]]; ok {
			if e.Match(u) {
				return e
			}
		}
	}

	return nil
}

// List returns all unique registered extractors
func List() []Extractor {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	var result []Extractor
	for _, e := range extractorsByHost {
		if !seen[e.Name()] {
			seen[e.Name()] = true
			result = append(result, e)
		}
	}
	return result
}

// FindLink extracts the first URL from free text, tolerating bare links
// pasted without a scheme. Returns "" when the text carries no link.
func FindLink(text string) string {
	if raw := textURLRegex.FindString(text); raw != "" {
		return raw
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") || !strings.Contains(trimmed, ".") {
		return ""
	}
	return "https://" + trimmed
}
