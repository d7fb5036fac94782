package extractor

import "fmt"

// Error code constants, used to pick the localized user-facing message
const (
	ErrorInvalidURL = "invalid_url"
	ErrorAPIFailure = "api_failure"
)

// ExtractError is a typed extraction failure carrying an error code for i18n
type ExtractError struct {
	Code    string // "invalid_url", "api_failure"
	Message string // Original message for logs and fallback display
}

func (e *ExtractError) Error() string {
	return e.Message
}

func invalidURL(format string, args ...any) *ExtractError {
	return &ExtractError{Code: ErrorInvalidURL, Message: fmt.Sprintf(format, args...)}
}

func apiFailure(format string, args ...any) *ExtractError {
	return &ExtractError{Code: ErrorAPIFailure, Message: fmt.Sprintf(format, args...)}
}
