// Package types defines core data types and enums for the documentation translator.
package types

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TranslationResult holds the outcome of a single document translation job.
type TranslationResult struct {
	FilePath          string `json:"file_path"`
	Language          string `json:"language"`
	OriginalContent   string `json:"original_content"`
	TranslatedContent string `json:"translated_content"`
	TokensUsed        int    `json:"tokens_used"`
}

// PRResult describes the outcome of a pull-request workflow run.
type PRResult struct {
	Status   PRStatus `json:"status"`
	Branch   string   `json:"branch,omitempty"`
	FilePath string   `json:"file_path,omitempty"`
	PRURL    string   `json:"pr_url,omitempty"`
	Message  string   `json:"message"`
}

// PRStatus enumerates pull-request workflow outcomes.
type PRStatus string

const (
	PRStatusSuccess        PRStatus = "success"
	PRStatusPartialSuccess PRStatus = "partial_success"
	PRStatusError          PRStatus = "error"
)

// SupportedLanguages lists the ISO codes the translator accepts as targets.
var SupportedLanguages = []string{
	"az", "bn", "de", "es", "fa", "fr", "he", "hu", "id", "it",
	"ja", "ko", "pl", "pt", "ru", "tr", "uk", "ur", "vi", "zh",
}

// IsSupportedLanguage reports whether code is a recognized target language.
func IsSupportedLanguage(code string) bool {
	for _, c := range SupportedLanguages {
		if c == code {
			return true
		}
	}
	return false
}

// LanguageDisplayName resolves an ISO code to its English display name,
// which is what the translation prompt embeds ("Korean", not "ko").
// Unknown codes are returned unchanged.
func LanguageDisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// ErrorCode classifies application errors.
type ErrorCode string

const (
	ErrNetwork         ErrorCode = "NETWORK_ERROR"
	ErrGitHubAPI       ErrorCode = "GITHUB_API_ERROR"
	ErrRateLimit       ErrorCode = "RATE_LIMIT_ERROR"
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrAPICall         ErrorCode = "API_CALL_ERROR"
	ErrConfig          ErrorCode = "CONFIG_ERROR"
	ErrInternal        ErrorCode = "INTERNAL_ERROR"
	ErrTranslation     ErrorCode = "TRANSLATION_ERROR"
	ErrSegmentation    ErrorCode = "SEGMENTATION_ERROR"
	ErrSectionMismatch ErrorCode = "SECTION_COUNT_MISMATCH"
)

// AppError is the application error type carrying a code, a human-readable
// message, optional details, and the underlying cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether err (or anything it wraps) is an *AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
