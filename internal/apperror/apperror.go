package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Category is a stable failure class. Only its user message ever reaches end
// users; the wrapped error is for logs.
type Category string

const (
	InvalidURL            Category = "invalid_url"
	FetchTimeout          Category = "fetch_timeout"
	FetchUnreachable      Category = "fetch_unreachable"
	FetchFailed           Category = "fetch_failed"
	FetchEmptyContent     Category = "fetch_empty_content"
	UpstreamAuthMissing   Category = "upstream_auth_missing"
	UpstreamError         Category = "upstream_error"
	EmptyCompletion       Category = "empty_completion"
	ImageGenerationFailed Category = "image_generation_failed"
	Unknown               Category = "unknown"
)

const (
	msgInvalidURL        = "Please provide an article URL."
	msgFetchTimeout      = "Timed out loading the article (30 s). Please try again."
	msgFetchUnreachable  = "The site is unreachable. Check the URL and your internet connection."
	msgFetchFailed       = "Could not load the article. The site may be restricting access."
	msgFetchEmptyContent = "Could not extract text from the page. It may be empty or protected."
	msgAIProcessing      = "AI processing failed. Please try again later."
	msgImageGeneration   = "Image generation failed. Please try again later."
	msgUnknown           = "Something went wrong. Please try again."
)

// UserMessage is the only text about a failure that may be shown to end users.
func (c Category) UserMessage() string {
	switch c {
	case InvalidURL:
		return msgInvalidURL
	case FetchTimeout:
		return msgFetchTimeout
	case FetchUnreachable:
		return msgFetchUnreachable
	case FetchFailed:
		return msgFetchFailed
	case FetchEmptyContent:
		return msgFetchEmptyContent
	case UpstreamAuthMissing, UpstreamError, EmptyCompletion:
		return msgAIProcessing
	case ImageGenerationFailed:
		return msgImageGeneration
	case Unknown:
		return msgUnknown
	default:
		return msgUnknown
	}
}

// HTTPStatus is the response status used for the category.
func (c Category) HTTPStatus() int {
	switch c {
	case InvalidURL, FetchTimeout, FetchUnreachable, FetchFailed, FetchEmptyContent:
		return http.StatusBadRequest
	case UpstreamAuthMissing, UpstreamError, EmptyCompletion, ImageGenerationFailed, Unknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized failure. StatusCode is the upstream HTTP status when
// one was received.
type Error struct {
	Category   Category
	StatusCode int
	Err        error
}

func New(category Category, err error) *Error {
	return &Error{Category: category, Err: err}
}

func WithStatus(category Category, statusCode int, err error) *Error {
	return &Error{Category: category, StatusCode: statusCode, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status = %d): %v", e.Category, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of the outermost *Error in the chain.
// Cancelled contexts without a category are Unknown as well.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	return Unknown
}

// StatusCodeOf returns the first upstream status code found in the chain.
func StatusCodeOf(err error) int {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return 0
		}

		if appErr.StatusCode != 0 {
			return appErr.StatusCode
		}

		err = appErr.Err
	}

	return 0
}

// Ensure keeps an already categorized error and files anything else under
// fallback. Context cancellation by the caller is always Unknown.
func Ensure(err error, fallback Category) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return New(Unknown, err)
	}

	return New(fallback, err)
}

// Recategorize files err under category while keeping the original chain
// reachable through errors.As and errors.Is.
func Recategorize(err error, category Category) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Category == category {
		return appErr
	}

	return &Error{Category: category, StatusCode: StatusCodeOf(err), Err: err}
}

// UserMessage returns the user-safe message for any error.
func UserMessage(err error) string {
	return CategoryOf(err).UserMessage()
}
