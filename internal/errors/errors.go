package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a board error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"         // 404
	ErrConflict        ErrorCode = "CONFLICT"          // 409
	ErrContentTooLarge ErrorCode = "CONTENT_TOO_LARGE" // 413
	ErrInvalidContent  ErrorCode = "INVALID_CONTENT"   // 422
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrCancelled       ErrorCode = "CANCELLED"         // 499
	ErrInternal        ErrorCode = "INTERNAL"          // 500
)

// BoardError represents a structured error with code, status, and details.
type BoardError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *BoardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *BoardError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BoardError {
	return &BoardError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing notice or category.
func NewNotFound(kind, identifier string) *BoardError {
	return &BoardError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewSlugAlreadyExists creates a 409 error for category slug collisions.
func NewSlugAlreadyExists(slug string) *BoardError {
	return &BoardError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("category with slug %q already exists", slug),
		Details: map[string]any{"slug": slug},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *BoardError {
	return &BoardError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewContentTooLarge creates a 413 error when content exceeds the size limit.
func NewContentTooLarge(max, actual int) *BoardError {
	return &BoardError{
		Code:    ErrContentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("content exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewInvalidContent creates a 422 error when content cannot be parsed as
// either document format.
func NewInvalidContent(err error) *BoardError {
	msg := "content is not a valid document"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &BoardError{
		Code:    ErrInvalidContent,
		Status:  422,
		Message: msg,
		cause:   err,
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *BoardError {
	return &BoardError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates an error for an operation stopped by its context.
func NewCancelled(operation string) *BoardError {
	return &BoardError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BoardError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BoardError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the BoardError in err's chain, if any.
func As(err error) (*BoardError, bool) {
	var bErr *BoardError
	if stderrors.As(err, &bErr) {
		return bErr, true
	}
	return nil, false
}

// Is checks if an error is a BoardError with the given code.
func Is(err error, code ErrorCode) bool {
	if bErr, ok := As(err); ok {
		return bErr.Code == code
	}
	return false
}

// userMessages are shown to visitors and staff in place of internal messages.
var userMessages = map[ErrorCode]string{
	ErrInvalidRequest:  "요청 내용을 확인해 주세요.",
	ErrNotFound:        "요청하신 공지사항을 찾을 수 없습니다.",
	ErrConflict:        "이미 존재하는 항목입니다.",
	ErrContentTooLarge: "본문이 너무 깁니다. 내용을 줄여 주세요.",
	ErrInvalidContent:  "본문 형식이 올바르지 않습니다.",
	ErrFileNotFound:    "파일을 찾을 수 없습니다.",
	ErrCancelled:       "작업이 취소되었습니다.",
	ErrInternal:        "공지사항을 불러오지 못했습니다. 잠시 후 다시 시도해 주세요.",
}

// UserMessage returns the Korean message for err. Errors that are not
// BoardErrors are treated as internal.
func UserMessage(err error) string {
	code := ErrInternal
	if bErr, ok := As(err); ok {
		code = bErr.Code
	}
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrInternal]
}

// Retryable reports whether showing a retry action makes sense for err.
func Retryable(err error) bool {
	bErr, ok := As(err)
	return !ok || bErr.Code == ErrInternal
}
