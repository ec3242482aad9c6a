package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes for the document pipeline. Stable strings; the HTTP layer
// maps them to status codes via HTTPStatus.
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeMultiPage         = "MULTI_PAGE"
	CodePDFParse          = "PDF_PARSE"
	CodeScanProcessing    = "SCAN_PROCESSING"
	CodeOCREngine         = "OCR_ENGINE"
	CodeEmptyText         = "EMPTY_TEXT"
	CodeInsightParse      = "INSIGHT_PARSE"
	CodeModelCall         = "MODEL_CALL"
	CodeNotFound          = "NOT_FOUND"
	CodeConfig            = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// NewAppError constructs an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// clientCodes are failures caused by the uploaded document itself, not by us
// or our dependencies. The boundary maps these to 400.
var clientCodes = map[string]struct{}{
	CodeUnsupportedFormat: {},
	CodeMultiPage:         {},
	CodePDFParse:          {},
	CodeScanProcessing:    {},
	CodeEmptyText:         {},
}

// HTTPStatus translates an error into the status code the boundary should
// return. Unknown errors are treated as server-side failures.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Code == CodeNotFound {
			return http.StatusNotFound
		}
		if _, ok := clientCodes[ae.Code]; ok {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// UserMessage returns the plain-language message for an error, hiding parser
// internals from the end user unless the failure is document-caused.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "unexpected server error"
}
