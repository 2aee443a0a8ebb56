package types

import "errors"

// Sentinel errors for the closed error taxonomy (see spec §7). Callers use
// errors.Is/errors.As to classify failures rather than matching strings.
var (
	ErrInputInvalid         = errors.New("input invalid")
	ErrAuthRequired         = errors.New("auth required")
	ErrForbidden            = errors.New("forbidden")
	ErrCollectionMissing    = errors.New("collection missing")
	ErrDimensionMismatch    = errors.New("vector dimension mismatch")
	ErrPoolExhausted        = errors.New("connection pool exhausted")
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrLLMUnavailable       = errors.New("llm provider unavailable")
	ErrTransport            = errors.New("transport error")
	ErrCancelled            = errors.New("operation cancelled")
	ErrTimeout              = errors.New("operation timed out")
	ErrConflict             = errors.New("conflict")
	ErrNotFound             = errors.New("not found")
	ErrQualityTooLow        = errors.New("document quality too low")
)

// ErrorCode is the stable, wire-visible identifier for a taxonomy member.
type ErrorCode string

const (
	ErrorCodeInputInvalid         ErrorCode = "INPUT_INVALID"
	ErrorCodeAuthRequired         ErrorCode = "AUTH_REQUIRED"
	ErrorCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrorCodeCollectionMissing    ErrorCode = "COLLECTION_MISSING"
	ErrorCodeDimensionMismatch    ErrorCode = "DIMENSION_MISMATCH"
	ErrorCodePoolExhausted        ErrorCode = "POOL_EXHAUSTED"
	ErrorCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	ErrorCodeLLMUnavailable       ErrorCode = "LLM_UNAVAILABLE"
	ErrorCodeTransport            ErrorCode = "TRANSPORT_ERROR"
	ErrorCodeCancelled            ErrorCode = "CANCELLED"
	ErrorCodeTimeout              ErrorCode = "TIMEOUT"
	ErrorCodeConflict             ErrorCode = "CONFLICT"
	ErrorCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrorCodeQualityTooLow        ErrorCode = "QUALITY_TOO_LOW"
	ErrorCodeInternal             ErrorCode = "INTERNAL"
)

// classifiedErrors orders sentinel lookups for CodeFor; order matters only
// in that the first match wins, and every sentinel here is mutually exclusive.
var classifiedErrors = []struct {
	err  error
	code ErrorCode
}{
	{ErrInputInvalid, ErrorCodeInputInvalid},
	{ErrAuthRequired, ErrorCodeAuthRequired},
	{ErrForbidden, ErrorCodeForbidden},
	{ErrCollectionMissing, ErrorCodeCollectionMissing},
	{ErrDimensionMismatch, ErrorCodeDimensionMismatch},
	{ErrPoolExhausted, ErrorCodePoolExhausted},
	{ErrEmbeddingUnavailable, ErrorCodeEmbeddingUnavailable},
	{ErrLLMUnavailable, ErrorCodeLLMUnavailable},
	{ErrTransport, ErrorCodeTransport},
	{ErrCancelled, ErrorCodeCancelled},
	{ErrTimeout, ErrorCodeTimeout},
	{ErrConflict, ErrorCodeConflict},
	{ErrNotFound, ErrorCodeNotFound},
	{ErrQualityTooLow, ErrorCodeQualityTooLow},
}

// CodeFor maps an error to its wire error_code, falling back to INTERNAL for
// anything outside the closed taxonomy.
func CodeFor(err error) ErrorCode {
	for _, c := range classifiedErrors {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ErrorCodeInternal
}

// APIError is the stable user-visible failure shape from §7.
type APIError struct {
	Code      ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds the wire error shape from an internal error.
func NewAPIError(err error, requestID string) *APIError {
	return &APIError{
		Code:      CodeFor(err),
		Message:   err.Error(),
		RequestID: requestID,
	}
}
