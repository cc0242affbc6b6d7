package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedSnapshot indicates the raw record failed structural validation
	MalformedSnapshot ErrorCode = "MALFORMED_SNAPSHOT"
	// IdentityMismatch indicates the snapshot's embedded identity does not
	// match the identity the caller asked to ingest
	IdentityMismatch ErrorCode = "IDENTITY_MISMATCH"
	// StoreUnavailable indicates the version store backing is inaccessible
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// NoBaseline indicates a comparison was requested where no earlier
	// period exists
	NoBaseline ErrorCode = "NO_BASELINE"
	// ConfigInvalid indicates the config file is unreadable or inconsistent
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// QueueUnavailable indicates the batch queue backing is unreachable
	QueueUnavailable ErrorCode = "QUEUE_UNAVAILABLE"
	// FeatureUnknown indicates an ingest for a feature the catalog does not
	// list or has disabled
	FeatureUnknown ErrorCode = "FEATURE_UNKNOWN"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// IngestError carries a stable code, a human message, and the wrapped cause
type IngestError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a new IngestError
func New(code ErrorCode, message string, cause error) *IngestError {
	return &IngestError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *IngestError) WithDetails(details interface{}) *IngestError {
	e.Details = details
	return e
}

// Is matches on the error code so errors.Is works across wrapping
func (e *IngestError) Is(target error) bool {
	var t *IngestError
	if !stderrors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HasCode reports whether err (or anything it wraps) carries the given code
func HasCode(err error, code ErrorCode) bool {
	var ie *IngestError
	if !stderrors.As(err, &ie) {
		return false
	}
	return ie.Code == code
}

// CodeOf extracts the error code, or InternalError for foreign errors
func CodeOf(err error) ErrorCode {
	var ie *IngestError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return InternalError
}

// ErrorHints maps error codes to operator guidance printed by the CLI
var ErrorHints = map[ErrorCode]string{
	MalformedSnapshot: "inspect the snapshot file; the commodity descriptor and partner list are required",
	StoreUnavailable:  "check the store backend in .tradestat/config.json and that its path or DSN is reachable",
	IdentityMismatch:  "the file's embedded identity disagrees with the flags; drop the flags or fix the file",
	QueueUnavailable:  "check the queue.url setting and that Redis is running",
	ConfigInvalid:     "run with --config pointing at a valid config file, or delete it to use defaults",
	FeatureUnknown:    "add the feature to FEATURES.toml or remove the catalog file to disable checking",
}

// Hint returns operator guidance for an error code, empty when none exists
func Hint(code ErrorCode) string {
	return ErrorHints[code]
}
