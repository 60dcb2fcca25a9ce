package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels used with errors.Is. Every typed error below unwraps to one of them.
var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateUpload = errors.New("duplicate upload")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrStoreTransient  = errors.New("remote store temporarily unavailable")
	ErrStoreFatal      = errors.New("remote store error")
)

// RowIssue describes a single row excluded from a batch.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ValidationError reports bad input shape or content.
type ValidationError struct {
	Msg  string
	Rows []RowIssue
}

func (e *ValidationError) Error() string {
	if len(e.Rows) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (%d row issues)", e.Msg, len(e.Rows))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidPeriodError is returned when a declared period does not fit in one calendar month.
type InvalidPeriodError struct {
	Start, End time.Time
	Reason     string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %s..%s: %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrValidation }

// MissingColumnsError lists required columns absent from an upload header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "upload is missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *MissingColumnsError) Unwrap() error { return ErrValidation }

// DuplicateUploadError means a byte-identical file was already ingested for the report.
type DuplicateUploadError struct {
	Report          string
	Fingerprint     string
	ExistingBatchID string
}

func (e *DuplicateUploadError) Error() string {
	return fmt.Sprintf("file already uploaded to %s as batch %s", e.Report, e.ExistingBatchID)
}

func (e *DuplicateUploadError) Unwrap() error { return ErrDuplicateUpload }

// UnauthorizedError is returned for mutating operations without an authenticated identity.
type UnauthorizedError struct {
	Op string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s requires an authenticated user", e.Op)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// StoreError wraps a failure from the remote tabular store.
type StoreError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StoreError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("store %s (%s): %v", e.Op, kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Transient {
		return []error{ErrStoreTransient, e.Err}
	}
	return []error{ErrStoreFatal, e.Err}
}

func Transient(op string, err error) error {
	return &StoreError{Op: op, Transient: true, Err: err}
}

func Fatal(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreTransient)
}
