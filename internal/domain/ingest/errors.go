package ingest

import (
	"errors"
	"fmt"
)

// Structural problems found while extracting one event record.
var (
	ErrMissingField    = errors.New("required field is missing")
	ErrInvalidValue    = errors.New("field has an invalid value")
	ErrDuplicateOrder  = errors.New("order already loaded by an earlier event")
	ErrDanglingParent  = errors.New("parent row does not exist")
	ErrSchemaViolation = errors.New("record does not match the event schema")
)

// Violations found by the writer's pre-load integrity check.
var (
	ErrDuplicateKey = errors.New("duplicate key value")
	ErrNullValue    = errors.New("null value in non-nullable column")
	ErrCheckFailed  = errors.New("value not allowed by check constraint")
)

// MalformedInputError reports input that is not parseable JSON.
type MalformedInputError struct {
	Offset int64
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("malformed input at byte %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// EmptyInputError reports input that parsed but held no event records.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string { return "input contains no event records" }

// SkippedRecordError is recorded when one event record is rejected. The run continues.
type SkippedRecordError struct {
	Index    int
	EventRef string
	Err      error
}

func (e *SkippedRecordError) Error() string {
	return fmt.Sprintf("skipped record %d (%s): %v", e.Index, e.EventRef, e.Err)
}

func (e *SkippedRecordError) Unwrap() error { return e.Err }

// LoadFailureError aborts the whole run. Nothing written in the transaction survives.
type LoadFailureError struct {
	Table      string
	Constraint string
	Err        error
}

func (e *LoadFailureError) Error() string {
	switch {
	case e.Table != "" && e.Constraint != "":
		return fmt.Sprintf("load failed on %s (%s): %v", e.Table, e.Constraint, e.Err)
	case e.Table != "":
		return fmt.Sprintf("load failed on %s: %v", e.Table, e.Err)
	default:
		return fmt.Sprintf("load failed: %v", e.Err)
	}
}

func (e *LoadFailureError) Unwrap() error { return e.Err }
