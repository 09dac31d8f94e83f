package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion failures.
// Callers check them with errors.Is, e.g.
//
//	if errors.Is(err, common.ErrEmptyInput) {
//		// nothing to insert
//	}
var (
	// ErrInputUnreadable indicates the dump could not be opened or read.
	ErrInputUnreadable = errors.New("input unreadable")

	// ErrOutputUnwritable indicates the destination could not be created or written.
	ErrOutputUnwritable = errors.New("output unwritable")

	// ErrMalformedRecord indicates a record whose field count does not match the columns.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptyInput indicates the dump contained no data records.
	ErrEmptyInput = errors.New("no data records in input")

	// ErrInvalidSQL indicates the generated statement failed validation.
	ErrInvalidSQL = errors.New("invalid SQL")

	// ErrUnknownFormat indicates an output format that is not registered.
	ErrUnknownFormat = errors.New("unknown output format")
)

// MalformedRecordError describes a record rejected by the arity check.
type MalformedRecordError struct {
	Line    int    // 1-based physical line number in the input
	Content string // the trimmed line
	Got     int
	Want    int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: expected %d fields, got %d: %q", e.Line, e.Want, e.Got, e.Content)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
