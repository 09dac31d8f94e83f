package main

import (
	"errors"
	"fmt"

	"github.com/darianmavgo/dumpsql/apply"
	"github.com/darianmavgo/dumpsql/config"
	"github.com/darianmavgo/dumpsql/converters/common"
)

// Exit codes. 0-3 follow the usual Unix conventions, the rest classify failures.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitUsageError       = 2  // missing args, unknown flags
	ExitPanic            = 3  // unexpected crash
	ExitConfigError      = 10 // invalid configuration, unknown format
	ExitInputError       = 11 // input missing or unreadable
	ExitOutputError      = 12 // output cannot be created or written
	ExitMalformedRecord  = 13 // record arity differs from the column list
	ExitEmptyInput       = 14 // strict mode and no records
	ExitValidationFailed = 15 // generated statement rejected by the parser
	ExitDatabaseError    = 16 // apply failed
)

// ErrUsage marks command line misuse.
var ErrUsage = errors.New("usage error")

func usageError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// ExitCodeForError returns the exit code for err: ExitSuccess for nil,
// a semantic code for known errors and ExitGeneralError otherwise.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, common.ErrUnknownFormat):
		return ExitConfigError
	case errors.Is(err, common.ErrInputUnreadable):
		return ExitInputError
	case errors.Is(err, common.ErrOutputUnwritable):
		return ExitOutputError
	case errors.Is(err, common.ErrMalformedRecord):
		return ExitMalformedRecord
	case errors.Is(err, common.ErrEmptyInput):
		return ExitEmptyInput
	case errors.Is(err, common.ErrInvalidSQL):
		return ExitValidationFailed
	case errors.Is(err, apply.ErrDatabase):
		return ExitDatabaseError
	}
	return ExitGeneralError
}
