// Package status defines the error kinds shared across the packager.
package status

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnimplemented   = errors.New("unimplemented")
	ErrFileFailure     = errors.New("file failure")
	ErrParserFailure   = errors.New("parser failure")
)

// InvalidArgument returns an ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Unimplemented returns an ErrUnimplemented with a formatted message.
func Unimplemented(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnimplemented, fmt.Sprintf(format, args...))
}

// FileFailure returns an ErrFileFailure with a formatted message.
func FileFailure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFileFailure, fmt.Sprintf(format, args...))
}

// ParserFailure returns an ErrParserFailure with a formatted message.
func ParserFailure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParserFailure, fmt.Sprintf(format, args...))
}
