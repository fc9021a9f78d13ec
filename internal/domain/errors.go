package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common domain errors
var (
	ErrNotFound            = errors.New("not found")
	ErrRunInProgress       = errors.New("a transfer run is already in progress")
	ErrInvalidSourceSpec   = errors.New("invalid source spec, expected user@host:path")
	ErrSourceNotConfigured = errors.New("transfer source is not configured")
)

// ConfigurationError means the run cannot proceed because its inputs are
// wrong. It is fatal to the run and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error returns the error message
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	}
	return "configuration error: " + e.Reason
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// IsConfiguration returns true if the error is a configuration error
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// InsufficientSpaceError means the destination volume is below the
// configured floor. The run is aborted before the transfer tool starts.
type InsufficientSpaceError struct {
	Path    string
	FloorGB float64
	Info    DiskSpaceInfo
}

// Error returns the error message
func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space on %s: %.2f GB free of %.2f GB, floor is %.0f GB",
		e.Path, e.Info.FreeGB(), e.Info.TotalGB(), e.FloorGB)
}

// IsInsufficientSpace returns true if the error is an insufficient-space error
func IsInsufficientSpace(err error) bool {
	var se *InsufficientSpaceError
	return errors.As(err, &se)
}

// ProcessError means the transfer tool exited non-zero. Retried up to the
// policy limit before surfacing.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

// Error returns the error message
func (e *ProcessError) Error() string {
	return fmt.Sprintf("transfer process failed with exit code %d", e.ExitCode)
}

// IsProcess returns true if the error is a process error
func IsProcess(err error) bool {
	var pe *ProcessError
	return errors.As(err, &pe)
}

// TimeoutError means the transfer process exceeded its time bound. Kept
// distinct from ProcessError: it points at the remote or the network,
// not the data.
type TimeoutError struct {
	Timeout time.Duration
}

// Error returns the error message
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transfer process timed out after %s", e.Timeout)
}

// IsTimeout returns true if the error is a timeout error
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
