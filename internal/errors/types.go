package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorKind string

const (
	// LaunchFailure: the scanner could not be started or its output could not be captured.
	LaunchFailure ErrorKind = "LaunchFailure"
	// ScannerFailure: the scanner ran and exited non-zero.
	ScannerFailure ErrorKind = "ScannerFailure"
	// ReportMissing: no HTML document was produced.
	ReportMissing ErrorKind = "ReportMissing"
	// ReportWriteFailure: a sanitized artifact could not be written or copied.
	ReportWriteFailure ErrorKind = "ReportWriteFailure"
	ConfigError        ErrorKind = "ConfigError"
)

type ScanError struct {
	Kind  ErrorKind
	Op    string // Operation that failed
	Image string // Image reference (when applicable)
	Cause error  // Underlying error
}

func (e *ScanError) Error() string {
	if e.Image != "" {
		return fmt.Sprintf("%s failed for image %s: %v", e.Op, e.Image, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *ScanError) Unwrap() error { return e.Cause }

func newScanError(kind ErrorKind, op, image string, cause error) *ScanError {
	return &ScanError{
		Kind:  kind,
		Op:    op,
		Image: image,
		Cause: errors.Wrap(cause, op),
	}
}

func NewLaunchFailure(op, image string, cause error) *ScanError {
	return newScanError(LaunchFailure, op, image, cause)
}

func NewScannerFailure(op, image string, exitCode int) *ScanError {
	return newScanError(ScannerFailure, op, image, errors.Newf("exit code %d", exitCode))
}

func NewReportMissing(op, image string, cause error) *ScanError {
	return newScanError(ReportMissing, op, image, cause)
}

func NewReportWriteFailure(op, image string, cause error) *ScanError {
	return newScanError(ReportWriteFailure, op, image, cause)
}

func NewConfigError(op string, cause error) *ScanError {
	return newScanError(ConfigError, op, "", cause)
}

// KindOf returns the kind of the first ScanError in err's chain. Errors that
// did not originate here are reported as LaunchFailure, since they can only
// come from setting up or running the process.
func KindOf(err error) ErrorKind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return LaunchFailure
}

// Is reports whether err carries a ScanError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Kind == kind
}
