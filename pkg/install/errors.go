package install

import (
	"fmt"
)

// StepError identifies which step of an installation failed. Installs
// are multi-stage (download, extract, publish) and the remedy differs
// per stage, so the step name is part of the error.
type StepError struct {
	Version string // version being installed
	Op      string // failed step
	Err     error  // underlying cause
}

// Error implements the error interface
func (e *StepError) Error() string {
	return fmt.Sprintf("python %s %s failed: %v", e.Version, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *StepError) Unwrap() error {
	return e.Err
}

// DownloadError creates a download step error
func DownloadError(version string, err error) *StepError {
	return &StepError{Version: version, Op: "download", Err: err}
}

// ExtractError creates an extraction step error
func ExtractError(version string, err error) *StepError {
	return &StepError{Version: version, Op: "extract", Err: err}
}

// PublishError creates a publish (rename into place) step error
func PublishError(version string, err error) *StepError {
	return &StepError{Version: version, Op: "publish", Err: err}
}
