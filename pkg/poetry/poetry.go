// Package poetry is the boundary to the external environment manager.
// isopy knows nothing about Poetry's behavior beyond "hand it an
// executable path and propagate its exit status".
package poetry

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rexologue/isopy/pkg/util"
)

// poetryBin can be overridden for testing
var poetryBin = "poetry"

// ExitError reports a non-zero exit from the poetry subprocess
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("poetry exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// EnvUse points the current Poetry project at the given interpreter by
// running `poetry env use <python>`. The subprocess inherits stdio so
// Poetry's own output reaches the user unchanged.
func EnvUse(python string) error {
	util.LogVerbose("Running %s env use %s", poetryBin, python)

	cmd := exec.Command(poetryBin, "env", "use", python)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("failed to run %s (is it on PATH?): %w", poetryBin, err)
	}
	return nil
}
