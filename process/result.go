package process

import (
	"fmt"
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// maxDiagnostic bounds how much stderr is carried in errors.
const maxDiagnostic = 2048

// Diagnostic returns the tail of stderr, trimmed.
func (r *Result) Diagnostic() string {
	if r == nil {
		return ""
	}
	s := strings.TrimSpace(string(r.Stderr))
	if len(s) > maxDiagnostic {
		s = s[len(s)-maxDiagnostic:]
	}
	return s
}

// ExitError reports a subprocess that ran but exited non-zero.
type ExitError struct {
	Binary     string
	Code       int
	Diagnostic string
	Err        error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process: %s exit code %d: %v", e.Binary, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }
