package script

import "errors"

// Errors returned by the runner.
var (
	// ErrRunnerClosed is returned when running on a closed runner.
	ErrRunnerClosed = errors.New("script runner is closed")

	// ErrTimeout is returned when a script exceeds its execution time.
	ErrTimeout = errors.New("script execution timeout")
)

// Error describes a script that failed to compile or raised an error.
type Error struct {
	Name string // chunk name, the file path for RunFile
	Err  error
}

func (e *Error) Error() string {
	return "script " + e.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
