package cli

import "fmt"

// CommandError carries the process exit code of a command that has already
// reported its failures, so main exits without printing anything more.
type CommandError struct {
	exitCode int
}

func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("exit status %d", e.exitCode)
}

func (e *CommandError) ExitCode() int {
	return e.exitCode
}
