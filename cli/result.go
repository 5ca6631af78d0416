package cli

import "errors"

// CommandError signals a command failure with a specific exit code.
// Commands return this after handling all output (printing errors to stderr).
// Main centralizes exit handling instead of commands calling os.Exit directly.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return "command failed"
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// CommandResult encapsulates the outcome of a command execution.
type CommandResult struct {
	// ExitCode is the exit code to return to the OS.
	// 0 indicates success, non-zero indicates failure.
	ExitCode int

	// Err is any error that occurred during command execution. It is nil
	// when the command already reported the failure itself.
	Err error
}

// Success returns a CommandResult indicating successful execution.
func Success() CommandResult {
	return CommandResult{ExitCode: 0}
}

// Failure returns a CommandResult indicating failure with the given error.
func Failure(err error) CommandResult {
	return CommandResult{ExitCode: 1, Err: err}
}

// ResultOf turns the error returned by a command into a CommandResult.
// A CommandError keeps its exit code and carries no error, since its output
// was already written.
func ResultOf(err error) CommandResult {
	if err == nil {
		return Success()
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return CommandResult{ExitCode: cmdErr.ExitCode()}
	}
	return Failure(err)
}
