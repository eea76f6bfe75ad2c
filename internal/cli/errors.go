// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the chat API could not be reached
	ExitNetworkError = 5
	// ExitInterrupted indicates the command was cancelled
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with the exit code it maps to.
type CommandError struct {
	Command string // Command that failed (e.g., "status")
	Reason  string // Human-readable reason
	Code    int    // Process exit code
	Err     error  // Underlying error (if any)

	// Silent errors have already been reported to the user.
	Silent bool
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// configError wraps a configuration failure.
func configError(command string, err error) error {
	return &CommandError{Command: command, Reason: "configuration error", Code: ExitConfigError, Err: err}
}

// ExitCodeFor maps an error returned by a command to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cerr *CommandError
	if errors.As(err, &cerr) && cerr.Code != 0 {
		return cerr.Code
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return ExitGeneralError
}

// isSilent reports whether err was already shown to the user.
func isSilent(err error) bool {
	var cerr *CommandError
	return errors.As(err, &cerr) && cerr.Silent
}
