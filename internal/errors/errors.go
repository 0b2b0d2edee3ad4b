package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/rosterfill/internal/loader"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/writer"
)

// Exit codes returned by the CLI.
const (
	ExitFailure     = 1
	ExitLoad        = 2
	ExitWriteFailed = 3
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint suggests a next step for errors the user can act on.
func Hint(err error) string {
	switch {
	case stderrors.Is(err, loader.ErrNoTasksFound):
		return "seed staffing requirements with required_count > 0 before running autofill"
	case stderrors.Is(err, loader.ErrMissingCollection):
		return "the roster has no slots, capacities or services; check the fixture or run 'seed'"
	case stderrors.Is(err, writer.ErrWriteFailed):
		return "nothing was committed for the failed batches; rerunning is safe"
	case stderrors.Is(err, storage.ErrNotFound):
		return "check the --roster id"
	}
	return ""
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, loader.ErrNoTasksFound), stderrors.Is(err, loader.ErrMissingCollection):
		return ExitLoad
	case stderrors.Is(err, writer.ErrWriteFailed):
		return ExitWriteFailed
	}
	return ExitFailure
}

// Fatal logs an error and exits with ExitCode(err)
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
