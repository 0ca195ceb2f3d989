package commands

import (
	"context"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// DefaultCommandTimeout bounds a command unless WithTimeout says otherwise.
const DefaultCommandTimeout = 30 * time.Second

// OutcomeStatus classifies how a command execution ended.
type OutcomeStatus string

const (
	OutcomeSucceeded   OutcomeStatus = "succeeded"
	OutcomeFailed      OutcomeStatus = "failed"
	OutcomeInterrupted OutcomeStatus = "interrupted"
)

// Outcome describes one finished command execution.
type Outcome struct {
	Command   string
	Operation string
	Fields    map[string]any
	Elapsed   time.Duration
	Err       error
	Status    OutcomeStatus
}

// Observer is called once per execution that reached the command function.
type Observer[T command.Message] func(ctx context.Context, msg T, outcome Outcome)

// LogOutcome logs every outcome on logger, with the command fields carried by
// the execution context.
func LogOutcome[T command.Message](logger interfaces.Logger) Observer[T] {
	return func(ctx context.Context, _ T, outcome Outcome) {
		entry := logging.FromContext(ctx, logger)
		elapsed := outcome.Elapsed.Milliseconds()
		switch outcome.Status {
		case OutcomeSucceeded:
			entry.Info("command.succeeded", "elapsed_ms", elapsed)
		case OutcomeInterrupted:
			entry.Warn("command.interrupted", "elapsed_ms", elapsed, "error", outcome.Err)
		default:
			entry.Error("command.failed", "elapsed_ms", elapsed, "error", outcome.Err)
		}
	}
}

const loggerRoot = "revisions.commands"

// Logger returns the logger command handlers of group write to.
func Logger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	group = strings.TrimSpace(group)
	if group == "" {
		group = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, loggerRoot+"."+group), map[string]any{
		"component":     "command",
		"command_group": group,
	})
}
