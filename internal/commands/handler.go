package commands

import (
	"context"
	"errors"
	"maps"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// HandlerOption configures a Handler.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs a command function behind validation, a timeout, error
// categorisation and outcome reporting. It satisfies command.Commander[T].
//
// The command fields are stored on the execution context, so loggers built
// with logging.FromContext inside the command function carry them too.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	observer  Observer[T]
	mapErr    func(error) error
}

func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.observer == nil {
		h.observer = LogOutcome[T](h.logger)
	}
	return h
}

func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	outcome := Outcome{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
		Fields:    h.describe(msg),
	}
	ctx = logging.ContextWithFields(ctx, outcome.Fields)
	logging.FromContext(ctx, h.logger).Debug("command.started")

	started := time.Now()
	outcome.Status, outcome.Err = h.classify(ctx, h.exec(ctx, msg))
	outcome.Elapsed = time.Since(started)

	h.observer(ctx, msg, outcome)
	return outcome.Err
}

func (h *Handler[T]) describe(msg T) map[string]any {
	fields := map[string]any{"command": command.GetMessageType(msg)}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	return fields
}

func (h *Handler[T]) classify(ctx context.Context, err error) (OutcomeStatus, error) {
	ctxErr := ctx.Err()
	switch {
	case err == nil && ctxErr == nil:
		return OutcomeSucceeded, nil
	case err == nil:
		return OutcomeInterrupted, wrapContextError(ctxErr)
	case ctxErr != nil && errors.Is(err, ctxErr):
		return OutcomeInterrupted, wrapContextError(err)
	}
	if h.mapErr != nil {
		err = h.mapErr(err)
	}
	return OutcomeFailed, wrapExecuteError(err)
}

// WithTimeout replaces DefaultCommandTimeout. Zero or a negative value runs
// commands without a deadline.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOperation names the operation in the command fields.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields adds fields derived from the message.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithObserver replaces the default outcome logging.
func WithObserver[T command.Message](fn Observer[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.observer = fn
	}
}

// WithErrorMapper categorises domain errors before the generic command
// category is applied.
func WithErrorMapper[T command.Message](fn func(error) error) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.mapErr = fn
	}
}
