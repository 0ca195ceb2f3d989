package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-revisions/internal/logging"
)

type publishMessage struct {
	OwnerID string
}

func (publishMessage) Type() string { return "revisions.test.publish" }

func (m publishMessage) Validate() error {
	if m.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	return nil
}

func collectOutcomes(outcomes *[]Outcome) HandlerOption[publishMessage] {
	return WithObserver(func(_ context.Context, _ publishMessage, outcome Outcome) {
		*outcomes = append(*outcomes, outcome)
	})
}

func TestHandlerRunsCommandAndReportsSuccess(t *testing.T) {
	var outcomes []Outcome
	var seen map[string]any
	h := NewHandler(func(ctx context.Context, msg publishMessage) error {
		seen = logging.ContextFields(ctx)
		return nil
	},
		WithOperation[publishMessage]("revisions.publish"),
		WithMessageFields(func(msg publishMessage) map[string]any { return map[string]any{"owner_id": msg.OwnerID} }),
		collectOutcomes(&outcomes),
	)

	if err := h.Execute(context.Background(), publishMessage{OwnerID: "1"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if seen["owner_id"] != "1" || seen["command"] != "revisions.test.publish" || seen["operation"] != "revisions.publish" {
		t.Fatalf("expected command fields on context, got %v", seen)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeSucceeded || outcomes[0].Err != nil {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestHandlerRejectsInvalidMessages(t *testing.T) {
	var outcomes []Outcome
	called := false
	h := NewHandler(func(context.Context, publishMessage) error {
		called = true
		return nil
	}, collectOutcomes(&outcomes))

	err := h.Execute(context.Background(), publishMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called || len(outcomes) != 0 {
		t.Fatal("expected invalid messages to stop before the command runs")
	}
}

func TestHandlerSkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler(func(context.Context, publishMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, publishMessage{OwnerID: "1"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected command not to run on a cancelled context")
	}
}

func TestHandlerReportsDeadlineAsInterrupted(t *testing.T) {
	var outcomes []Outcome
	h := NewHandler(func(ctx context.Context, _ publishMessage) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout[publishMessage](5*time.Millisecond), collectOutcomes(&outcomes))

	err := h.Execute(context.Background(), publishMessage{OwnerID: "1"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeInterrupted {
		t.Fatalf("expected interrupted outcome, got %+v", outcomes)
	}
}

func TestHandlerWithoutTimeoutHasNoDeadline(t *testing.T) {
	h := NewHandler(func(ctx context.Context, _ publishMessage) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	}, WithTimeout[publishMessage](0))

	if err := h.Execute(context.Background(), publishMessage{OwnerID: "1"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestHandlerCategorisesFailures(t *testing.T) {
	missing := errors.New("owner missing")
	mapper := ErrorMapper(ErrorRule{Target: missing, Category: goerrors.CategoryNotFound, Code: "OWNER_NOT_FOUND"})

	var outcomes []Outcome
	h := NewHandler(func(context.Context, publishMessage) error {
		return missing
	}, WithErrorMapper[publishMessage](mapper), collectOutcomes(&outcomes))

	err := h.Execute(context.Background(), publishMessage{OwnerID: "1"})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected mapped category, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeFailed || outcomes[0].Err != err {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}

	plain := NewHandler(func(context.Context, publishMessage) error {
		return errors.New("boom")
	}, WithErrorMapper[publishMessage](mapper))
	if err := plain.Execute(context.Background(), publishMessage{OwnerID: "1"}); !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for unmapped errors, got %v", err)
	}
}

func TestErrorMapperLeavesWrappedErrors(t *testing.T) {
	wrapped := goerrors.Wrap(errors.New("conflict"), goerrors.CategoryConflict, "publish in progress")
	mapper := ErrorMapper(ErrorRule{Target: wrapped, Category: goerrors.CategoryNotFound})
	if got := mapper(wrapped); !goerrors.IsCategory(got, goerrors.CategoryConflict) {
		t.Fatalf("expected existing category to survive, got %v", got)
	}
	if mapper(nil) != nil {
		t.Fatal("expected nil to map to nil")
	}
}
