package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type purgeMessage struct {
	OwnerID  string
	Revision int
}

func (purgeMessage) Type() string { return "revisions.test.purge" }

func (purgeMessage) Validate() error { return nil }

func TestDispatchedHandlerRetriesTransientFailures(t *testing.T) {
	var attempts int
	handler := NewHandler(func(context.Context, purgeMessage) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	}, WithTimeout[purgeMessage](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), purgeMessage{OwnerID: "1", Revision: 1}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDispatchedHandlerSurfacesFinalFailure(t *testing.T) {
	var attempts int
	handler := NewHandler(func(context.Context, purgeMessage) error {
		attempts++
		return errors.New("revision still published")
	}, WithTimeout[purgeMessage](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), purgeMessage{OwnerID: "2", Revision: 4}); err == nil {
		t.Fatal("expected dispatch to fail once retries are spent")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
