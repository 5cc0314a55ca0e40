package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"
)

func newPoll(t *testing.T, pollID string) entities.Poll {
	t.Helper()
	poll, err := entities.NewPoll(pollID, "owner-1", []string{"A", "B"}, entities.DefaultLimits(), time.Now())
	if err != nil {
		t.Fatalf("new poll failed: %v", err)
	}
	return poll
}

func TestWithinTransactionDiscardsWritesOnError(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		if err := tx.InsertPoll(ctx, newPoll(t, "poll-1")); err != nil {
			return err
		}
		if _, err := tx.TryCreateReceipt(ctx, entities.NewVoteReceipt("poll-1", "alice", time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.GetPoll(ctx, "poll-1"); !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected rolled back poll, got %v", err)
	}
	if store.ReceiptCount() != 0 {
		t.Fatalf("expected rolled back receipt")
	}
}

func TestTryCreateReceiptInsertIfAbsent(t *testing.T) {
	store := NewStore([]entities.Poll{newPoll(t, "poll-1")})
	ctx := context.Background()
	receipt := entities.NewVoteReceipt("poll-1", "alice", time.Now())

	err := store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		first, err := tx.TryCreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		second, err := tx.TryCreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		if first != ports.ReceiptCreated || second != ports.ReceiptAlreadyExists {
			t.Fatalf("expected Created then AlreadyExists within tx, got %s/%s", first, second)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	err = store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		outcome, err := tx.TryCreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		if outcome != ports.ReceiptAlreadyExists {
			t.Fatalf("expected committed receipt to block, got %s", outcome)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if _, found, _ := store.GetReceipt(ctx, "poll-1", "alice"); !found {
		t.Fatalf("expected receipt lookup by pair")
	}
}

func TestInsertPollRejectsOccupiedSlot(t *testing.T) {
	store := NewStore([]entities.Poll{newPoll(t, "poll-1")})
	ctx := context.Background()
	err := store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		return tx.InsertPoll(ctx, newPoll(t, "poll-1"))
	})
	if !errors.Is(err, domainerrors.ErrAddressAlreadyInUse) {
		t.Fatalf("expected ErrAddressAlreadyInUse, got %v", err)
	}
}

func TestSavePollCountsKeepsImmutableFields(t *testing.T) {
	store := NewStore([]entities.Poll{newPoll(t, "poll-1")})
	ctx := context.Background()
	err := store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		poll, err := tx.GetPoll(ctx, "poll-1")
		if err != nil {
			return err
		}
		poll.OwnerID = "intruder"
		poll.Options[0].Label = "changed"
		poll.Options[0].Votes = 3
		return tx.SavePollCounts(ctx, poll)
	})
	if err != nil {
		t.Fatalf("save counts failed: %v", err)
	}
	stored, _ := store.GetPoll(ctx, "poll-1")
	if stored.OwnerID != "owner-1" || stored.Options[0].Label != "A" {
		t.Fatalf("owner and labels must not change, got %+v", stored)
	}
	if stored.Options[0].Votes != 3 {
		t.Fatalf("expected counter persisted, got %d", stored.Options[0].Votes)
	}
}

func TestGetPollReturnsCopy(t *testing.T) {
	store := NewStore([]entities.Poll{newPoll(t, "poll-1")})
	poll, _ := store.GetPoll(context.Background(), "poll-1")
	poll.Options[0].Votes = 99
	again, _ := store.GetPoll(context.Background(), "poll-1")
	if again.Options[0].Votes != 0 {
		t.Fatalf("expected store isolation from caller mutation")
	}
}

func TestWithinTransactionHonoursCancelledContext(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := store.WithinTransaction(ctx, func(ports.PollTx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancelled transaction not to run, got %v", err)
	}
}

func TestOutboxPendingAndPublished(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	err := store.WithinTransaction(ctx, func(tx ports.PollTx) error {
		return tx.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:      "event-1",
			EventType:    "poll.created",
			PartitionKey: "poll-1",
			OccurredAt:   time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 || pending[0].OutboxID != "event-1" {
		t.Fatalf("unexpected pending rows %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "event-1", time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, _ = store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected published row to be skipped")
	}
	if err := store.MarkOutboxPublished(ctx, "missing", time.Now()); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for unknown row, got %v", err)
	}
}
