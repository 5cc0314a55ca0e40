package ports

import (
	"context"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	contractsv1 "strawpoll/contracts/gen/events/v1"
)

type ReceiptOutcome int

const (
	ReceiptCreated ReceiptOutcome = iota + 1
	ReceiptAlreadyExists
)

func (o ReceiptOutcome) String() string {
	switch o {
	case ReceiptCreated:
		return "created"
	case ReceiptAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// PollTx is the view of the ledger inside one transition. Nothing written
// through it is visible to other transitions until the enclosing
// WithinTransaction call commits.
type PollTx interface {
	// InsertPoll stores a new poll and fails with ErrAddressAlreadyInUse when
	// the slot is taken. It never overwrites.
	InsertPoll(ctx context.Context, poll entities.Poll) error
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	// TryCreateReceipt is an insert-if-absent on the (poll, voter) slot.
	TryCreateReceipt(ctx context.Context, receipt entities.VoteReceipt) (ReceiptOutcome, error)
	// SavePollCounts persists vote counters and UpdatedAt. Owner and labels
	// are not rewritten.
	SavePollCounts(ctx context.Context, poll entities.Poll) error
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// PollLedger runs fn as a single all-or-nothing unit: every write made through
// the supplied PollTx commits iff fn returns nil.
type PollLedger interface {
	WithinTransaction(ctx context.Context, fn func(tx PollTx) error) error
}

type PollReader interface {
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	ListPolls(ctx context.Context) ([]entities.Poll, error)
	GetReceipt(ctx context.Context, pollID string, voterID string) (entities.VoteReceipt, bool, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// TransitionObserver receives the outcome of each transition. It is used for
// metrics and must not fail the transition.
type TransitionObserver interface {
	ObservePollCreated(outcome string)
	ObserveVote(outcome string)
}
