package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is a process-local ledger. Every transition holds the write lock for
// its whole duration and stages writes until it returns, which gives the
// same all-or-nothing behaviour as a database transaction.
type Store struct {
	mu sync.RWMutex

	polls    map[string]entities.Poll
	receipts map[string]entities.VoteReceipt
	outbox   map[string]outboxRecord
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[strings.TrimSpace(poll.PollID)] = poll.Clone()
	}
	return &Store{
		polls:    polls,
		receipts: make(map[string]entities.VoteReceipt),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(tx ports.PollTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{
		store:    s,
		polls:    make(map[string]entities.Poll),
		receipts: make(map[string]entities.VoteReceipt),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll.Clone(), nil
}

func (s *Store) ListPolls(_ context.Context) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		items = append(items, poll.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetReceipt(_ context.Context, pollID string, voterID string) (entities.VoteReceipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[entities.ReceiptAddress(pollID, voterID)]
	return receipt, ok, nil
}

// ReceiptCount is a test/inspection helper.
func (s *Store) ReceiptCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receipts)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// storeTx reads through its own staged writes first. It is only used while
// the owning Store's write lock is held, so it never locks itself.
type storeTx struct {
	store    *Store
	polls    map[string]entities.Poll
	receipts map[string]entities.VoteReceipt
	outbox   []outboxRecord
}

func (tx *storeTx) InsertPoll(_ context.Context, poll entities.Poll) error {
	key := strings.TrimSpace(poll.PollID)
	if _, ok := tx.lookupPoll(key); ok {
		return domainerrors.ErrAddressAlreadyInUse
	}
	tx.polls[key] = poll.Clone()
	return nil
}

func (tx *storeTx) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	poll, ok := tx.lookupPoll(strings.TrimSpace(pollID))
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll.Clone(), nil
}

func (tx *storeTx) TryCreateReceipt(_ context.Context, receipt entities.VoteReceipt) (ports.ReceiptOutcome, error) {
	if _, ok := tx.receipts[receipt.Address]; ok {
		return ports.ReceiptAlreadyExists, nil
	}
	if _, ok := tx.store.receipts[receipt.Address]; ok {
		return ports.ReceiptAlreadyExists, nil
	}
	tx.receipts[receipt.Address] = receipt
	return ports.ReceiptCreated, nil
}

func (tx *storeTx) SavePollCounts(_ context.Context, poll entities.Poll) error {
	key := strings.TrimSpace(poll.PollID)
	current, ok := tx.lookupPoll(key)
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	if len(current.Options) != len(poll.Options) {
		return domainerrors.ErrConflict
	}
	next := current.Clone()
	for i := range next.Options {
		if next.Options[i].ID != poll.Options[i].ID {
			return domainerrors.ErrConflict
		}
		next.Options[i].Votes = poll.Options[i].Votes
	}
	next.UpdatedAt = poll.UpdatedAt.UTC()
	tx.polls[key] = next
	return nil
}

func (tx *storeTx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := tx.store.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	tx.outbox = append(tx.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	})
	return nil
}

func (tx *storeTx) lookupPoll(key string) (entities.Poll, bool) {
	if poll, ok := tx.polls[key]; ok {
		return poll, true
	}
	poll, ok := tx.store.polls[key]
	return poll, ok
}

func (tx *storeTx) commit() {
	for key, poll := range tx.polls {
		tx.store.polls[key] = poll
	}
	for key, receipt := range tx.receipts {
		tx.store.receipts[key] = receipt
	}
	for _, row := range tx.outbox {
		tx.store.outbox[row.message.OutboxID] = row
	}
}

var _ ports.PollLedger = (*Store)(nil)
var _ ports.PollReader = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
