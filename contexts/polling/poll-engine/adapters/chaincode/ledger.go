package chaincodeadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

const (
	pollIndex    = "poll~id"
	receiptIndex = "receipt~poll~voter"
)

// worldState adapts a chaincode stub to the poll ledger ports. The peer
// already runs each invocation as one transaction: a returned error means no
// write set is endorsed, and MVCC validation rejects a competing transaction
// that read the same receipt key. WithinTransaction therefore only hands the
// stub through.
//
// Fabric does not expose a transaction's own pending writes to its reads, so
// callers must not read a key after writing it within one invocation.
type worldState struct {
	stub shim.ChaincodeStubInterface
}

func newWorldState(stub shim.ChaincodeStubInterface) worldState {
	return worldState{stub: stub}
}

func (w worldState) WithinTransaction(_ context.Context, fn func(tx ports.PollTx) error) error {
	return fn(w)
}

func (w worldState) InsertPoll(_ context.Context, poll entities.Poll) error {
	key, err := w.pollKey(poll.PollID)
	if err != nil {
		return err
	}
	existing, err := w.stub.GetState(key)
	if err != nil {
		return fmt.Errorf("read poll state: %w", err)
	}
	if existing != nil {
		return domainerrors.ErrAddressAlreadyInUse
	}
	return w.putPoll(key, poll)
}

func (w worldState) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	key, err := w.pollKey(pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	raw, err := w.stub.GetState(key)
	if err != nil {
		return entities.Poll{}, fmt.Errorf("read poll state: %w", err)
	}
	if raw == nil {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	var state pollState
	if err := json.Unmarshal(raw, &state); err != nil {
		return entities.Poll{}, fmt.Errorf("decode poll state: %w", err)
	}
	return state.toEntity(), nil
}

func (w worldState) TryCreateReceipt(_ context.Context, receipt entities.VoteReceipt) (ports.ReceiptOutcome, error) {
	key, err := w.receiptKey(receipt.PollID, receipt.VoterID)
	if err != nil {
		return 0, err
	}
	existing, err := w.stub.GetState(key)
	if err != nil {
		return 0, fmt.Errorf("read receipt state: %w", err)
	}
	if existing != nil {
		return ports.ReceiptAlreadyExists, nil
	}
	payload, err := json.Marshal(receiptState{
		Address:   receipt.Address,
		PollID:    receipt.PollID,
		VoterID:   receipt.VoterID,
		CreatedAt: receipt.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, err
	}
	if err := w.stub.PutState(key, payload); err != nil {
		return 0, fmt.Errorf("write receipt state: %w", err)
	}
	return ports.ReceiptCreated, nil
}

func (w worldState) SavePollCounts(_ context.Context, poll entities.Poll) error {
	key, err := w.pollKey(poll.PollID)
	if err != nil {
		return err
	}
	return w.putPoll(key, poll)
}

// AppendOutbox surfaces the envelope as the transaction's chaincode event.
// Fabric keeps one event per transaction and every transition emits one.
func (w worldState) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return w.stub.SetEvent(envelope.EventType, payload)
}

func (w worldState) hasReceipt(pollID string, voterID string) (bool, error) {
	key, err := w.receiptKey(pollID, voterID)
	if err != nil {
		return false, err
	}
	raw, err := w.stub.GetState(key)
	if err != nil {
		return false, fmt.Errorf("read receipt state: %w", err)
	}
	return raw != nil, nil
}

func (w worldState) putPoll(key string, poll entities.Poll) error {
	payload, err := json.Marshal(pollStateFromEntity(poll))
	if err != nil {
		return err
	}
	if err := w.stub.PutState(key, payload); err != nil {
		return fmt.Errorf("write poll state: %w", err)
	}
	return nil
}

func (w worldState) pollKey(pollID string) (string, error) {
	return w.stub.CreateCompositeKey(pollIndex, []string{strings.TrimSpace(pollID)})
}

func (w worldState) receiptKey(pollID string, voterID string) (string, error) {
	return w.stub.CreateCompositeKey(receiptIndex, []string{
		strings.TrimSpace(pollID),
		strings.TrimSpace(voterID),
	})
}

// Now uses the proposal timestamp so every endorser computes identical state.
func (w worldState) Now() time.Time {
	ts, err := w.stub.GetTxTimestamp()
	if err != nil || ts == nil {
		return time.Unix(0, 0).UTC()
	}
	return ts.AsTime().UTC()
}

// NewID keys the single event a transaction emits on its transaction id.
func (w worldState) NewID(context.Context) (string, error) {
	return w.stub.GetTxID(), nil
}

type pollState struct {
	PollID    string        `json:"pollId"`
	Owner     string        `json:"owner"`
	Options   []optionState `json:"options"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

type optionState struct {
	Label string `json:"label"`
	ID    uint8  `json:"id"`
	Votes uint32 `json:"votes"`
}

type receiptState struct {
	Address   string `json:"address"`
	PollID    string `json:"pollId"`
	VoterID   string `json:"voterId"`
	CreatedAt string `json:"createdAt"`
}

func pollStateFromEntity(poll entities.Poll) pollState {
	options := make([]optionState, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, optionState{Label: option.Label, ID: option.ID, Votes: option.Votes})
	}
	return pollState{
		PollID:    poll.PollID,
		Owner:     poll.OwnerID,
		Options:   options,
		CreatedAt: poll.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: poll.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s pollState) toEntity() entities.Poll {
	options := make([]entities.Option, 0, len(s.Options))
	for _, option := range s.Options {
		options = append(options, entities.Option{Label: option.Label, ID: option.ID, Votes: option.Votes})
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, s.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, s.UpdatedAt)
	return entities.Poll{
		PollID:    s.PollID,
		OwnerID:   s.Owner,
		Options:   options,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
}

var _ ports.PollLedger = worldState{}
var _ ports.PollTx = worldState{}
var _ ports.Clock = worldState{}
var _ ports.IDGenerator = worldState{}
