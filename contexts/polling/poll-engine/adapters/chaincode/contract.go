package chaincodeadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"strawpoll/contexts/polling/poll-engine/application/commands"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// PollContract exposes the poll engine as Fabric transactions. The invoking
// client identity is the owner on Initialize and the voter on Vote.
type PollContract struct {
	contractapi.Contract
	limits entities.Limits
	logger *slog.Logger
}

type PollView struct {
	PollID  string       `json:"pollId"`
	Owner   string       `json:"owner"`
	Options []OptionView `json:"options"`
}

type OptionView struct {
	Label string `json:"label"`
	ID    uint8  `json:"id"`
	Votes uint32 `json:"votes"`
}

func NewPollContract(limits entities.Limits, logger *slog.Logger) *PollContract {
	contract := &PollContract{
		limits: limits,
		logger: logger,
	}
	contract.Name = "strawpoll"
	return contract
}

// Initialize creates the poll at pollID. optionsJSON is a JSON array of labels.
func (c *PollContract) Initialize(ctx contractapi.TransactionContextInterface, pollID string, optionsJSON string) (*PollView, error) {
	var labels []string
	if err := json.Unmarshal([]byte(optionsJSON), &labels); err != nil {
		return nil, codedError(fmt.Errorf("%w: options must be a JSON array of strings", domainerrors.ErrInvalidPollInput))
	}
	owner, err := invokerID(ctx)
	if err != nil {
		return nil, err
	}
	poll, err := c.useCase(ctx).CreatePoll(context.Background(), commands.CreatePollCommand{
		PollID:  pollID,
		OwnerID: owner,
		Labels:  labels,
	})
	if err != nil {
		return nil, codedError(err)
	}
	return toPollView(poll), nil
}

func (c *PollContract) Vote(ctx contractapi.TransactionContextInterface, pollID string, optionID int) (*PollView, error) {
	voter, err := invokerID(ctx)
	if err != nil {
		return nil, err
	}
	result, err := c.useCase(ctx).CastVote(context.Background(), commands.CastVoteCommand{
		PollID:   pollID,
		VoterID:  voter,
		OptionID: optionID,
	})
	if err != nil {
		return nil, codedError(err)
	}
	return toPollView(result.Poll), nil
}

func (c *PollContract) GetPoll(ctx contractapi.TransactionContextInterface, pollID string) (*PollView, error) {
	poll, err := newWorldState(ctx.GetStub()).GetPoll(context.Background(), pollID)
	if err != nil {
		return nil, codedError(err)
	}
	return toPollView(poll), nil
}

func (c *PollContract) HasVoted(ctx contractapi.TransactionContextInterface, pollID string, voterID string) (bool, error) {
	state := newWorldState(ctx.GetStub())
	if _, err := state.GetPoll(context.Background(), pollID); err != nil {
		return false, codedError(err)
	}
	return state.hasReceipt(pollID, voterID)
}

func (c *PollContract) useCase(ctx contractapi.TransactionContextInterface) commands.PollUseCase {
	state := newWorldState(ctx.GetStub())
	return commands.PollUseCase{
		Ledger: state,
		Clock:  state,
		IDGen:  state,
		Limits: c.limits,
		Logger: c.logger,
	}
}

func invokerID(ctx contractapi.TransactionContextInterface) (string, error) {
	identity := ctx.GetClientIdentity()
	if identity == nil {
		return "", fmt.Errorf("get invoker ID: client identity unavailable")
	}
	id, err := identity.GetID()
	if err != nil {
		return "", fmt.Errorf("get invoker ID: %w", err)
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("get invoker ID: empty identity")
	}
	return id, nil
}

// codedError prefixes the stable code so clients can branch on the message
// returned in the proposal response.
func codedError(err error) error {
	code := domainerrors.Code(err)
	if code == "" {
		return err
	}
	return fmt.Errorf("%s: %w", code, err)
}

func toPollView(poll entities.Poll) *PollView {
	options := make([]OptionView, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, OptionView{Label: option.Label, ID: option.ID, Votes: option.Votes})
	}
	return &PollView{
		PollID:  poll.PollID,
		Owner:   poll.OwnerID,
		Options: options,
	}
}
