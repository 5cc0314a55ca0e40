package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "strawpoll/contexts/polling/poll-engine/application"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"
)

// CreatePollCommand carries the "initialize" request. PollID is the address of
// the new record; when empty a fresh one is allocated.
type CreatePollCommand struct {
	PollID  string
	OwnerID string
	Labels  []string
}

// CastVoteCommand carries the "vote" request. OptionID is kept as the raw
// caller value so out-of-range ids surface as InvalidOption.
type CastVoteCommand struct {
	PollID   string
	VoterID  string
	OptionID int
}

type CastVoteResult struct {
	Poll    entities.Poll
	Receipt entities.VoteReceipt
}

// PollUseCase is the transition processor. Each command runs inside one
// ledger transaction, so it is either fully applied or fully rejected.
type PollUseCase struct {
	Ledger   ports.PollLedger
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Limits   entities.Limits
	Observer ports.TransitionObserver
	Logger   *slog.Logger
}

func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.LayerLogger(uc.Logger, "application")
	logger.Info("poll create processing started",
		"event", "poll_create_started",
		"poll_id", strings.TrimSpace(cmd.PollID),
		"owner_id", strings.TrimSpace(cmd.OwnerID),
		"option_count", len(cmd.Labels),
	)

	pollID := strings.TrimSpace(cmd.PollID)
	if pollID == "" {
		if uc.IDGen == nil {
			return entities.Poll{}, domainerrors.ErrInvalidPollInput
		}
		generated, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		pollID = generated
	}

	now := uc.now()
	poll, err := entities.NewPoll(pollID, cmd.OwnerID, cmd.Labels, uc.Limits, now)
	if err != nil {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"poll_id", pollID,
			"owner_id", strings.TrimSpace(cmd.OwnerID),
			"option_count", len(cmd.Labels),
		)
		uc.observePollCreated(err)
		return entities.Poll{}, err
	}

	err = uc.Ledger.WithinTransaction(ctx, func(tx ports.PollTx) error {
		if err := tx.InsertPoll(ctx, poll); err != nil {
			return err
		}
		return uc.appendEvent(ctx, tx, EventPollCreated, poll.PollID, now, pollCreatedPayload(poll, now))
	})
	uc.observePollCreated(err)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAddressAlreadyInUse) {
			logger.Warn("poll create rejected: address in use",
				"event", "poll_create_address_in_use",
				"poll_id", poll.PollID,
				"owner_id", poll.OwnerID,
			)
		}
		return entities.Poll{}, err
	}

	logger.Info("poll created",
		"event", "poll_created",
		"poll_id", poll.PollID,
		"owner_id", poll.OwnerID,
		"option_count", len(poll.Options),
	)
	return poll, nil
}

// CastVote materializes the voter's receipt, validates the option and bumps
// the counter as one unit. A rejected option rolls the receipt back with the
// rest of the transaction.
func (uc PollUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.LayerLogger(uc.Logger, "application")
	pollID := strings.TrimSpace(cmd.PollID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("vote processing started",
		"event", "poll_vote_started",
		"poll_id", pollID,
		"voter_id", voterID,
		"option_id", cmd.OptionID,
	)
	if pollID == "" || voterID == "" {
		logger.Warn("vote validation failed",
			"event", "poll_vote_validation_failed",
			"poll_id", pollID,
			"voter_id", voterID,
		)
		uc.observeVote(domainerrors.ErrInvalidVoteInput)
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	now := uc.now()
	var result CastVoteResult
	err := uc.Ledger.WithinTransaction(ctx, func(tx ports.PollTx) error {
		poll, err := tx.GetPoll(ctx, pollID)
		if err != nil {
			return err
		}

		receipt := entities.NewVoteReceipt(poll.PollID, voterID, now)
		outcome, err := tx.TryCreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		if outcome != ports.ReceiptCreated {
			return domainerrors.ErrUserAlreadyVoted
		}

		updated, err := poll.Increment(cmd.OptionID, now)
		if err != nil {
			return err
		}
		if err := tx.SavePollCounts(ctx, updated); err != nil {
			return err
		}
		// Increment succeeded, so OptionID is a valid 1..255 id.
		payload := voteCastPayload(updated, receipt, uint8(cmd.OptionID), now)
		if err := uc.appendEvent(ctx, tx, EventVoteCast, updated.PollID, now, payload); err != nil {
			return err
		}
		result = CastVoteResult{Poll: updated, Receipt: receipt}
		return nil
	})
	uc.observeVote(err)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrUserAlreadyVoted):
			logger.Warn("vote rejected: user already voted",
				"event", "poll_vote_already_voted",
				"poll_id", pollID,
				"voter_id", voterID,
			)
		case errors.Is(err, domainerrors.ErrInvalidOption):
			logger.Warn("vote rejected: invalid option",
				"event", "poll_vote_invalid_option",
				"poll_id", pollID,
				"voter_id", voterID,
				"option_id", cmd.OptionID,
			)
		}
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "poll_vote_cast",
		"poll_id", pollID,
		"voter_id", voterID,
		"option_id", cmd.OptionID,
		"receipt_address", result.Receipt.Address,
	)
	return result, nil
}

func (uc PollUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc PollUseCase) appendEvent(
	ctx context.Context,
	tx ports.PollTx,
	eventType string,
	pollID string,
	occurredAt time.Time,
	payload any,
) error {
	// No id generator, no event id to key the outbox row on.
	if uc.IDGen == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newPollEnvelope(eventID, eventType, pollID, occurredAt, payload)
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, envelope)
}

func (uc PollUseCase) observePollCreated(err error) {
	if uc.Observer == nil {
		return
	}
	uc.Observer.ObservePollCreated(outcomeLabel(err))
}

func (uc PollUseCase) observeVote(err error) {
	if uc.Observer == nil {
		return
	}
	uc.Observer.ObserveVote(outcomeLabel(err))
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainerrors.Code(err); code != "" {
		return code
	}
	return "internal_error"
}
