package queries

import (
	"context"
	"sort"
	"strings"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"
)

type PollQueries struct {
	Polls ports.PollReader
}

type VoterStatus struct {
	PollID         string
	VoterID        string
	Voted          bool
	ReceiptAddress string
}

func (q PollQueries) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return q.Polls.GetPoll(ctx, pollID)
}

// ListPolls returns polls oldest first, ties broken by id.
func (q PollQueries) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	polls, err := q.Polls.ListPolls(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(polls, func(i, j int) bool {
		if polls[i].CreatedAt.Equal(polls[j].CreatedAt) {
			return polls[i].PollID < polls[j].PollID
		}
		return polls[i].CreatedAt.Before(polls[j].CreatedAt)
	})
	return polls, nil
}

func (q PollQueries) Results(ctx context.Context, pollID string) (entities.Results, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Results{}, err
	}
	return poll.Tally(), nil
}

// HasVoted reports whether a receipt exists for the pair. The poll must
// exist; asking about an unknown poll is ErrPollNotFound, not "not voted".
func (q PollQueries) HasVoted(ctx context.Context, pollID string, voterID string) (VoterStatus, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if err != nil {
		return VoterStatus{}, err
	}
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return VoterStatus{}, domainerrors.ErrInvalidVoteInput
	}
	_, found, err := q.Polls.GetReceipt(ctx, poll.PollID, voterID)
	if err != nil {
		return VoterStatus{}, err
	}
	status := VoterStatus{
		PollID:  poll.PollID,
		VoterID: voterID,
		Voted:   found,
	}
	if found {
		status.ReceiptAddress = entities.ReceiptAddress(poll.PollID, voterID)
	}
	return status, nil
}
