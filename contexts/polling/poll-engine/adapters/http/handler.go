package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"strawpoll/contexts/polling/poll-engine/application"
	"strawpoll/contexts/polling/poll-engine/application/commands"
	"strawpoll/contexts/polling/poll-engine/application/queries"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	httptransport "strawpoll/contexts/polling/poll-engine/transport/http"
)

type Handler struct {
	Polls   commands.PollUseCase
	Queries queries.PollQueries
	Logger  *slog.Logger
}

// CreatePollHandler godoc
// @Summary Create a poll
// @Description Creates a poll at the supplied or a freshly generated address with 1-based option ids.
// @Tags polls
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Poll owner"
// @Param request body httptransport.CreatePollRequest true "Poll address and option labels"
// @Success 201 {object} httptransport.PollResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/polls [post]
func (h Handler) CreatePollHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	logger := application.LayerLogger(h.Logger, "transport")
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		PollID:  req.PollID,
		OwnerID: ownerID,
		Labels:  req.Options,
	})
	if err != nil {
		logger.Warn("create poll request failed",
			"event", "http_create_poll_failed",
			"owner_id", ownerID,
			"error", err.Error(),
		)
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

// CastVoteHandler godoc
// @Summary Cast a vote
// @Description Records one vote for the caller; a second attempt on the same poll fails with UserAlreadyVoted.
// @Tags polls
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter"
// @Param poll_id path string true "Poll address"
// @Param request body httptransport.CastVoteRequest true "Chosen option id"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/polls/{poll_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	pollID string,
	voterID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	logger := application.LayerLogger(h.Logger, "transport")
	result, err := h.Polls.CastVote(ctx, commands.CastVoteCommand{
		PollID:   pollID,
		VoterID:  voterID,
		OptionID: req.OptionID,
	})
	if err != nil {
		logger.Warn("cast vote request failed",
			"event", "http_cast_vote_failed",
			"poll_id", pollID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		Poll:           mapPoll(result.Poll),
		ReceiptAddress: result.Receipt.Address,
	}, nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Queries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) ListPollsHandler(ctx context.Context) (httptransport.ListPollsResponse, error) {
	polls, err := h.Queries.ListPolls(ctx)
	if err != nil {
		return httptransport.ListPollsResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll))
	}
	return httptransport.ListPollsResponse{Items: items}, nil
}

// ResultsHandler godoc
// @Summary Poll results
// @Tags polls
// @Produce json
// @Param poll_id path string true "Poll address"
// @Success 200 {object} httptransport.ResultsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/polls/{poll_id}/results [get]
func (h Handler) ResultsHandler(ctx context.Context, pollID string) (httptransport.ResultsResponse, error) {
	results, err := h.Queries.Results(ctx, pollID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	leading := make([]int, 0, len(results.LeadingIDs))
	for _, id := range results.LeadingIDs {
		leading = append(leading, int(id))
	}
	return httptransport.ResultsResponse{
		PollID:     results.PollID,
		Options:    mapOptions(results.Options),
		TotalVotes: results.TotalVotes,
		LeadingIDs: leading,
	}, nil
}

func (h Handler) ReceiptStatusHandler(ctx context.Context, pollID string, voterID string) (httptransport.ReceiptStatusResponse, error) {
	status, err := h.Queries.HasVoted(ctx, pollID, voterID)
	if err != nil {
		return httptransport.ReceiptStatusResponse{}, err
	}
	return httptransport.ReceiptStatusResponse{
		PollID:         status.PollID,
		VoterID:        status.VoterID,
		Voted:          status.Voted,
		ReceiptAddress: status.ReceiptAddress,
	}, nil
}

func mapPoll(poll entities.Poll) httptransport.PollResponse {
	return httptransport.PollResponse{
		PollID:    poll.PollID,
		Owner:     poll.OwnerID,
		Options:   mapOptions(poll.Options),
		CreatedAt: poll.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: poll.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapOptions(options []entities.Option) []httptransport.OptionResponse {
	items := make([]httptransport.OptionResponse, 0, len(options))
	for _, option := range options {
		items = append(items, httptransport.OptionResponse{
			Label: option.Label,
			ID:    option.ID,
			Votes: option.Votes,
		})
	}
	return items
}
