package pollengine

import (
	"context"
	"errors"
	"testing"

	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	httptransport "strawpoll/contexts/polling/poll-engine/transport/http"
)

func TestInMemoryModuleVoteFlow(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	ctx := context.Background()

	created, err := module.Handler.CreatePollHandler(ctx, "owner-1", httptransport.CreatePollRequest{
		Options: []string{"red", "green"},
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if created.PollID == "" {
		t.Fatalf("expected generated poll id")
	}

	vote, err := module.Handler.CastVoteHandler(ctx, created.PollID, "voter-1", httptransport.CastVoteRequest{OptionID: 2})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.Poll.Options[1].Votes != 1 {
		t.Fatalf("expected green to have one vote, got %+v", vote.Poll.Options)
	}

	_, err = module.Handler.CastVoteHandler(ctx, created.PollID, "voter-1", httptransport.CastVoteRequest{OptionID: 1})
	if !errors.Is(err, domainerrors.ErrUserAlreadyVoted) {
		t.Fatalf("expected ErrUserAlreadyVoted, got %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx, created.PollID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 || len(results.LeadingIDs) != 1 || results.LeadingIDs[0] != 2 {
		t.Fatalf("unexpected results %+v", results)
	}

	list, err := module.Handler.ListPollsHandler(ctx)
	if err != nil {
		t.Fatalf("list polls failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].PollID != created.PollID {
		t.Fatalf("unexpected list %+v", list)
	}
	if module.Store.ReceiptCount() != 1 {
		t.Fatalf("expected one receipt, got %d", module.Store.ReceiptCount())
	}
}

func TestResultsHandlerReturnsEmptyLeadersForFreshPoll(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreatePollHandler(ctx, "owner-1", httptransport.CreatePollRequest{
		PollID:  "poll-1",
		Options: []string{"only"},
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	results, err := module.Handler.ResultsHandler(ctx, created.PollID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.LeadingIDs == nil || len(results.LeadingIDs) != 0 {
		t.Fatalf("expected empty non-nil leaders, got %v", results.LeadingIDs)
	}
}
