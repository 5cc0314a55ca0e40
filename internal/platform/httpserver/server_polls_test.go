package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pollengine "strawpoll/contexts/polling/poll-engine"
	pollhttp "strawpoll/contexts/polling/poll-engine/transport/http"
	"strawpoll/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer() *Server {
	return New(
		pollengine.NewInMemoryModule(nil, slog.Default()),
		nil,
		slog.Default(),
		":0",
	)
}

func doJSON(t *testing.T, server *Server, method string, path string, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) pollhttp.ErrorResponse {
	t.Helper()
	var resp pollhttp.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v body=%s", err, rr.Body.String())
	}
	return resp
}

func TestCreatePollRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/polls", "", `{"options":["yes","no"]}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePollRejectsInvalidJSON(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", `{"options":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePollAndVoteFlow(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", `{"poll_id":"poll-1","options":["A","B","C"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created pollhttp.PollResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode poll: %v", err)
	}
	if created.PollID != "poll-1" || created.Owner != "owner-1" || len(created.Options) != 3 {
		t.Fatalf("unexpected poll: %+v", created)
	}
	for i, option := range created.Options {
		if int(option.ID) != i+1 || option.Votes != 0 {
			t.Fatalf("unexpected option %d: %+v", i, option)
		}
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var voted pollhttp.VoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &voted); err != nil {
		t.Fatalf("decode vote: %v", err)
	}
	if voted.Poll.Options[1].Votes != 1 || voted.ReceiptAddress == "" {
		t.Fatalf("unexpected vote response: %+v", voted)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":3}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeError(t, rr).Code; code != "UserAlreadyVoted" {
		t.Fatalf("expected UserAlreadyVoted, got %q", code)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/polls/poll-1/results", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var results pollhttp.ResultsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if results.TotalVotes != 1 || len(results.LeadingIDs) != 1 || results.LeadingIDs[0] != 2 {
		t.Fatalf("unexpected results: %+v", results)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/polls/poll-1/receipts/voter-1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var status pollhttp.ReceiptStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode receipt status: %v", err)
	}
	if !status.Voted || status.ReceiptAddress != voted.ReceiptAddress {
		t.Fatalf("unexpected receipt status: %+v", status)
	}
}

func TestResultsEncodeLeadingOptionIDsAsNumbers(t *testing.T) {
	server := newTestServer()
	if rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", `{"poll_id":"poll-1","options":["A","B","C"]}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	readLeaders := func() []int {
		t.Helper()
		rr := doJSON(t, server, http.MethodGet, "/v1/polls/poll-1/results", "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		var raw struct {
			LeadingIDs []int `json:"leading_option_ids"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
			t.Fatalf("decode results: %v body=%s", err, rr.Body.String())
		}
		if raw.LeadingIDs == nil {
			t.Fatalf("expected leading_option_ids array, body=%s", rr.Body.String())
		}
		return raw.LeadingIDs
	}

	if leaders := readLeaders(); len(leaders) != 0 {
		t.Fatalf("expected no leaders before any vote, got %v", leaders)
	}

	for voter, option := range map[string]string{"voter-1": "1", "voter-2": "3"} {
		rr := doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", voter, `{"option_id":`+option+`}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
	}

	leaders := readLeaders()
	if len(leaders) != 2 || leaders[0] != 1 || leaders[1] != 3 {
		t.Fatalf("expected tie between options 1 and 3, got %v", leaders)
	}
}

func TestCreatePollOnOccupiedAddressReturnsConflict(t *testing.T) {
	server := newTestServer()
	body := `{"poll_id":"poll-1","options":["A","B"]}`
	if rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", body); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-2", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeError(t, rr).Code; code != "AddressAlreadyInUse" {
		t.Fatalf("expected AddressAlreadyInUse, got %q", code)
	}
}

func TestCastVoteInvalidOptionReturnsUnprocessable(t *testing.T) {
	server := newTestServer()
	if rr := doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", `{"poll_id":"poll-1","options":["A","B"]}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr := doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":3}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeError(t, rr).Code; code != "InvalidOption" {
		t.Fatalf("expected InvalidOption, got %q", code)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected retry after invalid option to succeed, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPollRoutesReturnNotFound(t *testing.T) {
	server := newTestServer()
	for _, path := range []string{
		"/v1/polls/missing",
		"/v1/polls/missing/results",
		"/v1/polls/missing/receipts/voter-1",
	} {
		rr := doJSON(t, server, http.MethodGet, path, "", "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d body=%s", path, rr.Code, rr.Body.String())
		}
	}
	rr := doJSON(t, server, http.MethodPost, "/v1/polls/missing/votes", "voter-1", `{"option_id":1}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMetricsEndpointExposesVoteOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer, err := metrics.NewPollMetrics("strawpoll", registry)
	if err != nil {
		t.Fatalf("new metrics failed: %v", err)
	}
	module := pollengine.NewInMemoryModule(nil, slog.Default())
	module.Handler.Polls.Observer = observer
	server := New(module, registry, slog.Default(), ":0")

	doJSON(t, server, http.MethodPost, "/v1/polls", "owner-1", `{"poll_id":"poll-1","options":["A"]}`)
	doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":1}`)
	doJSON(t, server, http.MethodPost, "/v1/polls/poll-1/votes", "voter-1", `{"option_id":1}`)

	rr := doJSON(t, server, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `strawpoll_poll_vote_transitions_total{outcome="success"} 1`) {
		t.Fatalf("missing success counter in metrics output:\n%s", body)
	}
	if !strings.Contains(body, `strawpoll_poll_vote_transitions_total{outcome="UserAlreadyVoted"} 1`) {
		t.Fatalf("missing rejection counter in metrics output:\n%s", body)
	}
}
