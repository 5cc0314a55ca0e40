package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	PollID  string   `json:"poll_id,omitempty"`
	Options []string `json:"options"`
}

type CastVoteRequest struct {
	OptionID int `json:"option_id"`
}

type OptionResponse struct {
	Label string `json:"label"`
	ID    uint8  `json:"id"`
	Votes uint32 `json:"votes"`
}

type PollResponse struct {
	PollID    string           `json:"poll_id"`
	Owner     string           `json:"owner"`
	Options   []OptionResponse `json:"options"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type VoteResponse struct {
	Poll           PollResponse `json:"poll"`
	ReceiptAddress string       `json:"receipt_address"`
}

type ListPollsResponse struct {
	Items []PollResponse `json:"items"`
}

type ResultsResponse struct {
	PollID     string           `json:"poll_id"`
	Options    []OptionResponse `json:"options"`
	TotalVotes uint64           `json:"total_votes"`
	LeadingIDs []int            `json:"leading_option_ids"`
}

type ReceiptStatusResponse struct {
	PollID         string `json:"poll_id"`
	VoterID        string `json:"voter_id"`
	Voted          bool   `json:"voted"`
	ReceiptAddress string `json:"receipt_address,omitempty"`
}
