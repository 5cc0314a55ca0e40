package v1

const (
	EventTypePollCreated = "poll.created"
	EventTypeVoteCast    = "vote.cast"
)

type PollOption struct {
	ID    uint8  `json:"id"`
	Label string `json:"label"`
	Votes uint32 `json:"votes"`
}

// PollCreated is the payload of EventTypePollCreated.
type PollCreated struct {
	PollID     string       `json:"poll_id"`
	OwnerID    string       `json:"owner_id"`
	Options    []PollOption `json:"options"`
	OccurredAt string       `json:"occurred_at"`
}

// VoteCast is the payload of EventTypeVoteCast. Options carries the counters
// after the vote was applied.
type VoteCast struct {
	PollID         string       `json:"poll_id"`
	OwnerID        string       `json:"owner_id"`
	VoterID        string       `json:"voter_id"`
	OptionID       uint8        `json:"option_id"`
	ReceiptAddress string       `json:"receipt_address"`
	Options        []PollOption `json:"options"`
	OccurredAt     string       `json:"occurred_at"`
}
