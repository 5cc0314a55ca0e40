package commands

import (
	"encoding/json"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	"strawpoll/contexts/polling/poll-engine/ports"
	contractsv1 "strawpoll/contracts/gen/events/v1"
)

const (
	EventPollCreated = contractsv1.EventTypePollCreated
	EventVoteCast    = contractsv1.EventTypeVoteCast
)

func newPollEnvelope(
	eventID string,
	eventType string,
	pollID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	// Partitioned by poll so consumers see a poll's votes in commit order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "poll-engine",
		TraceID:          eventID,
		SchemaVersion:    contractsv1.SchemaVersion,
		PartitionKeyPath: "poll_id",
		PartitionKey:     pollID,
		Data:             payload,
	}
	if err := envelope.Validate(); err != nil {
		return ports.EventEnvelope{}, err
	}
	return envelope, nil
}

func pollCreatedPayload(poll entities.Poll, occurredAt time.Time) contractsv1.PollCreated {
	return contractsv1.PollCreated{
		PollID:     poll.PollID,
		OwnerID:    poll.OwnerID,
		Options:    optionsPayload(poll.Options),
		OccurredAt: occurredAt.UTC().Format(time.RFC3339),
	}
}

func voteCastPayload(poll entities.Poll, receipt entities.VoteReceipt, optionID uint8, occurredAt time.Time) contractsv1.VoteCast {
	return contractsv1.VoteCast{
		PollID:         poll.PollID,
		OwnerID:        poll.OwnerID,
		VoterID:        receipt.VoterID,
		OptionID:       optionID,
		ReceiptAddress: receipt.Address,
		Options:        optionsPayload(poll.Options),
		OccurredAt:     occurredAt.UTC().Format(time.RFC3339),
	}
}

func optionsPayload(options []entities.Option) []contractsv1.PollOption {
	items := make([]contractsv1.PollOption, 0, len(options))
	for _, option := range options {
		items = append(items, contractsv1.PollOption{
			ID:    option.ID,
			Label: option.Label,
			Votes: option.Votes,
		})
	}
	return items
}
