package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the version stamped on every poll event envelope.
const SchemaVersion = 1

// Envelope wraps every event the poll engine publishes. Field names and
// meanings are part of the wire contract and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Validate checks the fields a consumer needs to route and deduplicate.
func (e Envelope) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEnvelope)
	case strings.TrimSpace(e.EventType) == "":
		return fmt.Errorf("%w: event_type is required", ErrInvalidEnvelope)
	case e.SchemaVersion <= 0:
		return fmt.Errorf("%w: schema_version must be positive", ErrInvalidEnvelope)
	case len(e.Data) == 0 || !json.Valid(e.Data):
		return fmt.Errorf("%w: data must be a JSON document", ErrInvalidEnvelope)
	}
	return nil
}

// DecodeData unmarshals the payload into out.
func (e Envelope) DecodeData(out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}
