package v1

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEnvelopeValidate(t *testing.T) {
	valid := Envelope{
		EventID:       "event-1",
		EventType:     EventTypeVoteCast,
		SchemaVersion: SchemaVersion,
		Data:          json.RawMessage(`{"poll_id":"poll-1"}`),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid envelope, got %v", err)
	}

	cases := map[string]func(Envelope) Envelope{
		"missing id":      func(e Envelope) Envelope { e.EventID = " "; return e },
		"missing type":    func(e Envelope) Envelope { e.EventType = ""; return e },
		"missing version": func(e Envelope) Envelope { e.SchemaVersion = 0; return e },
		"empty data":      func(e Envelope) Envelope { e.Data = nil; return e },
		"broken data":     func(e Envelope) Envelope { e.Data = json.RawMessage(`{"poll_id"`); return e },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			if err := mutate(valid).Validate(); !errors.Is(err, ErrInvalidEnvelope) {
				t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
			}
		})
	}
}

func TestEnvelopeDecodeData(t *testing.T) {
	envelope := Envelope{
		EventType: EventTypeVoteCast,
		Data:      json.RawMessage(`{"poll_id":"poll-1","voter_id":"alice","option_id":2,"options":[{"id":2,"label":"B","votes":1}]}`),
	}
	var payload VoteCast
	if err := envelope.DecodeData(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.VoterID != "alice" || payload.OptionID != 2 || payload.Options[0].Votes != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
