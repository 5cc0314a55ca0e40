package postgresadapter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSystemClockIsMicrosecondUTC(t *testing.T) {
	now := SystemClock{}.Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
	if now.Nanosecond()%int(time.Microsecond) != 0 {
		t.Fatalf("expected microsecond precision, got %d ns", now.Nanosecond())
	}
}

func TestUUIDGeneratorEmitsVersion7(t *testing.T) {
	raw, err := UUIDGenerator{}.NewID(context.Background())
	if err != nil {
		t.Fatalf("new id failed: %v", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("expected v7 uuid, got v%d", id.Version())
	}
}
