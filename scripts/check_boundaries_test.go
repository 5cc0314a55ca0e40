package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestDomainAllowsKeccakButNotAdapters(t *testing.T) {
	dir := t.TempDir()
	prefix := "strawpoll/contexts/polling/poll-engine"

	ok := writeSource(t, dir, "ok.go", `package entities
import (
	"strings"
	"github.com/ethereum/go-ethereum/crypto"
	"strawpoll/contexts/polling/poll-engine/domain/errors"
)
`)
	if got := validateFile(ok, "ok.go", "domain", prefix); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}

	bad := writeSource(t, dir, "bad.go", `package entities
import (
	"gorm.io/gorm"
	"strawpoll/contexts/polling/poll-engine/adapters/memory"
	"strawpoll/internal/platform/db"
)
`)
	if got := validateFile(bad, "bad.go", "domain", prefix); len(got) < 3 {
		t.Fatalf("expected violations for orm, adapter and platform imports, got %+v", got)
	}
}

func TestApplicationRejectsCrossModuleImports(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "app.go", `package commands
import (
	"strawpoll/contexts/polling/other-engine/ports"
	"strawpoll/contexts/polling/poll-engine/ports"
	"strawpoll/contracts/gen/events/v1"
)
`)
	got := validateFile(path, "app.go", "application", "strawpoll/contexts/polling/poll-engine")
	if len(got) == 0 {
		t.Fatalf("expected cross-module violation")
	}
	for _, v := range got {
		if v.Import != "strawpoll/contexts/polling/other-engine/ports" {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
}

func TestPortsMayNotImportThirdParty(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "ports.go", `package ports
import "github.com/google/uuid"
`)
	if got := validateFile(path, "ports.go", "ports", "strawpoll/contexts/polling/poll-engine"); len(got) != 1 {
		t.Fatalf("expected one violation, got %+v", got)
	}
}

func TestAdaptersMayUseThirdPartyButNotPlatform(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "repo.go", `package postgres
import (
	"gorm.io/gorm"
	"strawpoll/contexts/polling/poll-engine/ports"
	"strawpoll/internal/platform/db"
)
`)
	got := validateFile(path, "repo.go", "adapters", "strawpoll/contexts/polling/poll-engine")
	if len(got) != 1 || got[0].Import != "strawpoll/internal/platform/db" {
		t.Fatalf("expected only the platform import to be flagged, got %+v", got)
	}
}

func TestCollectViolationsWalksContextTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "contexts")
	layerDir := filepath.Join(root, "polling", "poll-engine", "domain", "entities")
	if err := os.MkdirAll(layerDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, layerDir, "poll.go", `package entities
import "github.com/google/uuid"
`)
	writeSource(t, layerDir, "poll_test.go", `package entities
import "gorm.io/gorm"
`)

	got := collectViolations(root)
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %+v", got)
	}
	if got[0].File != "contexts/polling/poll-engine/domain/entities/poll.go" {
		t.Fatalf("unexpected file %q", got[0].File)
	}
}
