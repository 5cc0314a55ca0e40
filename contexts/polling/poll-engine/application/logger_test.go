package application

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLayerLoggerTagsModuleAndLayer(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	LayerLogger(base, "worker").Info("tick", "event", "outbox_tick")

	line := buf.String()
	for _, want := range []string{"module=" + ModuleName, "layer=worker", "event=outbox_tick"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestResolveLoggerFallsBackToDefault(t *testing.T) {
	if ResolveLogger(nil) != slog.Default() {
		t.Fatalf("expected slog.Default for nil logger")
	}
}
