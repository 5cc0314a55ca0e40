package application

import "log/slog"

// ModuleName tags every log line emitted by the poll engine.
const ModuleName = "polling/poll-engine"

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LayerLogger scopes logger to the poll engine and one of its layers
// ("application", "worker", "transport").
func LayerLogger(logger *slog.Logger, layer string) *slog.Logger {
	return ResolveLogger(logger).With("module", ModuleName, "layer", layer)
}
