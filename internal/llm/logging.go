package llm

import (
	"context"
	"log/slog"
	"time"
)

// RequestEvent describes one provider call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	At           time.Time
}

// UsageRecorder persists request events.
type UsageRecorder interface {
	RecordLLMRequest(ctx context.Context, ev RequestEvent) error
}

// LoggingProvider logs every call and hands it to an optional recorder.
type LoggingProvider struct {
	inner    Provider
	provider string
	logger   *slog.Logger
	recorder UsageRecorder
}

// WithLogging wraps p. recorder may be nil.
func WithLogging(p Provider, provider string, logger *slog.Logger, recorder UsageRecorder) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: provider, logger: logger, recorder: recorder}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		At:        start,
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		l.logger.Warn("llm request failed",
			"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
			"latency_ms", ev.LatencyMs, "error", err)
	} else {
		l.logger.Info("llm request",
			"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
			"latency_ms", ev.LatencyMs, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)
	}

	if l.recorder != nil {
		if recErr := l.recorder.RecordLLMRequest(ctx, ev); recErr != nil {
			l.logger.Warn("record llm request failed", "error", recErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
