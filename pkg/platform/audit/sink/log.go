package sink

import (
	"context"
	"log/slog"

	audit "pokevault/pkg/platform/audit"
)

// LogSink writes audit events as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event audit.Event) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("category", string(event.Category)),
		slog.String("action", event.Action),
		slog.String("subject", event.Subject),
		slog.String("reason", event.Reason),
		slog.String("request_id", event.RequestID),
		slog.String("client_ip", event.ClientIP),
		slog.String("device", event.Device),
		slog.Time("timestamp", event.Timestamp),
	)
	return nil
}
