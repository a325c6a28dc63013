package mail

import (
	"context"
	"log/slog"
)

// LogSender writes mail to the log instead of delivering it. It is the
// development fallback when no SMTP relay is configured; the confirmation
// code ends up in the log output where a developer can copy it.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.Logger.Info("outbound email (no SMTP relay configured)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", htmlBody),
	)
	return nil
}
