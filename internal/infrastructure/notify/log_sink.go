// Package notify provides delivery channel adapters for notifications.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
)

// LogSink delivers notifications to the structured log. It stands in for a
// push channel (email, SMS) in deployments that read notifications from the
// store instead.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-backed notification sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Enqueue logs the notification
func (s *LogSink) Enqueue(ctx context.Context, n *entity.Notification) error {
	s.logger.Info("Notification delivered",
		zap.Int64("user_id", n.UserID),
		zap.String("type", n.Type),
		zap.String("title", n.Title),
		zap.String("message", n.Message))
	return nil
}

var _ port.NotificationSink = (*LogSink)(nil)
