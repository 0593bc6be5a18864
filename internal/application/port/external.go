package port

import (
	"context"

	"github.com/oakline/maintflow/internal/domain/entity"
)

// NotificationSink hands constructed notifications to the delivery channel
// (push, email, websocket). The workflow core only constructs records; a sink
// failure is logged by the caller and never unwinds the triggering transition.
type NotificationSink interface {
	Enqueue(ctx context.Context, n *entity.Notification) error
}
