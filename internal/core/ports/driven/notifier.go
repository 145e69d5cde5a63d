package driven

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// Notifier delivers user-facing notifications.
type Notifier interface {
	// Notify delivers a single notification.
	Notify(ctx context.Context, n domain.Notification) error
}
