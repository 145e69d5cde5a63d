package notify

import (
	"fmt"
	"io"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
)

// New returns the notifier for the configured channel.
// Console output goes to out.
func New(settings domain.NotificationSettings, out io.Writer) (driven.Notifier, error) {
	switch settings.Channel {
	case domain.NotificationChannelEmail:
		n, err := NewEmailNotifier(settings.SMTP)
		if err != nil {
			return nil, fmt.Errorf("email notifications: %w", err)
		}
		return n, nil
	case domain.NotificationChannelLog, "":
		return NewConsoleNotifier(out), nil
	default:
		return nil, fmt.Errorf("%w: notification channel %q", domain.ErrInvalidInput, settings.Channel)
	}
}
