package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
)

var _ driven.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier prints notifications as they arrive.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, now: time.Now}
}

// Notify writes "[15:04:05] Title: Body".
func (n *ConsoleNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	line := fmt.Sprintf("[%s] %s: %s", n.now().Format(time.TimeOnly), note.Title, note.Body)
	if authors := note.Metadata[domain.MetaCitingAuthors]; authors != "" {
		line += " (" + authors + ")"
	}
	if _, err := fmt.Fprintln(n.out, line); err != nil {
		return fmt.Errorf("writing notification %s: %w", note.ID, err)
	}
	return nil
}
