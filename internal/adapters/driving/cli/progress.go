package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
)

// progressInterval is how often queue progress is redrawn.
var progressInterval = 500 * time.Millisecond

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// drainWithProgress waits for the fetch queue to empty. On a terminal the
// queue counters are redrawn in place while waiting.
func drainWithProgress(ctx context.Context, cmd *cobra.Command, coord driving.FetchCoordinator) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Drain(ctx)
	}()

	live := isTerminal(cmd.OutOrStdout())
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case err := <-errCh:
			if live && last >= 0 {
				cmd.Println()
			}
			return err
		case <-ticker.C:
			if !live {
				continue
			}
			stats := coord.Stats()
			done := stats.Completed + stats.Failed + stats.Skipped
			if done != last {
				cmd.Printf("\rFetching... %d done, %d pending", done, stats.Pending)
				last = done
			}
		}
	}
}
