package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/indexer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is indexed for this project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(".")
		if err != nil {
			return err
		}
		defer app.Close()

		printStatus(cmd.Context(), app)
		return nil
	},
}

// printStatus reports the namespace's vector count plus, when a task ran in
// this process, its progress.
func printStatus(ctx context.Context, a *app) {
	count, err := a.index.Count(ctx, a.session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		return
	}
	fmt.Printf("Session %s: %d units indexed.\n", a.session, count)

	snap, ok := a.service.Status(a.session)
	if !ok {
		return
	}
	switch snap.Status {
	case indexer.StatusIndexing:
		fmt.Printf("Indexing in progress: %d files seen, %d indexed, %d failed.\n",
			snap.Stats.FilesSeen, snap.Stats.FilesIndexed, snap.Stats.FilesFailed)
	case indexer.StatusReady:
		fmt.Printf("Last run indexed %d files (%d units) in %s.\n",
			snap.Stats.FilesIndexed, snap.Stats.Units,
			snap.Finished.Sub(snap.Started).Round(time.Millisecond))
	case indexer.StatusFailed:
		fmt.Printf("Last run failed: %s\n", snap.Error)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
