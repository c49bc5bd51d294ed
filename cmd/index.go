package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/indexer"
)

var flagWorkers int

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a codebase for retrieval",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}

		app, err := newApp(target)
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Printf("Indexing %s (session %s)\n", app.root, app.session)
		start := time.Now()

		task, err := app.service.Submit(cmd.Context(), app.session, app.root)
		if err != nil {
			return err
		}

		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
	progress:
		for {
			select {
			case <-task.Done():
				break progress
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-ticker.C:
				fmt.Printf("\r%s", progressLine(task.Snapshot()))
			}
		}

		snap := task.Snapshot()
		fmt.Printf("\r%s\n", progressLine(snap))
		if snap.Status == indexer.StatusFailed {
			return fmt.Errorf("indexing failed: %s", snap.Error)
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Files: %d seen, %d indexed, %d skipped, %d failed\n",
			snap.Stats.FilesSeen, snap.Stats.FilesIndexed, snap.Stats.FilesSkipped, snap.Stats.FilesFailed)
		fmt.Printf("  Units: %d\n", snap.Stats.Units)
		return nil
	},
}

func progressLine(snap indexer.Snapshot) string {
	return fmt.Sprintf("  %d files seen, %d indexed, %d skipped, %d failed",
		snap.Stats.FilesSeen, snap.Stats.FilesIndexed, snap.Stats.FilesSkipped, snap.Stats.FilesFailed)
}

func init() {
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: number of CPUs)")
	rootCmd.AddCommand(indexCmd)
}
