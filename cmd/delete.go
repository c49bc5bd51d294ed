package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagYes       bool
	flagDeleteAll bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the indexed data and history for this project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(".")
		if err != nil {
			return err
		}
		defer app.Close()

		what := fmt.Sprintf("all indexed data and history for session %s", app.session)
		if flagDeleteAll {
			what = "the entire index, every session included"
		}
		if !flagYes && !confirm(fmt.Sprintf("Delete %s?", what)) {
			fmt.Println("Aborted.")
			return nil
		}

		if flagDeleteAll {
			if err := app.index.DeleteIndex(cmd.Context()); err != nil {
				return err
			}
			if err := app.window.Clear(cmd.Context(), app.session); err != nil {
				return err
			}
			app.service.Forget(app.session)
			fmt.Println("Deleted the entire index.")
			return nil
		}

		if err := app.engine.DeleteCodebase(cmd.Context(), app.session); err != nil {
			return err
		}
		app.service.Forget(app.session)
		fmt.Printf("Deleted session %s.\n", app.session)
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "y")
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip confirmation")
	deleteCmd.Flags().BoolVar(&flagDeleteAll, "all", false, "delete every namespace, not just this session")
	rootCmd.AddCommand(deleteCmd)
}
