package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about the indexed codebase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(".")
		if err != nil {
			return err
		}
		defer app.Close()

		question := strings.Join(args, " ")
		ans, err := app.engine.Answer(cmd.Context(), app.session, question)
		if err != nil {
			return err
		}

		fmt.Println(renderMarkdown(ans.Text))
		if ans.Grounded {
			fmt.Println()
			fmt.Println(dimStyle.Render(sourcesFooter(ans)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
