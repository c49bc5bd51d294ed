package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about your codebase interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(".")
		if err != nil {
			return err
		}
		defer app.Close()

		scanner := bufio.NewScanner(os.Stdin)

		fmt.Printf("cortex chat, session %s (type /help for commands, /exit to quit)\n", app.session)
		fmt.Println()

		for {
			fmt.Print(promptStyle.Render("> "))
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				if quit := runChatCommand(cmd.Context(), app, line); quit {
					return nil
				}
				continue
			}

			fmt.Println(dimStyle.Render("[thinking...]"))

			ans, err := app.engine.Answer(cmd.Context(), app.session, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error: %v", err)))
				continue
			}

			fmt.Println()
			fmt.Println(renderMarkdown(ans.Text))
			if ans.Grounded {
				fmt.Println()
				fmt.Println(dimStyle.Render(sourcesFooter(ans)))
			}
			fmt.Println()
		}

		return scanner.Err()
	},
}

// runChatCommand handles slash commands. Returns true when the loop should
// end.
func runChatCommand(ctx context.Context, a *app, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		fmt.Println("Goodbye.")
		return true
	case "/clear":
		if err := a.window.Clear(ctx, a.session); err != nil {
			fmt.Fprintf(os.Stderr, "clear failed: %v\n", err)
			return false
		}
		fmt.Println("Conversation cleared.")
	case "/index":
		target := a.root
		if len(fields) > 1 {
			target = fields[1]
		}
		task, err := a.service.Submit(ctx, a.session, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "index failed: %v\n", err)
			return false
		}
		fmt.Printf("Indexing %s in the background (task %s). Keep asking; /status shows progress.\n",
			target, task.ID)
	case "/status":
		printStatus(ctx, a)
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /index [path] - index the project in the background")
		fmt.Println("  /status       - show what is indexed")
		fmt.Println("  /clear        - clear conversation history")
		fmt.Println("  /exit         - quit chat")
		fmt.Println("  /help         - show this help")
	default:
		fmt.Printf("Unknown command %s. Try /help.\n", fields[0])
	}
	return false
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
