package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"cortex/internal/rag"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// renderMarkdown pretty-prints the model's answer for the terminal. On any
// renderer trouble the raw text comes back unchanged.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func sourcesFooter(ans *rag.Answer) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, m := range ans.Matches {
		fmt.Fprintf(&b, "  %d. %s (%s) in %s, %.1f%%\n",
			i+1, m.ID, m.Metadata.Kind, m.Metadata.FilePath, m.Score*100)
	}
	return strings.TrimRight(b.String(), "\n")
}
