package rag

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cortex/internal/history"
	"cortex/internal/vectordb"
)

const systemPrompt = `You are a code assistant answering questions about the user's codebase. Ground every answer in the source files provided below. Reference function and class names and their file paths when you explain behavior. Do not invent code that is not in the context. If the provided code does not answer the question, say so instead of guessing.`

// buildGrounding renders the numbered match list and the full text of each
// matched file. Files are deduplicated by content, so two matches from the
// same file (or identical files at different paths) include it once. Returns
// the prompt section and the list of file paths that made it in.
func (e *Engine) buildGrounding(matches []vectordb.Match) (string, []string) {
	var b strings.Builder
	b.WriteString("Retrieved code units, best match first:\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s (%s) in %s, relevance %.1f%%\n",
			i+1, m.ID, m.Metadata.Kind, m.Metadata.FilePath, m.Score*100)
	}

	seen := make(map[string]bool)
	var files []string
	for _, m := range matches {
		text, err := e.sources.Read(m.Metadata.FilePath)
		if err != nil {
			e.log.Warn("matched file not readable",
				zap.String("file", m.Metadata.FilePath), zap.Error(err))
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true
		files = append(files, m.Metadata.FilePath)
		fmt.Fprintf(&b, "\n// File: %s\n%s\n", m.Metadata.FilePath, text)
	}
	return b.String(), files
}

// buildSystemPrompt combines the standing instruction, the grounding context
// and the session's conversation so far. History entries arrive most recent
// first and are reversed here, so the transcript reads top to bottom.
func buildSystemPrompt(grounding string, entries []string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(grounding)

	var turns []string
	for i := len(entries) - 1; i >= 0; i-- {
		if history.IsPlaceholder(entries[i]) {
			continue
		}
		turns = append(turns, entries[i])
	}
	if len(turns) > 0 {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(strings.Join(turns, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
