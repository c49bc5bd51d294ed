package llm

import "context"

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat produces an assistant completion from a system instruction and a user
// message.
type Chat interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
