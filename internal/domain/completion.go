package domain

import "context"

// Role is the author of a chat message.
type Role string

// Chat roles understood by every completion provider.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry of the conversation sent to a completion provider.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is an ordered message history plus sampling controls.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// CompletionResult is the generated text with token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Completer generates text from a message history.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
