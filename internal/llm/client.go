package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	// JSONMode asks the provider to constrain output to a single JSON object.
	JSONMode bool
}

type Response struct {
	Text         string
	Usage        TokenUsage
	FinishReason string
}

// Client is the minimal capability the extractor needs from a text-generation provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
