package domain

// KeyPrefix namespaces every key this service writes to a shared key-value store.
const KeyPrefix = "moe:"

// ModelConfig holds provider model defaults, not exposed to clients.
type ModelConfig struct {
	EmbeddingModel  string
	CompletionModel string
	Temperature     float64
	MaxTokens       int
}

// DefaultModelConfig returns the defaults used when configuration leaves models unset.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		EmbeddingModel:  "text-embedding-3-small",
		CompletionModel: "gpt-4.1-2025-04-14",
		Temperature:     0.7,
		MaxTokens:       1000,
	}
}
