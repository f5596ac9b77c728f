package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/embeddings"
)

// EmbeddingConfig contains common flag definitions for embedding configuration
type EmbeddingConfig struct {
	// OpenAIAPIKey is the API key for OpenAI
	OpenAIAPIKey string `help:"OpenAI API key" env:"OPENAI_API_KEY" required:""`
	// OpenAIEmbeddingModel is the embedding model name
	OpenAIEmbeddingModel string `help:"OpenAI embedding model" default:"text-embedding-3-small" env:"OPENAI_EMBEDDING_MODEL"`
	// OpenAIEndpoint allows an OpenAI-compatible API to be used
	OpenAIEndpoint string `help:"OpenAI-compatible API endpoint" default:"https://api.openai.com/v1" env:"OPENAI_ENDPOINT"`
	// EmbeddingDimensions is the output size requested from the model, 0 for the model default
	EmbeddingDimensions int `help:"Embedding dimensions to request (0 for the model default)" default:"0" env:"EMBEDDING_DIMENSIONS"`
}

// SetupEmbeddingProvider initializes and returns an embedding provider based on the config
func SetupEmbeddingProvider(config EmbeddingConfig, logger *log.Logger) (embeddings.EmbeddingProvider, error) {
	if config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	openaiConfig := embeddings.NewOpenAIConfig().
		WithAPIKey(config.OpenAIAPIKey).
		WithDimensions(config.EmbeddingDimensions).
		WithLogger(logger)
	if config.OpenAIEmbeddingModel != "" {
		openaiConfig = openaiConfig.WithModelName(config.OpenAIEmbeddingModel)
	}
	if config.OpenAIEndpoint != "" {
		openaiConfig = openaiConfig.WithEndpoint(config.OpenAIEndpoint)
	}

	embeddingProvider, err := embeddings.NewOpenAIEmbeddingProvider(openaiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI embedding provider: %w", err)
	}
	logger.Info("Using OpenAI for embeddings", "model", openaiConfig.ModelName, "endpoint", openaiConfig.Endpoint, "dimensions", openaiConfig.Dimensions)

	return embeddingProvider, nil
}
