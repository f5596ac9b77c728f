package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/rerank"
)

// RerankConfig contains flag definitions for the Cohere reranker
type RerankConfig struct {
	// CohereAPIKey is the API key for Cohere, required when reranking
	CohereAPIKey string `help:"Cohere API key" env:"COHERE_API_KEY"`
	// CohereRerankModel is the rerank model name
	CohereRerankModel string `help:"Cohere rerank model" default:"rerank-v3.5" env:"COHERE_RERANK_MODEL"`
	// CohereTopN is the number of reranked results to return
	CohereTopN int `help:"Number of reranked results to return" default:"5" env:"COHERE_TOP_N"`
	// CohereMaxTokensPerDoc truncates long documents before reranking
	CohereMaxTokensPerDoc int `help:"Maximum tokens per document sent to Cohere" default:"4096" env:"COHERE_MAX_TOKENS_PER_DOC"`
}

// SetupReranker returns a Cohere reranker, or nil when reranking is disabled
func SetupReranker(enabled bool, config RerankConfig, logger *log.Logger) (rerank.Reranker, error) {
	if !enabled {
		return nil, nil
	}
	if config.CohereAPIKey == "" {
		return nil, fmt.Errorf("cohere api key is required when reranking is enabled")
	}

	cohereConfig := rerank.NewCohereConfig().
		WithAPIKey(config.CohereAPIKey).
		WithLogger(logger)
	if config.CohereRerankModel != "" {
		cohereConfig = cohereConfig.WithModel(config.CohereRerankModel)
	}
	if config.CohereTopN != 0 {
		cohereConfig = cohereConfig.WithTopN(config.CohereTopN)
	}
	if config.CohereMaxTokensPerDoc != 0 {
		cohereConfig = cohereConfig.WithMaxTokensPerDoc(config.CohereMaxTokensPerDoc)
	}

	reranker, err := rerank.NewCohereReranker(cohereConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cohere reranker: %w", err)
	}
	logger.Info("Using Cohere for reranking", "model", cohereConfig.Model, "top_n", cohereConfig.TopN)

	return reranker, nil
}
