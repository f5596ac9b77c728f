package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/embeddings"
	"github.com/lox/pinecone-search/internal/pinecone"
	"github.com/lox/pinecone-search/internal/relevance"
	"github.com/lox/pinecone-search/internal/rerank"
	"github.com/lox/pinecone-search/internal/types"
)

const (
	// NoMatchesMessage is returned to the caller in place of results when the index has no matches
	NoMatchesMessage = "No matching results found in Pinecone."

	defaultTopK = 5
)

// ErrRerankerRequired is returned when reranking is requested without a reranker
var ErrRerankerRequired = errors.New("reranking is enabled but no reranker is configured")

// searchOptions defines options for a single query
type searchOptions struct {
	topK      int
	namespace string
	metric    types.SimilarityMetric
	fields    []string
	rerank    bool
}

// SearchOption is a function that modifies searchOptions
type SearchOption func(*searchOptions)

// WithTopK sets the number of matches requested from the index. Values below
// one fall back to the default of 5.
func WithTopK(topK int) SearchOption {
	return func(opts *searchOptions) {
		opts.topK = topK
	}
}

// WithNamespace restricts the query to a namespace of the index
func WithNamespace(namespace string) SearchOption {
	return func(opts *searchOptions) {
		opts.namespace = namespace
	}
}

// WithMetric sets the similarity metric the index was built with
func WithMetric(metric types.SimilarityMetric) SearchOption {
	return func(opts *searchOptions) {
		opts.metric = metric
	}
}

// WithMetadataFields restricts result metadata to the given fields. Nil keeps all metadata.
func WithMetadataFields(fields []string) SearchOption {
	return func(opts *searchOptions) {
		opts.fields = fields
	}
}

// WithRerank enables or disables reranking of matches
func WithRerank(enabled bool) SearchOption {
	return func(opts *searchOptions) {
		opts.rerank = enabled
	}
}

// Query embeds query, searches the index with the embedding and either reranks
// or normalizes the matches. The stages run one after another, and any failure
// aborts the query.
func Query(
	ctx context.Context,
	logger *log.Logger,
	embeddingProvider embeddings.EmbeddingProvider,
	index pinecone.VectorIndex,
	reranker rerank.Reranker,
	query string,
	opts ...SearchOption,
) (types.SearchResults, error) {
	results, err := runQuery(ctx, logger, embeddingProvider, index, reranker, query, opts...)
	if err != nil {
		logger.Error("Error querying Pinecone", "query", query, "error", err)
		return types.SearchResults{}, fmt.Errorf("failed to query Pinecone: %w", err)
	}
	return results, nil
}

func runQuery(
	ctx context.Context,
	logger *log.Logger,
	embeddingProvider embeddings.EmbeddingProvider,
	index pinecone.VectorIndex,
	reranker rerank.Reranker,
	query string,
	opts ...SearchOption,
) (types.SearchResults, error) {
	options := searchOptions{
		topK:   defaultTopK,
		metric: types.MetricCosine,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.topK <= 0 {
		options.topK = defaultTopK
	}
	if options.rerank && reranker == nil {
		return types.SearchResults{}, ErrRerankerRequired
	}

	logger.Info("Performing vector search",
		"query", query,
		"top_k", options.topK,
		"namespace", options.namespace,
		"metric", options.metric,
		"rerank", options.rerank)
	startTime := time.Now()

	embedding, err := embeddingProvider.GenerateEmbedding(ctx, query)
	if err != nil {
		logger.Error("Error vectorizing query", "model", embeddingProvider.GetEmbeddingModelName(), "error", err)
		return types.SearchResults{}, fmt.Errorf("failed to vectorize query: %w", err)
	}

	matches, err := index.Query(ctx, embedding, options.topK, options.namespace)
	if err != nil {
		return types.SearchResults{}, err
	}

	if len(matches) == 0 {
		logger.Info("No matching results found", "duration", time.Since(startTime))
		return types.SearchResults{Results: []types.RelevanceResult{}}, nil
	}

	if options.rerank {
		results, err := reranker.Rerank(ctx, query, matches, options.fields)
		if err != nil {
			logger.Error("Error reranking with Cohere", "error", err)
			return types.SearchResults{}, fmt.Errorf("failed to rerank with Cohere: %w", err)
		}
		logger.Info("Vector search completed",
			"matches", len(matches),
			"results", len(results),
			"reranked", true,
			"duration", time.Since(startTime))
		return types.SearchResults{Results: results, Reranked: true}, nil
	}

	results := Normalize(matches, options.metric, options.fields)
	logger.Info("Vector search completed",
		"matches", len(matches),
		"results", len(results),
		"reranked", false,
		"duration", time.Since(startTime))
	return types.SearchResults{Results: results}, nil
}

// Normalize converts every match to a result with a normalized relevance,
// keeping the index order. matches must not be empty.
func Normalize(matches types.MatchSet, metric types.SimilarityMetric, fields []string) []types.RelevanceResult {
	results := make([]types.RelevanceResult, len(matches))
	for i, match := range matches {
		results[i] = types.RelevanceResult{
			Relevance: relevance.Normalize(match.Score, metric, matches),
			Metadata:  types.ProjectMetadata(match.Metadata, fields),
		}
	}
	return results
}

// Render formats results for the caller: NoMatchesMessage when the index had no
// matches, otherwise an indented JSON array of relevance and metadata records.
func Render(results types.SearchResults) (string, error) {
	if results.Empty() && !results.Reranked {
		return NoMatchesMessage, nil
	}
	out, err := json.MarshalIndent(results.Results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(out), nil
}
