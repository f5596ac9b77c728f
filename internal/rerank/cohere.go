// Package rerank reorders vector search matches with a cross-encoder.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/relevance"
	"github.com/lox/pinecone-search/internal/types"
)

const (
	DefaultCohereEndpoint = "https://api.cohere.com/v2"
	DefaultCohereModel    = "rerank-v3.5"
	DefaultTopN           = 5
	DefaultMaxTokens      = 4096

	clientName = "TypingMindPlugin"

	// relevancePlaces is the precision of provider relevance scores
	relevancePlaces = 2
)

// Reranker scores matches against the query that produced them and returns
// the best of them in the provider's order.
type Reranker interface {
	Rerank(ctx context.Context, query string, matches types.MatchSet, fields []string) ([]types.RelevanceResult, error)
}

// CohereConfig holds configuration for the Cohere rerank service
type CohereConfig struct {
	APIKey          string
	Endpoint        string // e.g. https://api.cohere.com/v2
	Model           string
	TopN            int
	MaxTokensPerDoc int
	Timeout         time.Duration
	Logger          *log.Logger
}

func NewCohereConfig() CohereConfig {
	return CohereConfig{
		Endpoint:        DefaultCohereEndpoint,
		Model:           DefaultCohereModel,
		TopN:            DefaultTopN,
		MaxTokensPerDoc: DefaultMaxTokens,
		Timeout:         30 * time.Second,
	}
}

func (c CohereConfig) WithAPIKey(apiKey string) CohereConfig {
	c.APIKey = apiKey
	return c
}
func (c CohereConfig) WithEndpoint(endpoint string) CohereConfig {
	c.Endpoint = endpoint
	return c
}
func (c CohereConfig) WithModel(model string) CohereConfig {
	c.Model = model
	return c
}
func (c CohereConfig) WithTopN(topN int) CohereConfig {
	c.TopN = topN
	return c
}
func (c CohereConfig) WithMaxTokensPerDoc(maxTokens int) CohereConfig {
	c.MaxTokensPerDoc = maxTokens
	return c
}
func (c CohereConfig) WithTimeout(timeout time.Duration) CohereConfig {
	c.Timeout = timeout
	return c
}
func (c CohereConfig) WithLogger(logger *log.Logger) CohereConfig {
	c.Logger = logger
	return c
}

func (c CohereConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("cohere api key is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("cohere endpoint is required")
	}
	if c.Model == "" {
		return fmt.Errorf("rerank model is required")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top n must be greater than 0")
	}
	if c.MaxTokensPerDoc <= 0 {
		return fmt.Errorf("max tokens per doc must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

type cohereRerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	MaxTokensPerDoc int      `json:"max_tokens_per_doc"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type cohereRerankResponse struct {
	ID      string               `json:"id"`
	Results []cohereRerankResult `json:"results"`
}

// CohereReranker implements Reranker using the Cohere v2 rerank API
type CohereReranker struct {
	config     CohereConfig
	httpClient *http.Client
	logger     *log.Logger
}

func NewCohereReranker(config CohereConfig) (*CohereReranker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &CohereReranker{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}, nil
}

// Rerank sends the text metadata of each match to Cohere and maps the ranked
// results back onto the original matches, projecting metadata onto fields.
func (r *CohereReranker) Rerank(ctx context.Context, query string, matches types.MatchSet, fields []string) ([]types.RelevanceResult, error) {
	jsonBody, err := json.Marshal(cohereRerankRequest{
		Model:           r.config.Model,
		Query:           query,
		Documents:       documents(matches),
		TopN:            r.config.TopN,
		MaxTokensPerDoc: r.config.MaxTokensPerDoc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	baseURL, err := url.Parse(r.config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	rerankURL := baseURL.JoinPath("rerank")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rerankURL.String(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	req.Header.Set("X-Client-Name", clientName)

	t := time.Now()
	r.logger.Debug("Reranking with Cohere", "model", r.config.Model, "documents", len(matches), "top_n", r.config.TopN)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.RerankProviderError(resp.StatusCode, string(body))
	}

	var reranked cohereRerankResponse
	if err := json.Unmarshal(body, &reranked); err != nil {
		r.logger.Debug("Failed to unmarshal rerank response", "body", string(body), "error", err)
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if reranked.Results == nil {
		return nil, &types.MalformedResponseError{Kind: types.ProviderRerank, Field: "rerank results"}
	}

	ranked := reranked.Results
	if len(ranked) > r.config.TopN {
		ranked = ranked[:r.config.TopN]
	}

	results := make([]types.RelevanceResult, 0, len(ranked))
	for _, result := range ranked {
		if result.Index < 0 || result.Index >= len(matches) {
			return nil, &types.MalformedResponseError{
				Kind:  types.ProviderRerank,
				Field: fmt.Sprintf("document index %d", result.Index),
			}
		}
		results = append(results, types.RelevanceResult{
			Relevance: relevance.Format(result.RelevanceScore, relevancePlaces),
			Metadata:  types.ProjectMetadata(matches[result.Index].Metadata, fields),
		})
	}

	r.logger.Debug("Reranked with Cohere", "results", len(results), "duration", time.Since(t))
	return results, nil
}

// documents returns the text metadata of each match, in match order
func documents(matches types.MatchSet) []string {
	docs := make([]string, len(matches))
	for i, match := range matches {
		switch text := match.Metadata["text"].(type) {
		case nil:
		case string:
			docs[i] = text
		default:
			docs[i] = fmt.Sprint(text)
		}
	}
	return docs
}
