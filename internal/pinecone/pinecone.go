// Package pinecone is a minimal client for the Pinecone data plane query endpoint.
package pinecone

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
	"github.com/lox/pinecone-search/internal/types"
)

const DefaultAPIVersion = "2024-10"

// VectorIndex finds the stored vectors most similar to a query vector
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) (types.MatchSet, error)
}

// Config holds configuration for a Pinecone index
type Config struct {
	HostURL    string // e.g. https://my-index-abc123.svc.us-east-1.pinecone.io
	APIKey     string
	APIVersion string
	Timeout    time.Duration
	Logger     *log.Logger
}

func NewConfig() Config {
	return Config{
		APIVersion: DefaultAPIVersion,
		Timeout:    30 * time.Second,
	}
}

func (c Config) WithHostURL(hostURL string) Config {
	c.HostURL = hostURL
	return c
}
func (c Config) WithAPIKey(apiKey string) Config {
	c.APIKey = apiKey
	return c
}
func (c Config) WithAPIVersion(version string) Config {
	c.APIVersion = version
	return c
}
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) Validate() error {
	if c.HostURL == "" {
		return fmt.Errorf("pinecone index host url is required")
	}
	if _, err := url.Parse(c.HostURL); err != nil {
		return fmt.Errorf("invalid pinecone index host url: %w", err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("pinecone api key is required")
	}
	if c.APIVersion == "" {
		return fmt.Errorf("pinecone api version is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeValues   bool      `json:"includeValues"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches   types.MatchSet `json:"matches"`
	Namespace string         `json:"namespace"`
}

// Client queries a single Pinecone index over HTTP
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}, nil
}

// Query returns up to topK matches for vector, best first. An index with no
// matches yields an empty MatchSet and a nil error.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, namespace string) (types.MatchSet, error) {
	jsonBody, err := json.Marshal(queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeValues:   false,
		IncludeMetadata: true,
		Namespace:       namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	baseURL, err := url.Parse(c.config.HostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}
	queryURL := baseURL.JoinPath("query")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL.String(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-API-Version", c.config.APIVersion)

	t := time.Now()
	c.logger.Debug("Querying Pinecone", "url", queryURL.String(), "top_k", topK, "namespace", namespace, "dimensions", len(vector))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.SearchProviderError(resp.StatusCode, string(body))
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Debug("Failed to unmarshal query response", "body", string(body), "error", err)
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug("Pinecone query completed", "matches", len(result.Matches), "duration", time.Since(t))
	return result.Matches, nil
}
