package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/types"
	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingProvider is an interface for generating embeddings from text
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GetEmbeddingModelName() string
}

const (
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "text-embedding-3-small"
)

// OpenAIConfig holds configuration for the OpenAI embedding service
type OpenAIConfig struct {
	APIKey     string
	Endpoint   string // e.g. https://api.openai.com/v1
	ModelName  string
	Dimensions int // 0 leaves the model default
	Timeout    time.Duration
	Logger     *log.Logger
}

func NewOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Endpoint:  DefaultOpenAIEndpoint,
		ModelName: DefaultOpenAIModel,
		Timeout:   30 * time.Second,
	}
}

func (c OpenAIConfig) WithAPIKey(apiKey string) OpenAIConfig {
	c.APIKey = apiKey
	return c
}
func (c OpenAIConfig) WithEndpoint(endpoint string) OpenAIConfig {
	c.Endpoint = endpoint
	return c
}
func (c OpenAIConfig) WithModelName(modelName string) OpenAIConfig {
	c.ModelName = modelName
	return c
}
func (c OpenAIConfig) WithDimensions(dimensions int) OpenAIConfig {
	c.Dimensions = dimensions
	return c
}
func (c OpenAIConfig) WithTimeout(timeout time.Duration) OpenAIConfig {
	c.Timeout = timeout
	return c
}
func (c OpenAIConfig) WithLogger(logger *log.Logger) OpenAIConfig {
	c.Logger = logger
	return c
}

func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("openai endpoint is required")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("dimensions must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// bodyFieldsDoer adds fixed top-level fields to JSON request bodies before
// sending them. go-openai has no field for the embeddings truncate option.
type bodyFieldsDoer struct {
	client *http.Client
	fields map[string]any
}

func (d bodyFieldsDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return d.client.Do(req)
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	for key, value := range d.fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		payload[key] = raw
	}
	if body, err = json.Marshal(payload); err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return d.client.Do(req)
}

// OpenAIEmbeddingProvider implements EmbeddingProvider using an OpenAI-compatible API.
// Each call issues exactly one request.
type OpenAIEmbeddingProvider struct {
	config OpenAIConfig
	client *openai.Client
	logger *log.Logger
}

func NewOpenAIEmbeddingProvider(config OpenAIConfig) (*OpenAIEmbeddingProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg := openai.DefaultConfig(config.APIKey)
	cfg.BaseURL = config.Endpoint
	cfg.HTTPClient = bodyFieldsDoer{
		client: &http.Client{Timeout: config.Timeout},
		fields: map[string]any{"truncate": "END"},
	}
	return &OpenAIEmbeddingProvider{
		config: config,
		client: openai.NewClientWithConfig(cfg),
		logger: config.Logger,
	}, nil
}

func (p *OpenAIEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	t := time.Now()
	p.logger.Debug("Generating OpenAI embedding", "text_length", len(text), "model", p.config.ModelName, "dimensions", p.config.Dimensions)

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      text,
		Model:      openai.EmbeddingModel(p.config.ModelName),
		Dimensions: p.config.Dimensions,
	})
	if err != nil {
		return nil, providerError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &types.MalformedResponseError{Kind: types.ProviderEmbedding, Field: "embedding"}
	}

	embedding := resp.Data[0].Embedding
	p.logger.Debug("Generated OpenAI embedding", "embedding_length", len(embedding), "duration", time.Since(t))
	return embedding, nil
}

func (p *OpenAIEmbeddingProvider) GetEmbeddingModelName() string {
	return p.config.ModelName
}

// providerError converts a go-openai failure into a typed provider error when
// the server answered with a status code. Transport errors pass through.
func providerError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body, merr := json.Marshal(map[string]*openai.APIError{"error": apiErr})
		if merr != nil {
			body = []byte(apiErr.Message)
		}
		return types.EmbeddingProviderError(apiErr.HTTPStatusCode, string(body))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return types.EmbeddingProviderError(reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return err
}
