package types

import "fmt"

// ProviderKind identifies which external collaborator produced an error
type ProviderKind string

const (
	ProviderEmbedding ProviderKind = "embedding"
	ProviderSearch    ProviderKind = "search"
	ProviderRerank    ProviderKind = "rerank"
)

func (k ProviderKind) provider() string {
	switch k {
	case ProviderEmbedding:
		return "OpenAI"
	case ProviderSearch:
		return "Pinecone"
	case ProviderRerank:
		return "Cohere"
	}
	return string(k)
}

// ProviderError is a non-success response from an upstream API
type ProviderError struct {
	Kind       ProviderKind
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Kind.provider(), e.StatusCode, e.Body)
}

func EmbeddingProviderError(status int, body string) *ProviderError {
	return &ProviderError{Kind: ProviderEmbedding, StatusCode: status, Body: body}
}

func SearchProviderError(status int, body string) *ProviderError {
	return &ProviderError{Kind: ProviderSearch, StatusCode: status, Body: body}
}

func RerankProviderError(status int, body string) *ProviderError {
	return &ProviderError{Kind: ProviderRerank, StatusCode: status, Body: body}
}

// MalformedResponseError is a success response missing an expected field
type MalformedResponseError struct {
	Kind  ProviderKind
	Field string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("invalid response from %s API: %s not found", e.Kind.provider(), e.Field)
}
