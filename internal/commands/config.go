package commands

import (
	"github.com/lox/pinecone-search/internal/search"
	"github.com/lox/pinecone-search/internal/types"
)

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
}

// PineconeConfig contains flag definitions for the Pinecone index
type PineconeConfig struct {
	// PineconeAPIKey is the API key for the Pinecone project
	PineconeAPIKey string `help:"Pinecone API key" env:"PINECONE_API_KEY" required:""`
	// PineconeIndexHostURL is the data plane host of the index
	PineconeIndexHostURL string `help:"Pinecone index host URL" env:"PINECONE_INDEX_HOST_URL" required:""`
	// PineconeAPIVersion is sent as X-Pinecone-API-Version
	PineconeAPIVersion string `help:"Pinecone API version" default:"2024-10" env:"PINECONE_API_VERSION"`
	// Namespace is the index namespace to query
	Namespace string `help:"Pinecone namespace to query" env:"PINECONE_NAMESPACE"`
	// TopK is the number of matches to request
	TopK int `help:"Number of matches to request from Pinecone" default:"5" env:"TOP_K"`
}

// RelevanceConfig contains flag definitions for scoring and presenting matches
type RelevanceConfig struct {
	// EnableRerank reranks matches with Cohere instead of normalizing scores
	EnableRerank bool `help:"Rerank matches with Cohere instead of normalizing scores" default:"false" env:"ENABLE_RERANK"`
	// SimilarityMetric is the metric the index was created with
	SimilarityMetric string `help:"Similarity metric of the index (cosine, euclidean, dotproduct, other)" default:"cosine" env:"SIMILARITY_METRIC"`
	// MetadataFields restricts returned metadata
	MetadataFields string `help:"Comma separated metadata fields to return (default: all)" env:"METADATA_FIELDS"`
}

// SearchOptions maps the configuration onto search options
func SearchOptions(pc PineconeConfig, rc RelevanceConfig) []search.SearchOption {
	return []search.SearchOption{
		search.WithTopK(pc.TopK),
		search.WithNamespace(pc.Namespace),
		search.WithRerank(rc.EnableRerank),
		search.WithMetric(types.SimilarityMetric(rc.SimilarityMetric)),
		search.WithMetadataFields(types.ParseMetadataFields(rc.MetadataFields)),
	}
}
