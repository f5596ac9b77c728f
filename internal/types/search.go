package types

import "strings"

// Metadata is the provider-defined field mapping attached to a match
type Metadata map[string]any

// Match is a single candidate returned by the vector index
type Match struct {
	ID       string   `json:"id,omitempty"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// MatchSet is the ordered sequence of matches from one search call
type MatchSet []Match

// Scores returns the raw scores in match order
func (m MatchSet) Scores() []float64 {
	scores := make([]float64, len(m))
	for i, match := range m {
		scores[i] = match.Score
	}
	return scores
}

// SimilarityMetric describes how the index computed raw scores
type SimilarityMetric string

const (
	MetricCosine     SimilarityMetric = "cosine"
	MetricEuclidean  SimilarityMetric = "euclidean"
	MetricDotProduct SimilarityMetric = "dotproduct"
	MetricOther      SimilarityMetric = "other"
)

// Known reports whether the metric selects one of the normalization strategies
func (m SimilarityMetric) Known() bool {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDotProduct, MetricOther:
		return true
	}
	return false
}

// RelevanceResult is the record returned to the caller
type RelevanceResult struct {
	Relevance string   `json:"relevance"`
	Metadata  Metadata `json:"metadata"`
}

// SearchResults holds the outcome of a single query
type SearchResults struct {
	Results  []RelevanceResult `json:"results"`
	Reranked bool              `json:"reranked"`
}

// Empty reports whether the index returned no matches
func (r SearchResults) Empty() bool {
	return len(r.Results) == 0
}

// ParseMetadataFields splits a comma separated field list. An empty list means no filtering.
func ParseMetadataFields(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		fields = append(fields, strings.TrimSpace(part))
	}
	return fields
}

// ProjectMetadata restricts metadata to exactly the given fields, using nil for
// any that are missing. A nil field list returns the metadata unchanged.
func ProjectMetadata(md Metadata, fields []string) Metadata {
	if fields == nil {
		return md
	}
	projected := make(Metadata, len(fields))
	for _, field := range fields {
		projected[field] = md[field]
	}
	return projected
}
