package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks for the embedder, index and reranker ---
type mockEmbeddingProvider struct {
	err     error
	queries []string
}

func (m *mockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.queries = append(m.queries, text)
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1.0, 2.0, 3.0}, nil
}

func (m *mockEmbeddingProvider) GetEmbeddingModelName() string {
	return "mock-model"
}

type mockVectorIndex struct {
	matches   types.MatchSet
	err       error
	topK      int
	namespace string
	vector    []float32
}

func (m *mockVectorIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) (types.MatchSet, error) {
	m.vector = vector
	m.topK = topK
	m.namespace = namespace
	return m.matches, m.err
}

type mockReranker struct {
	results []types.RelevanceResult
	err     error
	called  bool
	fields  []string
}

func (m *mockReranker) Rerank(ctx context.Context, query string, matches types.MatchSet, fields []string) ([]types.RelevanceResult, error) {
	m.called = true
	m.fields = fields
	return m.results, m.err
}

var testMatches = types.MatchSet{
	{ID: "1", Score: 0.1, Metadata: types.Metadata{"text": "one", "a": 1.0, "b": 2.0, "c": 3.0}},
	{ID: "2", Score: 0.5, Metadata: types.Metadata{"text": "two", "a": 4.0}},
	{ID: "3", Score: 0.9, Metadata: types.Metadata{"text": "three"}},
}

func TestQueryNormalizesMatches(t *testing.T) {
	embedder := &mockEmbeddingProvider{}
	index := &mockVectorIndex{matches: testMatches}
	logger := log.New(io.Discard)

	results, err := Query(context.Background(), logger, embedder, index, nil, "numbers",
		WithTopK(3), WithNamespace("docs"))
	require.NoError(t, err)

	assert.Equal(t, []string{"numbers"}, embedder.queries)
	assert.Equal(t, []float32{1.0, 2.0, 3.0}, index.vector)
	assert.Equal(t, 3, index.topK)
	assert.Equal(t, "docs", index.namespace)

	assert.False(t, results.Reranked)
	require.Len(t, results.Results, 3)
	assert.Equal(t, "0.3025", results.Results[0].Relevance)
	assert.Equal(t, "0.5625", results.Results[1].Relevance)
	assert.Equal(t, "0.9025", results.Results[2].Relevance)
	assert.Equal(t, testMatches[0].Metadata, results.Results[0].Metadata)
}

func TestQueryDefaults(t *testing.T) {
	index := &mockVectorIndex{matches: testMatches[:1]}

	results, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, index, nil, "q")
	require.NoError(t, err)

	assert.Equal(t, 5, index.topK)
	assert.Equal(t, "", index.namespace)
	// cosine is the default metric
	assert.Equal(t, "0.3025", results.Results[0].Relevance)
}

func TestQueryTopKFallsBackToDefault(t *testing.T) {
	for _, topK := range []int{0, -3} {
		index := &mockVectorIndex{matches: testMatches[:1]}

		_, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, index, nil, "q", WithTopK(topK))
		require.NoError(t, err)

		assert.Equal(t, 5, index.topK, "top_k %d", topK)
	}
}

func TestQueryMetricAndFields(t *testing.T) {
	index := &mockVectorIndex{matches: testMatches}

	results, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, index, nil, "q",
		WithMetric(types.MetricDotProduct),
		WithMetadataFields([]string{"a", "b"}))
	require.NoError(t, err)

	require.Len(t, results.Results, 3)
	assert.Equal(t, "0.5000", results.Results[1].Relevance)
	assert.Equal(t, types.Metadata{"a": 1.0, "b": 2.0}, results.Results[0].Metadata)
	assert.Equal(t, types.Metadata{"a": 4.0, "b": nil}, results.Results[1].Metadata)
}

func TestQueryNoMatches(t *testing.T) {
	reranker := &mockReranker{}

	results, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, &mockVectorIndex{}, reranker, "q", WithRerank(true))
	require.NoError(t, err)

	assert.True(t, results.Empty())
	assert.False(t, reranker.called)

	out, err := Render(results)
	require.NoError(t, err)
	assert.Equal(t, "No matching results found in Pinecone.", out)
}

func TestQueryRerank(t *testing.T) {
	reranked := []types.RelevanceResult{
		{Relevance: "0.97", Metadata: types.Metadata{"a": 4.0}},
		{Relevance: "0.12", Metadata: types.Metadata{"a": 1.0}},
	}
	reranker := &mockReranker{results: reranked}

	results, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, &mockVectorIndex{matches: testMatches}, reranker, "q",
		WithRerank(true),
		WithMetric(types.MetricEuclidean),
		WithMetadataFields([]string{"a"}))
	require.NoError(t, err)

	assert.True(t, reranker.called)
	assert.Equal(t, []string{"a"}, reranker.fields)
	assert.True(t, results.Reranked)
	assert.Equal(t, reranked, results.Results)
}

func TestQueryRerankWithoutReranker(t *testing.T) {
	embedder := &mockEmbeddingProvider{}

	_, err := Query(context.Background(), log.New(io.Discard), embedder, &mockVectorIndex{matches: testMatches}, nil, "q", WithRerank(true))

	assert.ErrorIs(t, err, ErrRerankerRequired)
	assert.Empty(t, embedder.queries, "configuration errors fail before any request")
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name     string
		embedder *mockEmbeddingProvider
		index    *mockVectorIndex
		reranker *mockReranker
		want     string
		kind     types.ProviderKind
	}{
		{
			name:     "embedding",
			embedder: &mockEmbeddingProvider{err: types.EmbeddingProviderError(401, `{"error":"bad key"}`)},
			index:    &mockVectorIndex{matches: testMatches},
			want:     `failed to query Pinecone: failed to vectorize query: OpenAI API error: 401 - {"error":"bad key"}`,
			kind:     types.ProviderEmbedding,
		},
		{
			name:     "search",
			embedder: &mockEmbeddingProvider{},
			index:    &mockVectorIndex{err: types.SearchProviderError(404, "not found")},
			want:     "failed to query Pinecone: Pinecone API error: 404 - not found",
			kind:     types.ProviderSearch,
		},
		{
			name:     "rerank",
			embedder: &mockEmbeddingProvider{},
			index:    &mockVectorIndex{matches: testMatches},
			reranker: &mockReranker{err: types.RerankProviderError(500, "boom")},
			want:     "failed to query Pinecone: failed to rerank with Cohere: Cohere API error: 500 - boom",
			kind:     types.ProviderRerank,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []SearchOption
			var reranker *mockReranker
			if tt.reranker != nil {
				reranker = tt.reranker
				opts = append(opts, WithRerank(true))
			}

			var err error
			if reranker != nil {
				_, err = Query(context.Background(), log.New(io.Discard), tt.embedder, tt.index, reranker, "q", opts...)
			} else {
				_, err = Query(context.Background(), log.New(io.Discard), tt.embedder, tt.index, nil, "q", opts...)
			}

			require.EqualError(t, err, tt.want)
			var perr *types.ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind)
		})
	}
}

func TestQueryRerankFailureDoesNotFallBack(t *testing.T) {
	reranker := &mockReranker{err: &types.MalformedResponseError{Kind: types.ProviderRerank, Field: "rerank results"}}

	results, err := Query(context.Background(), log.New(io.Discard), &mockEmbeddingProvider{}, &mockVectorIndex{matches: testMatches}, reranker, "q", WithRerank(true))

	require.Error(t, err)
	assert.Empty(t, results.Results)
	var merr *types.MalformedResponseError
	assert.True(t, errors.As(err, &merr))
}

func TestRender(t *testing.T) {
	out, err := Render(types.SearchResults{Results: []types.RelevanceResult{
		{Relevance: "0.5625", Metadata: types.Metadata{"a": 1.0, "b": nil}},
	}})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []map[string]any{
		{"relevance": "0.5625", "metadata": map[string]any{"a": 1.0, "b": nil}},
	}, decoded)
}

func TestRenderEmptyRerank(t *testing.T) {
	out, err := Render(types.SearchResults{Results: []types.RelevanceResult{}, Reranked: true})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
