package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/embeddings"
	"github.com/lox/pinecone-search/internal/pinecone"
	"github.com/lox/pinecone-search/internal/rerank"
	"github.com/lox/pinecone-search/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const ToolName = "query_pinecone_database"

type Server struct {
	logger     *log.Logger
	embedder   embeddings.EmbeddingProvider
	index      pinecone.VectorIndex
	reranker   rerank.Reranker
	searchOpts []search.SearchOption
}

// New returns a server answering queries with the given collaborators. opts
// apply to every query; per-call arguments are applied after them.
func New(
	logger *log.Logger,
	embedder embeddings.EmbeddingProvider,
	index pinecone.VectorIndex,
	reranker rerank.Reranker,
	opts ...search.SearchOption,
) *Server {
	return &Server{
		logger:     logger,
		embedder:   embedder,
		index:      index,
		reranker:   reranker,
		searchOpts: opts,
	}
}

func (s *Server) Run() error {
	// Create MCP server
	mcpServer := server.NewMCPServer(
		"Pinecone Search",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool(ToolName,
		mcp.WithDescription("Search a Pinecone vector database for documents relevant to a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query - what you're looking for"),
		),
		mcp.WithString("top_k",
			mcp.Description("Number of matches to retrieve from Pinecone (default from settings)"),
		),
		mcp.WithString("namespace",
			mcp.Description("Pinecone namespace to search (default from settings)"),
		),
	), s.queryHandler)

	// Start the stdio server
	if err := server.ServeStdio(mcpServer); err != nil {
		return err
	}

	return nil
}

func (s *Server) queryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, ok := request.Params.Arguments["query"].(string)
	if !ok || query == "" {
		return nil, errors.New("query must be a non-empty string")
	}

	opts := append([]search.SearchOption{}, s.searchOpts...)

	if topKVal, ok := request.Params.Arguments["top_k"]; ok {
		var topK int
		switch v := topKVal.(type) {
		case int:
			topK = v
		case float64:
			topK = int(v)
		case string:
			var err error
			topK, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("top_k must be a valid integer: %w", err)
			}
		default:
			return nil, errors.New("top_k must be a number or string")
		}
		if topK <= 0 {
			return nil, errors.New("top_k must be greater than 0")
		}
		opts = append(opts, search.WithTopK(topK))
	}

	if namespace, ok := request.Params.Arguments["namespace"].(string); ok && namespace != "" {
		opts = append(opts, search.WithNamespace(namespace))
	}

	results, err := search.Query(ctx, s.logger, s.embedder, s.index, s.reranker, query, opts...)
	if err != nil {
		return nil, err
	}

	text, err := search.Render(results)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(text), nil
}
