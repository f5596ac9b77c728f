package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/pinecone-search/internal/commands"
	"github.com/lox/pinecone-search/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
	commands.PineconeConfig
	commands.RelevanceConfig
	commands.EmbeddingConfig
	commands.RerankConfig
}

func (c *CLI) Run() error {
	// stdout carries the MCP stdio transport
	logger, err := commands.SetupLogger(os.Stderr, c.LogLevel)
	if err != nil {
		return err
	}

	embeddingProvider, err := commands.SetupEmbeddingProvider(c.EmbeddingConfig, logger)
	if err != nil {
		return err
	}

	index, err := commands.SetupVectorIndex(c.PineconeConfig, logger)
	if err != nil {
		return err
	}

	reranker, err := commands.SetupReranker(c.EnableRerank, c.RerankConfig, logger)
	if err != nil {
		return err
	}

	s := mcp.New(logger, embeddingProvider, index, reranker,
		commands.SearchOptions(c.PineconeConfig, c.RelevanceConfig)...)
	return s.Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pinecone-mcp-server"),
		kong.Description("MCP server exposing Pinecone semantic search"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
