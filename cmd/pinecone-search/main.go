package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/pinecone-search/internal/commands"
	"github.com/lox/pinecone-search/internal/search"
)

type CLI struct {
	commands.CommonConfig
	commands.PineconeConfig
	commands.RelevanceConfig
	commands.EmbeddingConfig
	commands.RerankConfig

	Query string `help:"Search query - what you're looking for" required:""`
}

func (c *CLI) Run() error {
	ctx := context.Background()

	// Logs go to stderr, results to stdout
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

	results, err := search.Query(ctx, logger, embeddingProvider, index, reranker, c.Query,
		commands.SearchOptions(c.PineconeConfig, c.RelevanceConfig)...)
	if err != nil {
		return err
	}

	out, err := search.Render(results)
	if err != nil {
		return err
	}
	fmt.Println(out)

	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pinecone-search"),
		kong.Description("Search a Pinecone index for documents relevant to a query"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
