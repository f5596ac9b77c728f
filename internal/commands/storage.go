package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pinecone-search/internal/pinecone"
)

// SetupVectorIndex initializes and returns a Pinecone index client based on the config
func SetupVectorIndex(config PineconeConfig, logger *log.Logger) (pinecone.VectorIndex, error) {
	pineconeConfig := pinecone.NewConfig().
		WithHostURL(config.PineconeIndexHostURL).
		WithAPIKey(config.PineconeAPIKey).
		WithLogger(logger)
	if config.PineconeAPIVersion != "" {
		pineconeConfig = pineconeConfig.WithAPIVersion(config.PineconeAPIVersion)
	}

	index, err := pinecone.NewClient(pineconeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}
	logger.Info("Using Pinecone index", "host", pineconeConfig.HostURL, "api_version", pineconeConfig.APIVersion)

	return index, nil
}
