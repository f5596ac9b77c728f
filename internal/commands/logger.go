package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// SetupLogger returns a logger writing to w at the given level
func SetupLogger(w io.Writer, level string) (*log.Logger, error) {
	logger := log.New(w)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
