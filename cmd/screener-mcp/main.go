package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/screener/internal/app"
	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
)

func main() {
	// Load configuration
	configPath := os.Getenv("SCREENER_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("screener.toml"); err == nil {
			configPath = "screener.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Stdout belongs to the MCP protocol, so logging is discarded
	logger := common.NewSilentLogger()

	pipeline, err := app.NewPipeline(context.Background(), config, logger, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize fetch pipeline: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	base, err := criteria.Resolve(config.Screener.Criteria, config.Screener.CriteriaFile, config.Screener.Rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load criteria: %v\n", err)
		os.Exit(1)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"screener",
		common.LoadVersionFromFile(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createScreenTickersTool(), handleScreenTickers(pipeline.Acquirer, base, logger))
	mcpServer.AddTool(createListCriteriaTool(), handleListCriteria(base))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server failed: %v\n", err)
		os.Exit(1)
	}
}
