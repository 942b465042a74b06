package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/screener"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleScreenTickers implements the screen_tickers tool
func handleScreenTickers(fetcher screener.Fetcher, base models.CriteriaConfig, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("tickers")
		tickers := common.ParseTickers(raw)
		if err != nil || len(tickers) == 0 {
			return textResult("Error: tickers parameter is required"), nil
		}

		cfg := base
		if inline := request.GetString("criteria", ""); strings.TrimSpace(inline) != "" {
			cfg = criteria.ParseInline(inline)
			if err := criteria.Validate(cfg); err != nil {
				return textResult(fmt.Sprintf("Error: %v", err)), nil
			}
		}
		filterPassed := request.GetBool("filter_passed", false)

		results, err := screener.Screen(ctx, fetcher, cfg, tickers, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Screening failed")
			return textResult(fmt.Sprintf("Screening error: %v", err)), nil
		}

		return textResult(formatScreenResults(results, len(cfg), filterPassed)), nil
	}
}

// handleListCriteria implements the list_criteria tool
func handleListCriteria(base models.CriteriaConfig) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatCriteria(base)), nil
	}
}
