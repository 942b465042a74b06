package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createScreenTickersTool returns the screen_tickers tool definition
func createScreenTickersTool() mcp.Tool {
	return mcp.NewTool("screen_tickers",
		mcp.WithDescription("Screen stock tickers against fundamental criteria and return a Markdown results table with a short analysis"),
		mcp.WithString("tickers",
			mcp.Required(),
			mcp.Description("Comma-separated ticker symbols (e.g., AAPL,MSFT,BHP.AX)"),
		),
		mcp.WithString("criteria",
			mcp.Description(`Inline criteria (e.g., "pe_max=25,roe_min=0.15"). Defaults to the configured criteria`),
		),
		mcp.WithBoolean("filter_passed",
			mcp.Description("Only include stocks that passed all criteria (default: false)"),
		),
	)
}

// createListCriteriaTool returns the list_criteria tool definition
func createListCriteriaTool() mcp.Tool {
	return mcp.NewTool("list_criteria",
		mcp.WithDescription("List the recognized screening criteria and the configured defaults"),
	)
}
