// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 9:12:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/screener/internal/common"
)

var rootCmd = &cobra.Command{
	Use:           "screener",
	Short:         "Stock fundamentals screener",
	Long:          `Screens tickers against fundamental criteria (market cap, P/E, liquidity, leverage, growth, profitability) and writes flat reports.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	common.LoadVersionFromFile()

	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
