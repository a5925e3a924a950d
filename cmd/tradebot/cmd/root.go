package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "A crypto trading bot with backtesting and risk management",
	Long: `Tradebot is an algorithmic trading bot for crypto spot markets.

It provides tools for:
  - Live and paper trading against Binance
  - Backtesting the signal engine on historical candles
  - Multi-indicator signal generation (RSI, MACD, Bollinger, EMA)
  - Risk limits: stop loss, take profit, daily trade and loss caps
  - Trade journaling to SQLite and CSV`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for BINANCE_API_KEY / BINANCE_SECRET_KEY.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
