package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tradebot/backtest"
	"tradebot/config"
	"tradebot/exchange"
	"tradebot/internal/id"
	"tradebot/journal"
	"tradebot/market"
	"tradebot/signal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the signal engine against historical candles",
	Long: `Backtest replays historical candles through the signal engine and
reports trades, returns, drawdown and Sharpe ratio.

Candles come from a CSV file (--data) or are fetched from Binance
(--bars most recent candles for the configured symbol).

Examples:
  tradebot backtest --config tradebot.yaml --data btcusdt_1h.csv
  tradebot backtest --config tradebot.yaml --bars 500`,
	RunE: runBacktestCmd,
}

var (
	btConfigPath string
	btDataPath   string
	btBars       int
	btBalance    float64
	btDBPath     string
	btExportPath string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "tradebot.yaml", "path to config file")
	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "candle CSV file (timestamp,open,high,low,close,volume)")
	backtestCmd.Flags().IntVar(&btBars, "bars", 0, "fetch this many recent candles from Binance instead of --data")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "override initial balance")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "override journal database path")
	backtestCmd.Flags().StringVar(&btExportPath, "export", "", "write closed trades to this CSV file")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return err
	}
	if btBalance > 0 {
		cfg.Backtest.InitialBalance = btBalance
	}
	if btDBPath != "" {
		cfg.Journal.DBPath = btDBPath
	}
	if btDataPath == "" {
		btDataPath = cfg.Backtest.DataFile
	}

	candles, err := loadCandles(cmd, cfg)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(backtest.Config{
		Symbol:         cfg.Trading.Symbol,
		InitialBalance: cfg.Backtest.InitialBalance,
		Indicators:     cfg.Indicators.ToIndicators(),
	}, signal.NewEngine(cfg.Signal))

	result, err := engine.Run(candles)
	if err != nil {
		return err
	}

	if err := journalRun(cfg.Journal.DBPath, result); err != nil {
		return fmt.Errorf("journal backtest: %w", err)
	}

	result.PrintReport(os.Stdout)

	if btExportPath != "" {
		f, err := os.Create(btExportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := journal.WriteBacktestTrades(f, result.Trades); err != nil {
			return err
		}
		fmt.Printf("\nTrades written to %s\n", btExportPath)
	}
	return nil
}

func loadCandles(cmd *cobra.Command, cfg *config.Config) ([]market.Candle, error) {
	if btDataPath != "" {
		candles, err := market.ReadCSV(btDataPath)
		if err != nil {
			return nil, fmt.Errorf("load candles: %w", err)
		}
		return candles, nil
	}

	bars := btBars
	if bars == 0 {
		bars = cfg.Backtest.Bars
	}
	if bars == 0 {
		return nil, fmt.Errorf("no candle source: pass --data or --bars")
	}

	venue := exchange.NewBinance(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.Testnet)
	return venue.FetchBars(cmd.Context(), cfg.Trading.Symbol, cfg.Trading.Timeframe, bars)
}

func journalRun(dbPath string, r *backtest.Result) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()

	runID := id.New()
	if err := j.RecordBacktestRun(journal.BacktestRun{
		RunID:          runID,
		Symbol:         r.Symbol,
		Start:          r.Start,
		End:            r.End,
		Bars:           r.Bars,
		InitialBalance: r.InitialBalance,
		FinalBalance:   r.FinalBalance,
		TotalTrades:    r.Metrics.TotalTrades,
		WinRate:        r.Metrics.WinRate,
		MaxDrawdown:    r.Metrics.MaxDrawdownPercent,
		SharpeRatio:    r.Metrics.SharpeRatio,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return err
	}

	for _, t := range r.Trades {
		if err := j.RecordTrade(journal.FromTrade(id.New(), runID, t)); err != nil {
			return err
		}
	}
	for _, p := range r.Equity {
		if err := j.RecordEquity(journal.EquitySnapshot{
			Time:    p.Time,
			RunID:   runID,
			Balance: p.Equity,
			Equity:  p.Equity,
		}); err != nil {
			return err
		}
	}

	fmt.Printf("Journaled run %s to %s\n", runID, dbPath)
	return nil
}
