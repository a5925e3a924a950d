package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradebot/bot"
	"tradebot/config"
	"tradebot/exchange"
	"tradebot/journal"
	"tradebot/logger"
	"tradebot/market"
	"tradebot/portfolio"
	"tradebot/risk"
	sig "tradebot/signal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop",
	Long: `Run starts the trading loop against the configured exchange.

With exchange.name "paper" orders are simulated against live market data;
with "binance" real orders are placed (set testnet: true first).

The loop stops cleanly on SIGINT/SIGTERM.

Example:
  tradebot run --config tradebot.yaml`,
	RunE: runBot,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "tradebot.yaml", "path to config file")
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Pretty)
	if err != nil {
		return err
	}

	binanceVenue := exchange.NewBinance(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.Testnet)

	var data exchange.MarketDataSource
	var executor exchange.OrderExecutor
	switch cfg.Exchange.Name {
	case "paper":
		paper := exchange.NewPaper(binanceVenue, cfg.Backtest.InitialBalance)
		data, executor = paper, paper
	default:
		data, executor = binanceVenue, binanceVenue
	}

	book := portfolio.NewBook()
	riskMgr := risk.NewManager(cfg.Risk, book, cfg.State.RiskFile, log)
	ledger := portfolio.NewLedger(book, cfg.State.HistoryFile, log)

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	var tradeLog *journal.CSVTradeLog
	if cfg.Journal.TradeLogFile != "" {
		tradeLog, err = journal.NewCSVTradeLog(cfg.Journal.TradeLogFile)
		if err != nil {
			return fmt.Errorf("open trade log: %w", err)
		}
		defer tradeLog.Close()
	}

	interval, err := market.TimeframeDuration(cfg.Trading.Interval)
	if err != nil {
		interval = time.Minute
	}

	b := bot.New(bot.Options{
		Symbol:       cfg.Trading.Symbol,
		QuoteAsset:   cfg.Trading.QuoteAsset,
		Timeframe:    cfg.Trading.Timeframe,
		LookbackBars: cfg.Trading.LookbackBars,
		Interval:     interval,
		Indicators:   cfg.Indicators.ToIndicators(),
		Data:         data,
		Executor:     executor,
		Signals:      sig.NewEngine(cfg.Signal),
		Risk:         riskMgr,
		Ledger:       ledger,
		Journal:      j,
		TradeLog:     tradeLog,
		Log:          log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = b.Run(ctx)
	if err == context.Canceled {
		log.Info().Msg("bot stopped")
		return nil
	}
	return err
}
