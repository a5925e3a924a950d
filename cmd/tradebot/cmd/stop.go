package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradebot/config"
	"tradebot/logger"
	"tradebot/portfolio"
	"tradebot/risk"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Toggle the emergency stop",
	Long: `Stop flips the persisted emergency stop flag. While active, the risk
manager blocks every new trade; open positions are untouched.

Examples:
  tradebot stop --config tradebot.yaml           # activate
  tradebot stop --config tradebot.yaml --release # deactivate`,
	RunE: runStop,
}

var (
	stopConfigPath string
	stopRelease    bool
)

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVarP(&stopConfigPath, "config", "c", "tradebot.yaml", "path to config file")
	stopCmd.Flags().BoolVar(&stopRelease, "release", false, "deactivate the emergency stop")
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(stopConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Pretty)
	if err != nil {
		return err
	}

	mgr := risk.NewManager(cfg.Risk, portfolio.NewBook(), cfg.State.RiskFile, log)
	mgr.SetEmergencyStop(!stopRelease)

	s := mgr.Summarize()
	if s.EmergencyStop {
		fmt.Println("Emergency stop ACTIVE: all new trades blocked")
	} else {
		fmt.Println("Emergency stop released: trading allowed")
	}
	fmt.Printf("  trades today: %d/%d, open positions: %d\n",
		s.DailyTrades, s.MaxTradesPerDay, s.OpenPositions)
	return nil
}
