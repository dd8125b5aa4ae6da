package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flip-lending/config"
)

var (
	cfgFile string
	cfg     config.Config
	rootCmd = &cobra.Command{
		Use:   "flip-lending",
		Short: "Fix-and-flip lending marketplace API",
		Long: `flip-lending connects fix-and-flip borrowers with private lenders.

Borrowers submit deals, lenders browse them with live LTV/LTC/ROI
metrics and a rule-based risk report, and both sides manage matches.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if _, err := config.ParseLevel(loaded.Logging.Level); err != nil {
		return err
	}

	cfg = loaded
	config.InitLogger(cfg.Logging, os.Stderr)
	return nil
}
