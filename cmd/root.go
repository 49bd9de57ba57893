// Package cmd implements the command line interface.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltlab/smartcharge/app"
	"github.com/voltlab/smartcharge/config"
	"github.com/voltlab/smartcharge/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "smartcharge",
	Short: "Price-aware EV charge controller",
	Long: "smartcharge watches day-ahead electricity prices over MQTT and\n" +
		"switches an EV charger so the charge finishes by its deadline at\n" +
		"the lowest cost.",
	SilenceUsage: true,
	RunE:         runService,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func runService(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("assemble service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
