// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/config"
	"github.com/igor20192/HumanFlow/internal/observability"
	"github.com/igor20192/HumanFlow/internal/orchestrator"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs one human-paced purchase-and-exit flow against the storefront",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so the command line overrides
			// config file and environment values with the right precedence.
			bindings := map[string]string{
				"run.username":                 "username",
				"run.password":                 "password",
				"run.base_url":                 "url",
				"run.num_products":             "products",
				"run.screenshot_dir":           "screenshot-dir",
				"run.summary_file":             "summary-file",
				"browser.headless":             "headless",
				"proxy.server":                 "proxy-server",
				"proxy.username":               "proxy-username",
				"proxy.password":               "proxy-password",
				"simulation.min_action_delay":  "min-delay",
				"simulation.max_action_delay":  "max-delay",
				"simulation.min_typing_delay":  "min-typing-delay",
				"simulation.max_typing_delay":  "max-typing-delay",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			orch, err := orchestrator.New(cfg, logger)
			if err != nil {
				return err
			}

			summary, err := orch.Run(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Run aborted by user signal")
					return fmt.Errorf("run aborted by user signal")
				}
				return err
			}

			logger.Info("Run finished",
				zap.String("run_id", summary.RunID),
				zap.Duration("elapsed", summary.Elapsed),
			)
			return nil
		},
	}

	runCmd.Flags().StringP("username", "u", "", "storefront account username")
	runCmd.Flags().StringP("password", "p", "", "storefront account password")
	runCmd.Flags().String("url", "", "target storefront origin")
	runCmd.Flags().IntP("products", "n", 0, "number of product interactions (0 picks randomly)")
	runCmd.Flags().String("screenshot-dir", "", "directory for screenshot checkpoints")
	runCmd.Flags().String("summary-file", "", "write the run summary JSON to this file")
	runCmd.Flags().Bool("headless", true, "run the browser headless")
	runCmd.Flags().String("proxy-server", "", "upstream proxy URL (http, https or socks5)")
	runCmd.Flags().String("proxy-username", "", "upstream proxy username")
	runCmd.Flags().String("proxy-password", "", "upstream proxy password")
	runCmd.Flags().Duration("min-delay", time.Second, "minimum pacing delay between actions")
	runCmd.Flags().Duration("max-delay", 3*time.Second, "maximum pacing delay between actions")
	runCmd.Flags().Duration("min-typing-delay", 100*time.Millisecond, "minimum pause between keystrokes")
	runCmd.Flags().Duration("max-typing-delay", 300*time.Millisecond, "maximum pause between keystrokes")

	return runCmd
}
