// Command probe checks every configured credential and reports whether the
// service is ready to deploy.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/satishskid/gbseo/internal/config"
	"github.com/satishskid/gbseo/internal/probe"
	"github.com/spf13/cobra"
)

// errNotReady makes the process exit non-zero after the report is printed.
var errNotReady = errors.New("platform needs configuration")

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
		asJSON     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check generation, payment and auth credentials",
		Long: `Probe sends a short test prompt to every configured content generation
provider, then verifies the Razorpay and Clerk credentials. It exits
non-zero unless at least one provider works and both the payment and
auth credentials are valid.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading env file: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			client, err := cfg.NewGenerationClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report := probe.New(client, probe.Options{
				RazorpayKeyID:     cfg.Payments.RazorpayKeyID,
				RazorpayKeySecret: cfg.Payments.RazorpayKeySecret,
				ClerkSecretKey:    cfg.Auth.ClerkSecretKey,
			}).Run(ctx)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
			} else if err := report.Print(out); err != nil {
				return fmt.Errorf("printing report: %w", err)
			}

			if !report.Ready() {
				return errNotReady
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.toml", "path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to dotenv file (ignored if missing)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall probe timeout")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
