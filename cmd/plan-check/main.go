package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/okian/swingiq/internal/plancheck"
	"github.com/spf13/cobra"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func newRootCmd() *cobra.Command {
	cfg := &plancheck.Config{}
	var logFile string

	cmd := &cobra.Command{
		Use:   "plan-check",
		Short: "Verify a running SwingIQ server against local plan generation",
		Example: `  plan-check --url http://localhost:9080
  plan-check --group team-hawks --notes --reanalysis --log -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := plancheck.SetupLogging(logFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()

			_, err = plancheck.Run(ctx, cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().StringVar(&cfg.Group, "group", "", "only check players in this group")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "concurrent plan fetchers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().BoolVar(&cfg.Notes, "notes", false, "exercise note prepend and idempotency on the first player")
	cmd.Flags().BoolVar(&cfg.Reanalysis, "reanalysis", false, "exercise synchronous re-analysis on the first player")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every matching plan")
	cmd.Flags().StringVar(&logFile, "log", "", `log file (default: plan_check_TIMESTAMP.log, "-" for stdout only)`)
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Stderr.WriteString("plan-check: " + err.Error() + "\n")
		os.Exit(1)
	}
}
