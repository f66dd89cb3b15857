package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/swingiq/internal/adapters/repository"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	errPlanInput    = errors.New("either --player or all of --avg-ev, --max-ev, --bat-speed and --swings are required")
	errOutputFormat = errors.New("output must be json or yaml")
)

type planFlags struct {
	playerID string
	catalog  string
	avgEV    float64
	maxEV    float64
	batSpeed float64
	swings   float64
	output   string
}

func newPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print a development plan for a catalog player or raw metrics",
		Example: `  swingiq plan --player p1
  swingiq plan --avg-ev 82 --max-ev 95 --bat-speed 50 --swings 30 --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metricFlags := 0
			for _, name := range []string{"avg-ev", "max-ev", "bat-speed", "swings"} {
				if cmd.Flags().Changed(name) {
					metricFlags++
				}
			}
			return runPlan(cmd, f, metricFlags)
		},
	}

	cmd.Flags().StringVar(&f.playerID, "player", "", "catalog player id")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog YAML file (default: embedded demo catalog)")
	cmd.Flags().Float64Var(&f.avgEV, "avg-ev", 0, "average exit velocity (mph)")
	cmd.Flags().Float64Var(&f.maxEV, "max-ev", 0, "max exit velocity (mph)")
	cmd.Flags().Float64Var(&f.batSpeed, "bat-speed", 0, "average bat speed (mph)")
	cmd.Flags().Float64Var(&f.swings, "swings", 0, "swing count")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "output format: json or yaml")
	cmd.MarkFlagsMutuallyExclusive("player", "avg-ev")
	return cmd
}

func runPlan(cmd *cobra.Command, f planFlags, metricFlags int) error {
	if f.output != "json" && f.output != "yaml" {
		return fmt.Errorf("%w: %q", errOutputFormat, f.output)
	}

	var (
		id string
		m  plan.Metrics
	)
	switch {
	case f.playerID != "" && metricFlags == 0:
		c, err := repository.LoadCatalog(cmd.Context(), f.catalog)
		if err != nil {
			return err
		}
		p, err := c.Player(cmd.Context(), f.playerID)
		if err != nil {
			return fmt.Errorf("player %s: %w", f.playerID, err)
		}
		id, m = p.ID, p.Metrics
	case f.playerID == "" && metricFlags == 4:
		m = plan.Metrics{
			AvgExitVelocity: f.avgEV,
			MaxExitVelocity: f.maxEV,
			AvgBatSpeed:     f.batSpeed,
			SwingCount:      f.swings,
		}
	default:
		return errPlanInput
	}

	view := types.NewPlanView(id, plan.Assess(m), plan.Generate(id, m), false)
	return writePlan(cmd.OutOrStdout(), f.output, view)
}

func writePlan(w io.Writer, format string, view types.PlanView) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}
