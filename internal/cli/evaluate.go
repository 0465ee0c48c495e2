package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/stats"
)

func newEvaluateCmd() *cobra.Command {
	var variants []string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Read out observed A/B test results",
		Long: `Compute conversion rates, 95% confidence intervals and the confidence that
the leading variant beats the control. The first --variant is the control.

Each variant is given as name:sends:conversions.

Example:
  jcp evaluate --variant control:1000:50 --variant push:1000:72`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := make([]stats.VariantCounts, 0, len(variants))
			for _, raw := range variants {
				v, err := parseVariant(raw)
				if err != nil {
					return err
				}
				counts = append(counts, v)
			}

			readout, err := stats.Evaluate(counts)
			if err != nil {
				return err
			}
			printReadout(cmd, readout)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&variants, "variant", nil, "variant as name:sends:conversions (repeatable, control first)")
	return cmd
}

func parseVariant(raw string) (stats.VariantCounts, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] == "" {
		return stats.VariantCounts{}, fmt.Errorf("invalid variant %q: expected name:sends:conversions", raw)
	}
	sends, err := strconv.Atoi(parts[1])
	if err != nil {
		return stats.VariantCounts{}, fmt.Errorf("invalid sends in %q: %w", raw, err)
	}
	conversions, err := strconv.Atoi(parts[2])
	if err != nil {
		return stats.VariantCounts{}, fmt.Errorf("invalid conversions in %q: %w", raw, err)
	}
	return stats.VariantCounts{Name: parts[0], Sends: sends, Conversions: conversions}, nil
}

func printReadout(cmd *cobra.Command, result *stats.Readout) {
	out := cmd.OutOrStdout()

	// Print table header
	fmt.Fprintln(out, "VARIANT           SENDS    CONVERSIONS  RATE     95% CI")
	fmt.Fprintln(out, strings.Repeat("─", 60))

	for i, v := range result.Variants {
		indicator := ""
		if i == result.Leading {
			indicator = " ← LEADING"
		}

		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Sends == 0 {
			ciStr = "N/A"
		}

		// Truncate name if too long
		name := v.Name
		if len(name) > 16 {
			name = name[:13] + "..."
		}

		fmt.Fprintf(out, "%-16s  %-7d  %-11d  %-7s  %s%s\n",
			name,
			v.Sends,
			v.Conversions,
			formatPercent(v.Rate),
			ciStr,
			indicator,
		)
	}

	fmt.Fprintln(out)

	// Print significance message
	leadingName := result.Variants[result.Leading].Name
	confPct := result.ConfidenceLevel * 100

	switch {
	case result.Significant:
		fmt.Fprintf(out, "Statistical significance: %.1f%% confident \"%s\" is the winner\n", confPct, leadingName)
	case confPct >= 90:
		fmt.Fprintf(out, "Statistical significance: %.1f%% confident \"%s\" beats control (not yet significant)\n", confPct, leadingName)
	default:
		fmt.Fprintln(out, "Statistical significance: Not enough data to determine a winner")
	}
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
