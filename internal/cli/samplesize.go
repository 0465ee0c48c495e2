package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/stats"
)

// sampleSizeFlags are shared by 'sample-size' and 'generate ab-test-strategy'.
type sampleSizeFlags struct {
	testType    string
	baseRate    float64
	lift        float64
	confidence  string
	dailyVolume int
}

func (f *sampleSizeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.testType, "test-type", "", "what is being tested, e.g. \"Email Subject Line\"")
	cmd.Flags().Float64Var(&f.baseRate, "base-rate", 0, "baseline conversion rate in percent")
	cmd.Flags().Float64Var(&f.lift, "lift", 0, "minimum detectable lift in percentage points")
	cmd.Flags().StringVar(&f.confidence, "confidence", "95", "confidence level: 90, 95 or 99")
	cmd.Flags().IntVar(&f.dailyVolume, "daily-volume", 0, "sends per day (default JC_DAILY_VOLUME or 1000)")
}

func (f *sampleSizeFlags) estimate() (stats.TestConfig, stats.SampleSizeResult, error) {
	conf, err := stats.ParseConfidence(f.confidence)
	if err != nil {
		return stats.TestConfig{}, stats.SampleSizeResult{}, err
	}

	volume := f.dailyVolume
	if volume == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return stats.TestConfig{}, stats.SampleSizeResult{}, err
		}
		volume = cfg.DailyVolume
	}

	tc := stats.TestConfig{
		TestType:    f.testType,
		BaseRatePct: f.baseRate,
		LiftPct:     f.lift,
		Confidence:  conf,
		DailyVolume: volume,
	}
	res, err := stats.EstimateSampleSize(tc)
	if err != nil {
		return tc, stats.SampleSizeResult{}, err
	}
	return tc, res, nil
}

func newSampleSizeCmd() *cobra.Command {
	var flags sampleSizeFlags

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Estimate A/B test sample size and duration",
		Long: `Estimate how many sends each variant needs to detect a lift, and how
many days that takes at the configured daily volume.

Examples:
  jcp sample-size --base-rate 2.5 --lift 0.5
  jcp sample-size --base-rate 10 --lift 2 --confidence 99 --daily-volume 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, res, err := flags.estimate()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tc.TestType != "" {
				fmt.Fprintf(out, "TEST: %s\n", tc.TestType)
			}
			fmt.Fprintf(out, "BASELINE: %.2f%%  LIFT: +%.2f pts  CONFIDENCE: %s\n", tc.BaseRatePct, tc.LiftPct, tc.Confidence)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Sample size per variant: %d\n", res.PerVariant)
			fmt.Fprintf(out, "Estimated duration:      %d days at %d sends/day\n", res.DurationDays, tc.DailyVolume)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
