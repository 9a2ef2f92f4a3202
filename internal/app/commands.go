package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pcb-viacv/internal/config"
	"pcb-viacv/internal/export"
	"pcb-viacv/internal/via"
	"pcb-viacv/internal/version"
	"pcb-viacv/pkg/geometry"
)

// rootOptions holds flags that are not config keys.
type rootOptions struct {
	configFile string
	seeds      []string
}

// RootCommand creates the viacv command tree.
func RootCommand() *cobra.Command {
	opts := &rootOptions{}
	defaults := via.DefaultParams()

	rootCmd := &cobra.Command{
		Use:           "viacv",
		Short:         "Locate vias in PCB scans from a few examples",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "Config file (default ./viacv.yaml or $HOME/.config/viacv/viacv.yaml)")
	pf.String("image", "", "Board scan (TIFF, PNG, JPEG or BMP)")
	pf.String("mask", "", "Tabu mask; red pixels are forbidden")
	pf.Bool("no-mask", false, "Run without a tabu mask (nothing is forbidden)")
	pf.StringArrayVar(&opts.seeds, "seed", nil, "Seed via anchor as x,y (repeatable, replaces configured seeds)")
	pf.String("seed-report", "", "Take the seeds from the vias of an earlier JSON report")
	pf.Int("threshold", defaults.SimilarityThreshold, "Similarity threshold: accept scores >= 255-threshold")
	pf.Int("mask-budget", defaults.MaskViolationThreshold, "Forbidden pixels at which an anchor is skipped (0 disables)")
	pf.Int("rounds", defaults.Rounds, "Self-training rounds")
	pf.Int("topk", defaults.TopK, "Closest profiles averaged per anchor")
	pf.Int("workers", defaults.Workers, "Parallel scan workers")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		detectCommand(opts),
		scoreCommand(opts),
		configCommand(opts),
	)
	return rootCmd
}

// loadSettings merges defaults, config file and flags.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*config.Settings, error) {
	v, err := config.New(opts.configFile)
	if err != nil {
		return nil, err
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	switch {
	case len(opts.seeds) > 0:
		seeds, err := config.ParseSeeds(opts.seeds)
		if err != nil {
			return nil, err
		}
		settings.Seeds = seeds
	case settings.Input.SeedReport != "":
		report, err := export.LoadReport(settings.Input.SeedReport)
		if err != nil {
			return nil, fmt.Errorf("failed to load seeds: %w", err)
		}
		settings.Seeds = report.Anchors()
	}
	return settings, nil
}

// newSession loads and validates settings and opens a State with a logger
// writing to the command's error stream.
func newSession(cmd *cobra.Command, opts *rootOptions) (*State, error) {
	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger, err := NewLogger(cmd.ErrOrStderr(), settings.Log.Level, settings.Log.Format)
	if err != nil {
		return nil, err
	}
	return NewState(settings, logger), nil
}

func detectCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect vias and write the configured outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			if err := state.LoadInputs(); err != nil {
				return err
			}
			result, err := state.Detect(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), result)
			return state.SaveResults()
		},
	}

	f := cmd.Flags()
	f.String("coords", "", "Output file with one (x,y) line per via")
	f.String("annotated", "", "Output PNG with detections circled")
	f.String("scoremap", "", "Output PNG of the last round's anchor scores")
	f.String("report", "", "Output JSON report with vias and round statistics")
	return cmd
}

func scoreCommand(opts *rootOptions) *cobra.Command {
	var x, y int
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single anchor against the seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			if err := state.LoadInputs(); err != nil {
				return err
			}
			report, err := state.ScoreAnchor(geometry.Pt(x, y))
			if err != nil {
				return err
			}
			PrintReport(cmd.OutOrStdout(), report, state.Settings.Params())
			return nil
		},
	}
	cmd.Flags().IntVar(&x, "x", 0, "Anchor x (left edge of the sampling square)")
	cmd.Flags().IntVar(&y, "y", 0, "Anchor y (top edge of the sampling square)")
	return cmd
}

func configCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

// printSummary prints the per-round progress and the final count.
func printSummary(w io.Writer, result *via.DetectionResult) {
	for _, r := range result.Rounds {
		fmt.Fprintf(w, "Round %d: %d profiles, %d candidates, %d new vias\n",
			r.Round, r.Profiles, r.Candidates, r.Accepted)
	}
	fmt.Fprintf(w, "Total: %d vias\n", len(result.Vias))
}

// PrintReport prints an anchor score report.
func PrintReport(w io.Writer, r *via.AnchorReport, params via.DetectionParams) {
	fmt.Fprintf(w, "Anchor %s\n", r.Anchor)
	fmt.Fprintf(w, "  Forbidden pixels: %d (budget %d)\n", r.Forbidden, params.MaskViolationThreshold)
	if r.Skipped {
		fmt.Fprintln(w, "  Skipped: mask budget reached")
		return
	}
	for i, s := range r.Similarities {
		fmt.Fprintf(w, "  Seed %d similarity: %.4f\n", i, s)
	}
	fmt.Fprintf(w, "  Top-%d mean: %.4f\n", params.TopK, r.Mean)
	fmt.Fprintf(w, "  Score: %d (min %d)\n", r.Score, params.MinScore())
	fmt.Fprintf(w, "  Accepted: %v\n", r.Accepted)
}

// Execute runs the root command and logs a failure to stderr.
func Execute(ctx context.Context) int {
	if err := RootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("viacv failed", "error", err)
		return 1
	}
	return 0
}
