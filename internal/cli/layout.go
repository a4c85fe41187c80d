package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/layout"
	"github.com/michaelzixizhou/codag/pkg/measure"
	"github.com/michaelzixizhou/codag/pkg/pipeline"
)

// layoutCommand creates the layout command for computing workflow layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		dotDir  string
		noCache bool
		refresh bool
	)
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Compute a finalized layout from a graph snapshot",
		Long: `Compute a finalized layout from a graph snapshot.

The layout command takes a snapshot.json file, detects workflow groups,
measures node labels, solves each workflow's layout, packs the groups onto
one canvas, and writes a layout.json file with final integer coordinates.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Refresh = refresh
			return c.runLayout(cmd, args[0], opts, output, dotDir, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	// Pipeline flags (zero values fall back to config, then defaults)
	cmd.Flags().StringVar(&opts.PivotType, "pivot-type", "", "node type seeding workflow detection")
	cmd.Flags().IntVar(&opts.MergeThreshold, "merge-threshold", 0, "connecting edges required to merge workflows")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", 0, "node label font size")
	cmd.Flags().Float64Var(&opts.Margin, "margin", 0, "canvas margin between workflow groups")
	cmd.Flags().StringVar(&dotDir, "dot", "", "write per-workflow DOT debug files to this directory")

	return cmd
}

// runLayout loads the snapshot, runs the pipeline, and writes output.
func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output, dotDir string, noCache bool) error {
	ctx := cmd.Context()

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts = mergeOptions(cfg.PipelineOptions(), opts)
	opts.Logger = c.Logger

	runner, store, err := c.newRunner(cmd, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer store.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, w := range result.Warnings {
		printWarning("%s", w)
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := graph.WriteLayoutFile(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if dotDir != "" {
		if err := writeDOTFiles(result, opts, dotDir); err != nil {
			return err
		}
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Serve", "codag serve")

	return nil
}

// writeDOTFiles exports the solver input for each arranged group.
func writeDOTFiles(result *pipeline.Result, opts pipeline.Options, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dot dir %s: %w", dir, err)
	}
	lopts := layout.Options{
		Estimator: measure.NewEstimator(opts.Measurer),
		SolverOptions: layout.SolverOptions{
			NodeSep: opts.NodeSep,
			RankSep: opts.RankSep,
		},
	}
	for _, group := range result.Groups {
		dot := layout.GroupDOT(group, result.Graph, lopts)
		path := filepath.Join(dir, group.ID+".dot")
		if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// mergeOptions overlays flag values onto config-derived options. Flags win
// when set to a non-zero value.
func mergeOptions(base, flags pipeline.Options) pipeline.Options {
	if flags.PivotType != "" {
		base.PivotType = flags.PivotType
	}
	if flags.MergeThreshold != 0 {
		base.MergeThreshold = flags.MergeThreshold
	}
	if flags.FontSize != 0 {
		base.FontSize = flags.FontSize
	}
	if flags.MaxWidth != 0 {
		base.MaxWidth = flags.MaxWidth
	}
	if flags.NodeSep != 0 {
		base.NodeSep = flags.NodeSep
	}
	if flags.RankSep != 0 {
		base.RankSep = flags.RankSep
	}
	if flags.Margin != 0 {
		base.Margin = flags.Margin
	}
	base.Refresh = flags.Refresh
	return base
}
