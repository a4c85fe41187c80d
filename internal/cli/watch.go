package cli

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/pipeline"
)

// watchCommand creates the watch command for live recomputation.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		noCache bool
		noTUI   bool
	)

	cmd := &cobra.Command{
		Use:   "watch [snapshot.json]",
		Short: "Recompute the layout whenever a snapshot file changes",
		Long: `Recompute the layout whenever a snapshot file changes.

The watch command runs the pipeline on the snapshot, then watches the file
for writes. Rapid successive writes are coalesced: a run in flight is never
interrupted, and only the newest snapshot is laid out. Each applied update
is written next to the input as <input>.layout.json.

A status view shows the applied updates; use --no-tui for plain log output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, args[0], noCache, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "plain log output instead of the status view")

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, input string, noCache, noTUI bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.PipelineOptions()
	opts.Logger = c.Logger

	runner, store, err := c.newRunner(cmd, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer store.Close()

	live := pipeline.NewLive(ctx, runner, opts)
	defer live.Close()

	errs := make(chan error, 1)

	submit := func() {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			select {
			case errs <- fmt.Errorf("load snapshot %s: %w", input, err):
			default:
			}
			return
		}
		live.Submit(g)
	}
	submit()

	// Watch the parent directory: editors replace files on save, which
	// drops a watch registered on the file itself.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(input)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(input)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c.Logger.Debug("snapshot changed", "op", event.Op.String())
				submit()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("watcher error", "err", err)
			}
		}
	}()

	output := outputPathFor(input)
	if noTUI {
		return c.watchPlain(ctx, live, output, errs)
	}
	return c.watchTUI(ctx, cancel, live, input, output, errs)
}

// watchPlain consumes live updates with log output only.
func (c *CLI) watchPlain(ctx context.Context, live *pipeline.Live, output string, errs <-chan error) error {
	printInfo("Watching for changes (ctrl+c to stop)")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			printWarning("%s", err)
		case up, ok := <-live.Updates():
			if !ok {
				return nil
			}
			if err := writeUpdate(up, output); err != nil {
				printWarning("%s", err)
				continue
			}
			printSuccess("Layout updated (%s)", up.Mode)
			printFile(output)
			for _, w := range up.Result.Warnings {
				printWarning("%s", w)
			}
		}
	}
}

// watchTUI consumes live updates through the bubbletea status view.
func (c *CLI) watchTUI(ctx context.Context, cancel context.CancelFunc, live *pipeline.Live, input, output string, errs <-chan error) error {
	p := tea.NewProgram(NewWatchModel(input), tea.WithContext(ctx))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				p.Send(watchErrMsg{err: err})
			case up, ok := <-live.Updates():
				if !ok {
					return
				}
				if err := writeUpdate(up, output); err != nil {
					p.Send(watchErrMsg{err: err})
					continue
				}
				p.Send(layoutUpdateMsg{update: up})
			}
		}
	}()

	_, err := p.Run()
	cancel()
	if err != nil && ctx.Err() != nil {
		// Quit triggered by signal; not a TUI failure.
		return ctx.Err()
	}
	return err
}

// writeUpdate persists one applied update's layout.
func writeUpdate(up pipeline.Update, output string) error {
	if err := graph.WriteLayoutFile(up.Result.Layout, output); err != nil {
		return fmt.Errorf("write layout %s: %w", output, err)
	}
	return nil
}

// outputPathFor derives the layout output path from the snapshot path.
func outputPathFor(input string) string {
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + ".layout.json"
}
