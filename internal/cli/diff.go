package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// diffCommand creates the diff command for comparing two snapshots.
func (c *CLI) diffCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diff [old.json] [new.json]",
		Short: "Compare two graph snapshots",
		Long: `Compare two graph snapshots and report added, removed, and updated
nodes, edges, and workflows.

Position and size changes are ignored; they are derived view state, not
data identity. The exit code is 0 when the snapshots match and 1 when
they differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the diff as JSON")

	return cmd
}

func runDiff(oldPath, newPath string, asJSON bool) error {
	oldGraph, err := graph.ReadGraphFile(oldPath)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", oldPath, err)
	}
	newGraph, err := graph.ReadGraphFile(newPath)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", newPath, err)
	}

	d := graph.Diff(oldGraph, newGraph)

	if asJSON {
		data, err := graph.MarshalDiff(d)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printDiff(d)
	}

	if d.HasDiff() {
		return errSnapshotsDiffer
	}
	return nil
}

// errSnapshotsDiffer makes "codag diff" exit non-zero on change, like
// diff(1), without printing a usage error.
var errSnapshotsDiffer = fmt.Errorf("snapshots differ")

func printDiff(d *graph.GraphDiff) {
	if !d.HasDiff() {
		printInfo("Snapshots are identical")
		return
	}

	printNodeDiff(d.Nodes)
	printEdgeDiff(d.Edges)
	printWorkflowDiff(d.Workflows)

	if d.Destructive() {
		printNewline()
		printWarning("Destructive change: a live view must re-render from scratch")
	}
}

func printNodeDiff(d graph.EntityDiff[*graph.Node]) {
	for _, n := range d.Added {
		printDetail("+ node %s (%s)", n.ID, n.Label)
	}
	for _, n := range d.Removed {
		printDetail("- node %s (%s)", n.ID, n.Label)
	}
	for _, n := range d.Updated {
		printDetail("~ node %s (%s)", n.ID, n.Label)
	}
}

func printEdgeDiff(d graph.EntityDiff[graph.Edge]) {
	for _, e := range d.Added {
		printDetail("+ edge %s -> %s", e.Source, e.Target)
	}
	for _, e := range d.Removed {
		printDetail("- edge %s -> %s", e.Source, e.Target)
	}
	for _, e := range d.Updated {
		printDetail("~ edge %s -> %s", e.Source, e.Target)
	}
}

func printWorkflowDiff(d graph.EntityDiff[graph.Workflow]) {
	for _, w := range d.Added {
		printDetail("+ workflow %s (%s)", w.ID, w.Name)
	}
	for _, w := range d.Removed {
		printDetail("- workflow %s (%s)", w.ID, w.Name)
	}
	for _, w := range d.Updated {
		printDetail("~ workflow %s (%s)", w.ID, w.Name)
	}
}
