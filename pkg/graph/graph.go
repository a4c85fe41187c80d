package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// MarshalGraph converts a snapshot to JSON bytes.
// Nodes, edges, and workflows are sorted for deterministic output, so the
// bytes are stable under re-emission order changes and safe to hash.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a snapshot as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded snapshot.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes a JSON snapshot from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &g, nil
}

// Clone returns a deep copy of the snapshot. Detection mutates its input in
// place; callers that need to keep the previous snapshot for diffing clone
// it first.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:     make([]*Node, len(g.Nodes)),
		Edges:     slices.Clone(g.Edges),
		Workflows: make([]Workflow, len(g.Workflows)),
	}
	for i, n := range g.Nodes {
		c := *n
		out.Nodes[i] = &c
	}
	for i, w := range g.Workflows {
		cw := w
		cw.NodeIDs = slices.Clone(w.NodeIDs)
		cw.Components = make([]ComponentMeta, len(w.Components))
		for j, cm := range w.Components {
			cm.NodeIDs = slices.Clone(cm.NodeIDs)
			cw.Components[j] = cm
		}
		out.Workflows[i] = cw
	}
	return out
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	out := sortedCopy(g)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// sortedCopy returns a shallow copy with deterministic member ordering.
// Positions and sizes pass through untouched.
func sortedCopy(g *Graph) *Graph {
	out := &Graph{
		Nodes:     slices.Clone(g.Nodes),
		Edges:     slices.Clone(g.Edges),
		Workflows: slices.Clone(g.Workflows),
	}
	slices.SortFunc(out.Nodes, func(a, b *Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		if a.Key() < b.Key() {
			return -1
		}
		if a.Key() > b.Key() {
			return 1
		}
		return 0
	})
	slices.SortFunc(out.Workflows, func(a, b Workflow) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}
