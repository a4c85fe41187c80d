// Package pkg provides the core libraries for Codag workflow-graph layout.
//
// # Overview
//
// Codag turns call-graph snapshots of AI workflows into packed, routed
// layouts ready for rendering. The pkg directory is organized into five
// main areas:
//
//  1. [graph] - Serialization types for snapshots, layouts, and diffs
//  2. [detect] / [measure] - Graph composition (workflow grouping, text sizing)
//  3. [layout] / [pack] - Per-workflow solving and canvas packing
//  4. [pipeline] - Orchestration (detect → measure → solve → pack → finalize)
//  5. [cache] / [store] / [config] / [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through Codag:
//
//	Graph snapshot (JSON)
//	         ↓
//	    [detect] package (workflow groups + components)
//	         ↓
//	    [measure] package (node box sizes from label text)
//	         ↓
//	    [layout] package (per-workflow solve, Graphviz dot)
//	         ↓
//	    [pack] package (corner packing onto one canvas)
//	         ↓
//	    finalized [graph.Layout] in integer coordinates
//
// # Quick Start
//
// Run the complete pipeline on a snapshot:
//
//	import (
//	    "context"
//	    "github.com/michaelzixizhou/codag/pkg/graph"
//	    "github.com/michaelzixizhou/codag/pkg/pipeline"
//	)
//
//	g, _ := graph.ReadGraphFile("snapshot.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), g, pipeline.Options{})
//	if err != nil {
//	    // whole-run failure: invalid snapshot, no groups, all solves failed
//	}
//	_ = graph.WriteLayoutFile(result.Layout, "snapshot.layout.json")
//
// Recoverable defects (dropped workflows, missing routes) accumulate as
// warnings on the result instead of failing the run.
//
// # Main Packages
//
// [graph] - Snapshot, layout, and diff types with JSON serialization and
// deterministic ordering. The diff engine classifies changes as destructive
// or incremental for live consumers.
//
// [detect] - Workflow detection: explicit annotations when present, a
// pivot-type walk otherwise, cross-workflow merging by union-find, and
// fragment collapsing into placeholder components.
//
// [measure] - Text measurement for node boxes: a TrueType backend when a
// system font is available, a deterministic per-rune ratio fallback
// otherwise.
//
// [layout] - Per-workflow orchestration around a pluggable Solver. The
// default solver drives Graphviz dot in-process and normalizes its output
// back into pixel coordinates.
//
// [pack] - Corner packing of workflow bounding boxes onto one canvas,
// biased toward the packed centroid.
//
// [pipeline] - The staged runner with per-stage caching and timing, plus
// [pipeline.Live], which coalesces live snapshot submissions so only the
// newest one is laid out.
//
// [cache] - File, Redis, and null cache backends with stage-aware key
// derivation and project scoping.
//
// [store] - Layout persistence for serve mode: in-memory or MongoDB.
//
// [config] - TOML configuration with working defaults for every field.
//
// [observability] - Pipeline, cache, and server hooks with no-op defaults.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//
// [graph]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/graph
// [detect]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/detect
// [measure]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/measure
// [layout]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/layout
// [pack]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/pack
// [pipeline]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/cache
// [store]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/store
// [config]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/config
// [observability]: https://pkg.go.dev/github.com/michaelzixizhou/codag/pkg/observability
package pkg
