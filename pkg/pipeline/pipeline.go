// Package pipeline runs the complete detect → measure → layout → pack →
// finalize chain over one graph snapshot.
//
// This package is the single entry point shared by the CLI, the serve mode,
// and the watch mode. Centralizing the chain here keeps caching, warning
// collection, and stage ordering identical across all of them.
//
// # Architecture
//
// One run consists of five stages:
//
//  1. Detect: partition the snapshot into workflow groups and components
//  2. Measure: size every node box from its label text
//  3. Layout: solve each workflow group independently
//  4. Pack: place the solved groups onto one canvas
//  5. Finalize: translate all local coordinates into global integer pixels
//
// Detection and the finished layout are cached independently; both keys
// derive from the snapshot's content hash plus the options that affect the
// stage.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, snapshot, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layout := result.Layout
//
// Live consumers wrap the runner in a [Live] coalescer, which debounces
// snapshot submissions and diffs consecutive snapshots to pick between
// destructive and incremental updates.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/michaelzixizhou/codag/pkg/cache"
	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/layout"
	"github.com/michaelzixizhou/codag/pkg/measure"
	"github.com/michaelzixizhou/codag/pkg/pack"
)

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Detection options
	PivotType      string `json:"pivot_type,omitempty"`
	MergeThreshold int    `json:"merge_threshold,omitempty"`

	// Measurement options
	FontSize float64 `json:"font_size,omitempty"`
	MaxWidth float64 `json:"max_width,omitempty"`

	// Layout options
	NodeSep float64 `json:"node_sep,omitempty"`
	RankSep float64 `json:"rank_sep,omitempty"`

	// Packing options
	Margin float64 `json:"margin,omitempty"`

	// Refresh bypasses the cache on read (results are still written).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger      `json:"-"`
	Solver   layout.Solver    `json:"-"`
	Measurer measure.Measurer `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.MergeThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "merge_threshold must be >= 0")
	}
	if o.FontSize < 0 || o.MaxWidth < 0 || o.NodeSep < 0 || o.RankSep < 0 || o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "geometry options must be >= 0")
	}
	if o.PivotType == "" {
		o.PivotType = graph.TypeLLMCall
	}
	if o.MergeThreshold == 0 {
		o.MergeThreshold = 1
	}
	if o.FontSize == 0 {
		o.FontSize = measure.DefaultFontSize
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = measure.DefaultMaxWidth
	}
	if o.NodeSep == 0 {
		o.NodeSep = layout.DefaultNodeSep
	}
	if o.RankSep == 0 {
		o.RankSep = layout.DefaultRankSep
	}
	if o.Margin == 0 {
		o.Margin = pack.DefaultMargin
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Solver == nil {
		o.Solver = layout.NewGraphvizSolver()
	}
	if o.Measurer == nil {
		o.Measurer = measure.Default()
	}
	o.validated = true
	return nil
}

// DetectKeyOpts returns cache key options for the detection stage.
func (o *Options) DetectKeyOpts() cache.DetectKeyOpts {
	return cache.DetectKeyOpts{
		PivotType:      o.PivotType,
		MergeThreshold: o.MergeThreshold,
	}
}

// LayoutKeyOpts returns cache key options for the finished layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		PivotType:      o.PivotType,
		MergeThreshold: o.MergeThreshold,
		NodeSep:        o.NodeSep,
		RankSep:        o.RankSep,
		Margin:         o.Margin,
		FontSize:       o.FontSize,
		MaxWidth:       o.MaxWidth,
	}
}

// measureOptions builds the estimator options for ordinary node labels.
func (o *Options) measureOptions() measure.Options {
	return measure.Options{
		Style:    measure.Style{FontSize: o.FontSize},
		MaxWidth: o.MaxWidth,
	}
}

// Result contains the outputs of one pipeline run.
type Result struct {
	// RunID uniquely identifies this run in logs and API responses.
	RunID string

	// Graph is the snapshot after detection, including synthetic title
	// nodes and edges.
	Graph *graph.Graph

	// SnapshotHash is the content hash of the input snapshot.
	SnapshotHash string

	// Groups are the rendered workflow groups with final bounds.
	Groups []*graph.WorkflowGroup

	// Layout is the finalized layout in global integer coordinates.
	Layout *graph.Layout

	// Warnings collects every recoverable defect hit during the run.
	Warnings errors.Warnings

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	GroupCount int

	DetectTime  time.Duration
	MeasureTime time.Duration
	LayoutTime  time.Duration
	PackTime    time.Duration
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	DetectHit bool // Whether detection came from cache
	LayoutHit bool // Whether the finished layout came from cache
}
