package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/michaelzixizhou/codag/pkg/cache"
	"github.com/michaelzixizhou/codag/pkg/detect"
	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/layout"
	"github.com/michaelzixizhou/codag/pkg/measure"
	"github.com/michaelzixizhou/codag/pkg/observability"
	"github.com/michaelzixizhou/codag/pkg/pack"
)

// Runner encapsulates pipeline execution with caching.
// CLI, serve, and watch modes all use this to avoid duplicating caching
// logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete detect → measure → layout → pack → finalize
// chain over one snapshot. The snapshot is cloned first; the caller's copy
// is never mutated.
//
// Recoverable defects (dangling edges, dropped groups, solver failures for
// a single workflow) end up in Result.Warnings; Execute only fails on
// malformed input or when no workflow survives.
func (r *Runner) Execute(ctx context.Context, snapshot *graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if snapshot == nil {
		return nil, errors.New(errors.ErrCodeInvalidSnapshot, "snapshot is nil")
	}

	result := &Result{RunID: uuid.NewString()}
	result.Stats.NodeCount = len(snapshot.Nodes)
	result.Stats.EdgeCount = len(snapshot.Edges)

	data, err := graph.MarshalGraph(snapshot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "serialize snapshot")
	}
	result.SnapshotHash = cache.Hash(data)

	// The finished layout is the most expensive artifact; try it first.
	layoutKey := r.Keyer.LayoutKey(result.SnapshotHash, opts.LayoutKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, layoutKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				result.Layout = cached
				result.Groups = cached.Groups
				result.Stats.GroupCount = len(cached.Groups)
				result.CacheInfo.LayoutHit = true
				opts.Logger.Info("layout cache hit", "hash", shortHash(result.SnapshotHash))
				return result, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	// Stage 1: Detect
	observability.Pipeline().OnDetectStart(ctx, result.Stats.NodeCount, result.Stats.EdgeCount)
	detectStart := time.Now()
	g, groups, detectHit, warns := r.detectWithCacheInfo(ctx, snapshot, result.SnapshotHash, opts)
	result.Graph = g
	result.Groups = groups
	result.Warnings.Merge(warns)
	result.Stats.DetectTime = time.Since(detectStart)
	result.Stats.GroupCount = len(groups)
	result.CacheInfo.DetectHit = detectHit
	observability.Pipeline().OnDetectComplete(ctx, len(groups), result.Stats.DetectTime)

	opts.Logger.Info("detected workflows",
		"groups", len(groups),
		"warnings", len(warns),
		"duration", result.Stats.DetectTime)

	if len(groups) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "no workflow group meets the %d-node minimum", graph.MinGroupSize)
	}

	// Stage 2: Measure
	measureStart := time.Now()
	r.measureNodes(g, groups, opts)
	result.Stats.MeasureTime = time.Since(measureStart)

	// Stage 3: Layout, one workflow at a time. A solver failure drops that
	// workflow and the run continues.
	layoutStart := time.Now()
	est := measure.NewEstimator(opts.Measurer)
	var arranged []*layout.Result
	for _, grp := range groups {
		observability.Pipeline().OnSolveStart(ctx, grp.ID, len(grp.Nodes))
		solveStart := time.Now()
		res, lwarns, err := layout.Arrange(ctx, grp, g, layout.Options{
			Solver:    opts.Solver,
			Estimator: est,
			SolverOptions: layout.SolverOptions{
				NodeSep: opts.NodeSep,
				RankSep: opts.RankSep,
			},
		})
		observability.Pipeline().OnSolveComplete(ctx, grp.ID, time.Since(solveStart), err)
		result.Warnings.Merge(lwarns)
		if err != nil {
			result.Warnings.Add(errors.ErrCodeSolver, grp.ID, "workflow dropped: %s", errors.UserMessage(err))
			opts.Logger.Warn("workflow dropped", "group", grp.ID, "err", err)
			continue
		}
		if res != nil {
			arranged = append(arranged, res)
		}
	}
	result.Stats.LayoutTime = time.Since(layoutStart)

	if len(arranged) == 0 {
		return nil, errors.New(errors.ErrCodeSolver, "all workflows failed layout")
	}

	opts.Logger.Info("solved layouts",
		"workflows", len(arranged),
		"duration", result.Stats.LayoutTime)

	// Stages 4+5: Pack and finalize, strictly after every workflow's local
	// layout exists.
	packStart := time.Now()
	boxes := make([]pack.Box, len(arranged))
	for i, res := range arranged {
		boxes[i] = pack.Box{Width: res.Bounds.Width, Height: res.Bounds.Height}
	}
	offsets := pack.Pack(boxes, opts.Margin)
	final := Finalize(arranged, offsets, groups)
	result.Stats.PackTime = time.Since(packStart)
	result.Layout = final
	observability.Pipeline().OnPackComplete(ctx, len(final.Groups), final.Width, final.Height, result.Stats.PackTime)

	if data, err := graph.MarshalLayout(final); err == nil {
		_ = r.Cache.Set(ctx, layoutKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	opts.Logger.Info("packed canvas",
		"width", final.Width,
		"height", final.Height,
		"duration", result.Stats.PackTime)

	return result, nil
}

// detectPayload is the cached form of a detection run: the snapshot after
// title-node synthesis plus the derived groups. Groups reference nodes by
// value after a cache round trip, which is fine because later stages only
// read them.
type detectPayload struct {
	Graph    *graph.Graph           `json:"graph"`
	Groups   []*graph.WorkflowGroup `json:"groups"`
	Warnings errors.Warnings        `json:"warnings,omitempty"`
}

// detectWithCacheInfo runs detection with caching. The returned graph is a
// clone of the input with synthetic members appended; the input snapshot is
// left untouched.
func (r *Runner) detectWithCacheInfo(ctx context.Context, snapshot *graph.Graph, hash string, opts Options) (*graph.Graph, []*graph.WorkflowGroup, bool, errors.Warnings) {
	key := r.Keyer.DetectKey(hash, opts.DetectKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var payload detectPayload
			if err := json.Unmarshal(data, &payload); err == nil && payload.Graph != nil {
				observability.Cache().OnCacheHit(ctx, "detect")
				reattachGroups(payload.Graph, payload.Groups)
				return payload.Graph, payload.Groups, true, payload.Warnings
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "detect")

	g := snapshot.Clone()
	groups, warns := detect.Detect(g, detect.Options{
		PivotType:      opts.PivotType,
		MergeThreshold: opts.MergeThreshold,
	})

	if data, err := json.Marshal(detectPayload{Graph: g, Groups: groups, Warnings: warns}); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLDetect)
		observability.Cache().OnCacheSet(ctx, "detect", len(data))
	}

	return g, groups, false, warns
}

// reattachGroups rebinds group and component node pointers to the graph's
// own node objects after a cache round trip, so measurement writes are
// visible everywhere.
func reattachGroups(g *graph.Graph, groups []*graph.WorkflowGroup) {
	index := g.NodeIndex()
	for _, grp := range groups {
		for i, n := range grp.Nodes {
			if shared, ok := index[n.ID]; ok {
				grp.Nodes[i] = shared
			}
		}
		for _, c := range grp.Components {
			for i, n := range c.Nodes {
				if shared, ok := index[n.ID]; ok {
					c.Nodes[i] = shared
				}
			}
		}
	}
}

// measureNodes sizes every rendered node box in place. Nodes shared by two
// groups are measured once; synthetic title nodes use the title type's
// larger font.
func (r *Runner) measureNodes(g *graph.Graph, groups []*graph.WorkflowGroup, opts Options) {
	est := measure.NewEstimator(opts.Measurer)
	nodeOpts := opts.measureOptions()
	titleOpts := nodeOpts
	titleOpts.Style.FontSize = layout.TitleFontSize

	seen := make(map[string]bool)
	for _, grp := range groups {
		for _, n := range grp.Nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			mo := nodeOpts
			if n.Type == graph.TypeTitle {
				mo = titleOpts
			}
			size := est.Measure(n.DisplayLabel(), mo)
			n.Width = size.Width
			n.Height = size.Height
		}
	}
}

// applyLogger points opts at the runner's logger when the caller didn't
// supply one.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
