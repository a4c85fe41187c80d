// Package layout turns one workflow group into positioned nodes, routed
// edges, and label anchors.
//
// The heavy lifting is delegated to an external constraint solver behind the
// [Solver] interface; the default implementation drives Graphviz dot. The
// orchestrator in this package owns everything around the solver call:
// collapsing components into placeholder nodes, deduplicating and merging
// bidirectional edges, converting the solver's top-left anchored boxes into
// centroid coordinates, and computing the local bounding box from node
// extents and route points alike.
//
// All orchestrator output is in a workflow-local coordinate space with y
// growing downward. Global placement happens later in pkg/pack and the
// pipeline finalizer.
package layout
