// Package detect partitions a raw call-graph snapshot into rendered workflow
// groups and collapsible components.
//
// Two modes exist. When the snapshot carries workflow annotations from the
// upstream analyzer, detection merges duplicate records, union-finds
// workflows joined by cross-workflow edges, attaches orphan endpoints, and
// splits every merged workflow into its weakly-connected fragments, emitting
// one group per fragment. Without annotations, detection falls back to
// seeding a bidirectional walk from every pivot-typed node (an LLM call by
// default).
//
// Groups below the three-node floor are discarded. Each surviving group gets
// a synthetic title node wired into its entry nodes; those synthetic members
// are appended to the input snapshot in place so downstream layout treats
// them as ordinary graph members.
//
// Output ordering is deterministic: groups sort by display name, and all
// internal traversals iterate node IDs in sorted order.
package detect
