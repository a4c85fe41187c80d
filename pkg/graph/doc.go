// Package graph defines the canonical data model for workflow call-graphs:
// raw snapshots (nodes, edges, workflow annotations), derived render groups
// and components, geometric primitives, finalized layout output, and the
// snapshot diff engine.
//
// A snapshot arrives from an upstream static-analysis stage, flows through
// detection, measurement, per-workflow layout, packing and finalization, and
// leaves as a [Layout] the rendering layer treats as read-only.
//
// The format is designed for round-trip fidelity: import → compose → export
// → re-import produces identical results given identical input.
package graph
