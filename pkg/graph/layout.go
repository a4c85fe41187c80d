package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Finalized Pipeline Output
// =============================================================================

// Layout is the finalized output of one pipeline run: every rendered group
// with member nodes carrying final positions and sizes, routed edges, and
// label anchors, all in one canvas-global integer coordinate space.
//
// The rendering layer treats a Layout as read-only input for drawing; it must
// not write back into it except by requesting a new pipeline run.
type Layout struct {
	// Canvas dimensions covering all packed groups.
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Rendered workflow groups. Nodes inside carry final X/Y/Width/Height
	// (X/Y are centroids). Group and component bounds are final.
	Groups []*WorkflowGroup `json:"groups" bson:"groups"`

	// Routes holds one routed polyline per rendered edge, keyed by
	// RouteKey(workflowID, source, target).
	Routes map[string]EdgeRoute `json:"routes,omitempty" bson:"routes,omitempty"`

	// Labels holds edge-label anchor points, keyed like Routes.
	Labels map[string]Point `json:"labels,omitempty" bson:"labels,omitempty"`
}

// NodeCount returns the total number of nodes across all groups.
func (l *Layout) NodeCount() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Nodes)
	}
	return n
}

// Group returns the group with the given ID, or nil.
func (l *Layout) Group(id string) *WorkflowGroup {
	for _, g := range l.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l *Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l *Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
