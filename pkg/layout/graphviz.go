package layout

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
)

// Graphviz sizes in inches, pixel coordinates map 1:1 onto points.
const pointsPerInch = 72.0

// GraphvizSolver implements Solver with Graphviz dot (layered top-down
// placement, orthogonal splines). The engine runs in-process via wazero, so
// no graphviz binary is required on the host.
type GraphvizSolver struct{}

// NewGraphvizSolver returns the default solver.
func NewGraphvizSolver() *GraphvizSolver { return &GraphvizSolver{} }

// Solve renders the input through dot and parses the attributed output back
// into top-left anchored pixel coordinates.
func (s *GraphvizSolver) Solve(ctx context.Context, in SolverInput) (*SolverResult, error) {
	dot := buildDOT(in)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSolver, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSolver, err, "parse dot")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSolver, err, "solve layout")
	}

	return parseSolved(buf.String(), in)
}

// buildDOT writes the solver input as DOT text. Node boxes are fixed-size so
// dot never resizes them; labels are blank for the same reason. Edge labels
// are forwarded so dot reserves space and emits an lp anchor.
func buildDOT(in SolverInput) string {
	opts := in.Options.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  splines=ortho;\n")
	fmt.Fprintf(&buf, "  nodesep=%.3f;\n", opts.NodeSep/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.3f;\n", opts.RankSep/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for _, n := range in.Nodes {
		fmt.Fprintf(&buf, "  %q [width=%.4f, height=%.4f];\n",
			n.ID, n.Width/pointsPerInch, n.Height/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, e := range in.Edges {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// parseSolved reads dot's attributed output. Graphviz positions are in
// points with a bottom-left origin and center-anchored nodes; everything is
// normalized to top-left anchored, y-down pixels here so the rest of the
// package never sees graphviz conventions.
func parseSolved(out string, in SolverInput) (*SolverResult, error) {
	edgeIDs := make(map[string]string, len(in.Edges))
	for _, e := range in.Edges {
		edgeIDs[e.Source+"->"+e.Target] = e.ID
	}

	res := &SolverResult{
		Nodes:  make(map[string]SolvedNode, len(in.Nodes)),
		Routes: make(map[string][]graph.Point, len(in.Edges)),
		Labels: make(map[string]graph.Point),
	}

	// Long quoted values are wrapped with backslash continuations; attribute
	// lists additionally wrap across plain newlines after commas.
	out = strings.ReplaceAll(out, "\\\r\n", "")
	out = strings.ReplaceAll(out, "\\\n", "")

	var bbH float64
	for _, stmt := range splitStatements(out) {
		open := strings.Index(stmt, "[")
		closing := strings.LastIndex(stmt, "]")
		if open < 0 || closing < open {
			continue
		}
		head := strings.TrimSpace(stmt[:open])
		if i := strings.LastIndex(head, "{"); i >= 0 {
			head = strings.TrimSpace(head[i+1:])
		}
		attrs := parseAttrs(stmt[open+1 : closing])

		switch {
		case head == "graph":
			bb, ok := attrs["bb"]
			if !ok {
				continue
			}
			parts := strings.Split(bb, ",")
			if len(parts) != 4 {
				return nil, errors.New(errors.ErrCodeSolver, "malformed bounding box %q", bb)
			}
			res.Width, _ = strconv.ParseFloat(parts[2], 64)
			res.Height, _ = strconv.ParseFloat(parts[3], 64)
			bbH = res.Height

		case head == "node" || head == "edge":
			// Default attribute statements.

		case strings.Contains(head, "->"):
			parts := strings.SplitN(head, "->", 2)
			src := unquoteID(strings.TrimSpace(parts[0]))
			tgt := unquoteID(strings.TrimSpace(parts[1]))
			id, ok := edgeIDs[src+"->"+tgt]
			if !ok {
				continue
			}
			if pos, ok := attrs["pos"]; ok {
				if pts := parseSpline(pos, bbH); len(pts) >= 2 {
					res.Routes[id] = pts
				}
			}
			if lp, ok := attrs["lp"]; ok {
				if p, ok := parsePoint(lp, bbH); ok {
					res.Labels[id] = p
				}
			}

		default:
			id := unquoteID(head)
			pos, ok := attrs["pos"]
			if !ok {
				continue
			}
			w, errW := strconv.ParseFloat(attrs["width"], 64)
			h, errH := strconv.ParseFloat(attrs["height"], 64)
			if errW != nil || errH != nil {
				continue
			}
			center, ok := parseRawPoint(pos)
			if !ok {
				continue
			}
			w *= pointsPerInch
			h *= pointsPerInch
			res.Nodes[id] = SolvedNode{
				X:      center.X - w/2,
				Y:      (bbH - center.Y) - h/2,
				Width:  w,
				Height: h,
			}
		}
	}

	if res.Width == 0 && res.Height == 0 && len(in.Nodes) > 0 {
		return nil, errors.New(errors.ErrCodeSolver, "no bounding box in solver output")
	}
	return res, nil
}

// splitStatements breaks dot text into semicolon-terminated statements,
// ignoring semicolons inside quoted values, and collapses each statement's
// internal whitespace.
func splitStatements(s string) []string {
	var stmts []string
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' && (i == 0 || s[i-1] != '\\') {
			inQuote = !inQuote
		}
		if c == ';' && !inQuote {
			if stmt := strings.Join(strings.Fields(b.String()), " "); stmt != "" {
				stmts = append(stmts, stmt)
			}
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	if stmt := strings.Join(strings.Fields(b.String()), " "); stmt != "" {
		stmts = append(stmts, stmt)
	}
	return stmts
}

// parseSpline reads an edge pos attribute: optional "s,x,y" and "e,x,y"
// endpoint markers plus the spline points in drawing order.
func parseSpline(pos string, bbH float64) []graph.Point {
	var start, end *graph.Point
	var pts []graph.Point
	for _, tok := range strings.Fields(pos) {
		switch {
		case strings.HasPrefix(tok, "e,"):
			if p, ok := parsePoint(tok[2:], bbH); ok {
				end = &p
			}
		case strings.HasPrefix(tok, "s,"):
			if p, ok := parsePoint(tok[2:], bbH); ok {
				start = &p
			}
		default:
			if p, ok := parsePoint(tok, bbH); ok {
				pts = append(pts, p)
			}
		}
	}
	if start != nil {
		pts = append([]graph.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts
}

func parsePoint(s string, bbH float64) (graph.Point, bool) {
	p, ok := parseRawPoint(s)
	if !ok {
		return graph.Point{}, false
	}
	return graph.Point{X: p.X, Y: bbH - p.Y}, true
}

// parseRawPoint reads "x,y" without flipping the y axis.
func parseRawPoint(s string) (graph.Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return graph.Point{}, false
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return graph.Point{}, false
	}
	return graph.Point{X: x, Y: y}, true
}

// parseAttrs scans a dot attribute list ("key=val, key2="quoted val"") into
// a map. Escaped quotes inside quoted values are unescaped.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == ',' || s[i] == '\t') {
			i++
		}
		start := i
		for i < len(s) && s[i] != '=' {
			i++
		}
		if i >= len(s) {
			break
		}
		key := strings.TrimSpace(s[start:i])
		i++
		var val string
		if i < len(s) && s[i] == '"' {
			i++
			var b strings.Builder
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				b.WriteByte(s[i])
				i++
			}
			i++
			val = b.String()
		} else {
			start = i
			for i < len(s) && s[i] != ',' && s[i] != ' ' && s[i] != '\t' {
				i++
			}
			val = s[start:i]
		}
		if key != "" {
			attrs[key] = val
		}
	}
	return attrs
}

func unquoteID(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if un, err := strconv.Unquote(s); err == nil {
			return un
		}
		return s[1 : len(s)-1]
	}
	return s
}
