// Package measure computes tight-fitting box dimensions for node labels.
//
// The package separates two concerns:
//
//   - A [Measurer] is a narrow text-shaping capability: it measures one line
//     of text under a style and nothing else. Implementations may use any
//     backend; [FontMeasurer] shapes with a real TrueType face while
//     [RatioMeasurer] approximates from per-rune width ratios. Tests
//     substitute deterministic stubs.
//   - The [Estimator] owns the fitting policy: single-line fast path,
//     greedy word wrap with mid-word hyphenation, and a binary search for
//     the narrowest width that keeps the wrapped line count.
//
// Estimation never fails: when the measurement substrate is unavailable the
// estimator returns a fixed default size.
package measure

// Style carries the text styling constraints a backend needs to measure one
// line of text.
type Style struct {
	FontSize   float64 // point size; 0 means DefaultFontSize
	FontFamily string  // advisory; ratio backends ignore it
}

// Size is a measured (width, height) in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Measurer measures a single line of text under a style. Implementations must
// be safe for concurrent use.
type Measurer interface {
	MeasureString(text string, style Style) (Size, error)
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func(text string, style Style) (Size, error)

// MeasureString calls f.
func (f MeasurerFunc) MeasureString(text string, style Style) (Size, error) {
	return f(text, style)
}
