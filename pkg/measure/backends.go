package measure

import (
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/fogleman/gg"

	"github.com/michaelzixizhou/codag/pkg/errors"
)

// Per-rune width ratios relative to the font size. The default ratio matches
// the box-label styling used for node rendering.
const (
	ratioDefault = 0.55
	ratioNarrow  = 0.30
	ratioWide    = 0.85
)

const (
	narrowRunes = "ilj1.,:;!|'`[]() "
	wideRunes   = "mwMW@"
)

// RatioMeasurer approximates line metrics from per-rune width ratios. It
// needs no font files and is fully deterministic, which makes it the fallback
// substrate and the default for tests.
type RatioMeasurer struct{}

// NewRatioMeasurer creates a ratio-based measurer.
func NewRatioMeasurer() *RatioMeasurer { return &RatioMeasurer{} }

// MeasureString implements Measurer. It never fails.
func (m *RatioMeasurer) MeasureString(text string, style Style) (Size, error) {
	size := style.FontSize
	if size == 0 {
		size = DefaultFontSize
	}
	width := 0.0
	for _, r := range text {
		switch {
		case containsRune(narrowRunes, r):
			width += size * ratioNarrow
		case containsRune(wideRunes, r):
			width += size * ratioWide
		default:
			width += size * ratioDefault
		}
	}
	return Size{Width: width, Height: size}, nil
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

// FontMeasurer shapes text with a real TrueType face located on the host
// system. Drawing contexts are cached per font size behind a mutex; the cache
// lives on the measurer, never in package state.
type FontMeasurer struct {
	path string

	mu   sync.Mutex
	ctxs map[float64]*gg.Context
}

// NewFontMeasurer locates the named font file (e.g. "DejaVuSans.ttf") on the
// system and returns a measurer shaping with it. Returns
// ErrCodeMeasureUnavailable when the font cannot be found.
func NewFontMeasurer(fontName string) (*FontMeasurer, error) {
	path, err := findfont.Find(fontName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMeasureUnavailable, err, "font %q not found", fontName)
	}
	return &FontMeasurer{path: path, ctxs: make(map[float64]*gg.Context)}, nil
}

// MeasureString implements Measurer.
func (m *FontMeasurer) MeasureString(text string, style Style) (Size, error) {
	size := style.FontSize
	if size == 0 {
		size = DefaultFontSize
	}

	dc, err := m.context(size)
	if err != nil {
		return Size{}, err
	}

	m.mu.Lock()
	w, h := dc.MeasureString(text)
	m.mu.Unlock()
	return Size{Width: w, Height: h}, nil
}

func (m *FontMeasurer) context(size float64) (*gg.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dc, ok := m.ctxs[size]; ok {
		return dc, nil
	}
	dc := gg.NewContext(1, 1)
	if err := dc.LoadFontFace(m.path, size); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMeasureUnavailable, err,
			"load font face %s at %gpt", m.path, size)
	}
	m.ctxs[size] = dc
	return dc, nil
}

// candidate font files tried by Default, in order.
var defaultFonts = []string{"DejaVuSans.ttf", "Arial.ttf", "Helvetica.ttf", "LiberationSans-Regular.ttf"}

// Default returns the best available measurer: a FontMeasurer over a common
// sans-serif face when one is installed, otherwise the ratio fallback.
func Default() Measurer {
	for _, name := range defaultFonts {
		if m, err := NewFontMeasurer(name); err == nil {
			return m
		}
	}
	return NewRatioMeasurer()
}

var _ Measurer = (*RatioMeasurer)(nil)
var _ Measurer = (*FontMeasurer)(nil)
