package measure

import (
	"math"
	"strings"
)

// Defaults for estimation options. These track the node styling used by the
// rendering layer; a consumer with different styling passes its own Options.
const (
	DefaultFontSize   = 12.0
	DefaultMaxWidth   = 220.0
	DefaultMinWidth   = 60.0
	DefaultPaddingX   = 14.0
	DefaultPaddingY   = 10.0
	DefaultLineHeight = 1.3
)

// DefaultSize is returned whenever the measurement substrate is unavailable.
var DefaultSize = Size{Width: 160, Height: 48}

// Options constrain one estimation call. The zero value gets all defaults.
type Options struct {
	Style Style

	// MaxWidth is the content-width threshold above which the label wraps.
	MaxWidth float64
	// MinWidth is the floor of the tight-fit search.
	MinWidth float64
	// PaddingX and PaddingY are added on each side of the measured content.
	PaddingX float64
	PaddingY float64
	// LineHeight is a multiplier of the font size.
	LineHeight float64
}

func (o Options) withDefaults() Options {
	if o.Style.FontSize == 0 {
		o.Style.FontSize = DefaultFontSize
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MinWidth == 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.PaddingX == 0 {
		o.PaddingX = DefaultPaddingX
	}
	if o.PaddingY == 0 {
		o.PaddingY = DefaultPaddingY
	}
	if o.LineHeight == 0 {
		o.LineHeight = DefaultLineHeight
	}
	return o
}

// Estimator turns labels into tight-fitting box dimensions using an injected
// Measurer.
type Estimator struct {
	m Measurer
}

// NewEstimator creates an estimator on top of the given measurer.
// A nil measurer yields an estimator that always returns DefaultSize.
func NewEstimator(m Measurer) *Estimator {
	return &Estimator{m: m}
}

// Measure returns a tight-fitting (width, height) for the label.
//
// A label that fits on one line under MaxWidth gets padded single-line
// dimensions. Longer labels wrap at MaxWidth to establish a line count, then
// a binary search finds the narrowest width in [MinWidth, MaxWidth] that does
// not increase that count, which yields the visually tightest multi-line box.
// Measurement failures degrade to DefaultSize; Measure never fails.
func (e *Estimator) Measure(label string, opts Options) Size {
	opts = opts.withDefaults()
	if e.m == nil || label == "" {
		return DefaultSize
	}

	single, err := e.m.MeasureString(label, opts.Style)
	if err != nil {
		return DefaultSize
	}

	lineHeight := opts.Style.FontSize * opts.LineHeight
	if single.Width <= opts.MaxWidth {
		return Size{
			Width:  math.Ceil(single.Width + 2*opts.PaddingX),
			Height: math.Ceil(lineHeight + 2*opts.PaddingY),
		}
	}

	lines, err := e.wrap(label, opts.MaxWidth, opts.Style)
	if err != nil {
		return DefaultSize
	}
	wrapped := len(lines)

	// Narrowest width that still wraps to the same number of lines.
	lo, hi := opts.MinWidth, opts.MaxWidth
	for hi-lo > 1 {
		mid := math.Floor((lo + hi) / 2)
		trial, werr := e.wrap(label, mid, opts.Style)
		if werr != nil {
			return DefaultSize
		}
		if len(trial) > wrapped {
			lo = mid
		} else {
			hi = mid
		}
	}

	lines, err = e.wrap(label, hi, opts.Style)
	if err != nil {
		return DefaultSize
	}

	widest := 0.0
	for _, line := range lines {
		sz, merr := e.m.MeasureString(line, opts.Style)
		if merr != nil {
			return DefaultSize
		}
		widest = math.Max(widest, sz.Width)
	}

	return Size{
		Width:  math.Ceil(widest + 2*opts.PaddingX),
		Height: math.Ceil(float64(len(lines))*lineHeight + 2*opts.PaddingY),
	}
}

// wrap greedily breaks the label into lines no wider than avail. A single
// word wider than avail is hyphenated mid-word.
func (e *Estimator) wrap(label string, avail float64, style Style) ([]string, error) {
	words := strings.Fields(label)
	if len(words) == 0 {
		return []string{label}, nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		wsz, err := e.m.MeasureString(word, style)
		if err != nil {
			return nil, err
		}
		if wsz.Width > avail {
			// Flush the current line, then emit hyphenated chunks.
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			chunks, err := e.hyphenate(word, avail, style)
			if err != nil {
				return nil, err
			}
			lines = append(lines, chunks[:len(chunks)-1]...)
			current = chunks[len(chunks)-1]
			continue
		}

		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		csz, err := e.m.MeasureString(candidate, style)
		if err != nil {
			return nil, err
		}
		if csz.Width <= avail {
			current = candidate
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines, nil
}

// hyphenate splits one oversized word into chunks that each fit avail with a
// trailing hyphen (the final chunk carries none). The last chunk is returned
// unflushed so wrap can continue the line with following words.
func (e *Estimator) hyphenate(word string, avail float64, style Style) ([]string, error) {
	runes := []rune(word)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) {
			sz, err := e.m.MeasureString(string(runes[start:end+1])+"-", style)
			if err != nil {
				return nil, err
			}
			if sz.Width > avail {
				break
			}
			end++
		}
		if end < len(runes) {
			chunks = append(chunks, string(runes[start:end])+"-")
		} else {
			chunks = append(chunks, string(runes[start:end]))
		}
		start = end
	}
	if len(chunks) == 0 {
		chunks = []string{word}
	}
	return chunks, nil
}
