// Package wrap segments text into lines or columns that fit a pixel limit.
// It walks the text character by character rather than word by word so that
// scripts without spaces wrap correctly.
package wrap

import (
	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/engine/font"
)

// Result describes one wrapping pass.
//
// For horizontal text the segments are lines, TotalPrimary is the summed
// height of all lines, SegmentSecondary is one line's height (spacing
// included) and MaxAchieved is the widest measured line.
//
// For vertical text the segments are columns, TotalPrimary is the total width
// across columns (column spacing included), SegmentSecondary is one character
// cell's height (in-column spacing included) and MaxAchieved is the tallest
// column.
//
// An empty-string segment marks a manual line break. The extra spacing a
// manual break adds is applied by the renderer, never counted here.
type Result struct {
	Segments         []string
	TotalPrimary     int
	SegmentSecondary int
	MaxAchieved      int
}

const estimatedSizePx = 16

// Text wraps text so each segment fits maxDim along the constrained axis.
// charSpacingPx is the spacing between characters within a segment;
// lineOrColSpacingPx is line spacing for horizontal text and inter-column
// spacing for vertical text.
//
// Degenerate input (empty text, non-positive maxDim, nil handle) returns the
// whole text as a single best-effort segment rather than an error. A single
// character wider or taller than maxDim still gets its own segment.
func Text(h *font.Handle, text string, maxDim int, o block.Orientation, charSpacingPx, lineOrColSpacingPx int) Result {
	if o.Normalize().Vertical() {
		return wrapVertical(h, text, maxDim, charSpacingPx, lineOrColSpacingPx)
	}
	return wrapHorizontal(h, text, maxDim, charSpacingPx, lineOrColSpacingPx)
}

func wrapHorizontal(h *font.Handle, text string, maxDim, charSpacingPx, lineSpacingPx int) Result {
	lineHeight := lineHeightOrEstimate(h, lineSpacingPx)

	if text == "" || maxDim <= 0 || h == nil {
		r := Result{SegmentSecondary: lineHeight}
		if text != "" {
			r.Segments = []string{text}
			r.TotalPrimary = lineHeight
			r.MaxAchieved = measureRunes(h, []rune(text), charSpacingPx)
		}
		return r
	}

	var segments []string
	var current []rune
	maxWidth := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, string(current))
		if w := measureRunes(h, current, charSpacingPx); w > maxWidth {
			maxWidth = w
		}
		current = nil
	}

	for _, r := range text {
		if r == '\n' {
			flush()
			segments = append(segments, "")
			continue
		}
		candidate := append(current, r)
		if measureRunes(h, candidate, charSpacingPx) <= maxDim {
			current = candidate
			continue
		}
		// Close the line and carry the overflowing character into a new one.
		// When the line was already empty the character alone exceeds maxDim;
		// it is still placed so wrapping always makes progress.
		flush()
		current = []rune{r}
	}
	flush()

	if len(segments) == 0 && text != "" {
		segments = []string{text}
		maxWidth = measureRunes(h, []rune(text), charSpacingPx)
	}

	return Result{
		Segments:         segments,
		TotalPrimary:     len(segments) * lineHeight,
		SegmentSecondary: lineHeight,
		MaxAchieved:      maxWidth,
	}
}

func wrapVertical(h *font.Handle, text string, maxDim, charSpacingPx, colSpacingPx int) Result {
	cellHeight := lineHeightOrEstimate(h, charSpacingPx)
	cellWidth := cellWidthOrEstimate(h)

	if text == "" || maxDim <= 0 || h == nil {
		r := Result{SegmentSecondary: cellHeight}
		if text != "" {
			r.Segments = []string{text}
			r.TotalPrimary = cellWidth
			r.MaxAchieved = len([]rune(text)) * cellHeight
		}
		return r
	}

	var segments []string
	var current []rune
	currentHeight := 0
	maxHeight := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, string(current))
		if currentHeight > maxHeight {
			maxHeight = currentHeight
		}
		current = nil
		currentHeight = 0
	}

	for _, r := range text {
		if r == '\n' {
			flush()
			segments = append(segments, "")
			continue
		}
		// The first character always enters the column, even when taller
		// than maxDim: a column must make progress.
		if len(current) == 0 || currentHeight+cellHeight <= maxDim {
			current = append(current, r)
			currentHeight += cellHeight
			continue
		}
		flush()
		current = []rune{r}
		currentHeight = cellHeight
	}
	flush()

	if len(segments) == 0 && text != "" {
		segments = []string{text}
		maxHeight = len([]rune(text)) * cellHeight
	}

	totalWidth := 0
	if n := len(segments); n > 0 {
		totalWidth = n * cellWidth
		if n > 1 {
			totalWidth += (n - 1) * colSpacingPx
		}
	}

	return Result{
		Segments:         segments,
		TotalPrimary:     totalWidth,
		SegmentSecondary: cellHeight,
		MaxAchieved:      maxHeight,
	}
}

// MeasureSegment returns the pixel width of one horizontal segment with
// character spacing applied. The renderer uses this for per-line alignment.
func MeasureSegment(h *font.Handle, segment string, charSpacingPx int) int {
	return measureRunes(h, []rune(segment), charSpacingPx)
}

func measureRunes(h *font.Handle, runes []rune, charSpacingPx int) int {
	if len(runes) == 0 {
		return 0
	}
	if h == nil {
		return len(runes) * estimatedSizePx / 2
	}
	w := h.MeasureString(string(runes))
	if charSpacingPx != 0 && len(runes) > 1 {
		w += charSpacingPx * (len(runes) - 1)
	}
	return w
}

func lineHeightOrEstimate(h *font.Handle, extraSpacingPx int) int {
	if h == nil {
		return estimatedSizePx*120/100 + extraSpacingPx
	}
	return h.LineHeight(extraSpacingPx)
}

func cellWidthOrEstimate(h *font.Handle) int {
	if h == nil {
		return estimatedSizePx
	}
	return h.CellWidth()
}
