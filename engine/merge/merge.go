// Package merge reconciles raw OCR fragments into logical text lines. OCR
// engines return isolated word or character detections; this package decides
// which of them belong together, using geometric proximity and
// sentence-boundary punctuation.
package merge

import (
	"math"
	"sort"
	"strings"

	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/pkg/utils"
)

// Fragment is one atomic OCR detection: a piece of text with its bounding
// polygon reduced to an axis-aligned box.
type Fragment struct {
	Text string
	Box  block.Box
}

// NewFragment builds a fragment from a 4-point polygon in any vertex order.
// It returns false for empty text, a malformed polygon or a zero-area box.
func NewFragment(text string, polygon [][2]float64) (Fragment, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(polygon) != 4 {
		return Fragment{}, false
	}
	box := block.Box{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, p := range polygon {
		box.X0 = math.Min(box.X0, math.Round(p[0]))
		box.Y0 = math.Min(box.Y0, math.Round(p[1]))
		box.X1 = math.Max(box.X1, math.Round(p[0]))
		box.Y1 = math.Max(box.Y1, math.Round(p[1]))
	}
	if !box.Valid() {
		return Fragment{}, false
	}
	return Fragment{Text: text, Box: box}, true
}

// NewFragmentFlat builds a fragment from a flat [x1,y1,...,x4,y4] polygon,
// the other wire form OCR engines use.
func NewFragmentFlat(text string, coords []float64) (Fragment, bool) {
	if len(coords) != 8 {
		return Fragment{}, false
	}
	polygon := make([][2]float64, 4)
	for i := 0; i < 4; i++ {
		polygon[i] = [2]float64{coords[2*i], coords[2*i+1]}
	}
	return NewFragment(text, polygon)
}

// Span is a merged run of fragments judged to form one logical line.
type Span struct {
	Text string
	Box  block.Box
}

// Proximity holds the geometric thresholds of the horizontal merge test,
// expressed as ratios of the fragments' average height. The defaults are
// empirical tuning values; they are roughly right rather than exact physics.
type Proximity struct {
	// MaxVerticalDiffRatio bounds the difference of the two vertical
	// center lines.
	MaxVerticalDiffRatio float64
	// MaxHorizontalGapRatio bounds the gap between the left fragment's
	// right edge and the candidate's left edge.
	MaxHorizontalGapRatio float64
	// MaxLeadingOverlapRatio bounds how far the candidate may start before
	// the left fragment's left edge and still count as a continuation.
	MaxLeadingOverlapRatio float64
}

// DefaultProximity matches the tuning the merge heuristics shipped with.
var DefaultProximity = Proximity{
	MaxVerticalDiffRatio:   0.6,
	MaxHorizontalGapRatio:  1.5,
	MaxLeadingOverlapRatio: 0.5,
}

// Lines merges fragments into spans using the default proximity thresholds.
// langHint decides whether merged texts are space-joined (non-CJK languages).
func Lines(fragments []Fragment, langHint string) []Span {
	return LinesWithProximity(fragments, langHint, DefaultProximity)
}

// LinesWithProximity is Lines with explicit thresholds.
func LinesWithProximity(fragments []Fragment, langHint string, prox Proximity) []Span {
	valid := utils.Filter(fragments, func(f Fragment) bool {
		return strings.TrimSpace(f.Text) != "" && f.Box.Valid()
	})
	if len(valid) == 0 {
		return []Span{}
	}

	// Top-to-bottom, then left-to-right: the scan order that makes greedy
	// line-building correct for left-to-right horizontal text.
	sorted := make([]Fragment, len(valid))
	copy(sorted, valid)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y0 != sorted[j].Box.Y0 {
			return sorted[i].Box.Y0 < sorted[j].Box.Y0
		}
		return sorted[i].Box.X0 < sorted[j].Box.X0
	})

	spaceJoined := !isCJKHint(langHint)
	consumed := make([]bool, len(sorted))
	var spans []Span

	for i := range sorted {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		span := Span{Text: sorted[i].Text, Box: sorted[i].Box}
		last := sorted[i]

		for j := i + 1; j < len(sorted); j++ {
			if consumed[j] {
				continue
			}
			candidate := sorted[j]
			// A span that already reads as a complete sentence stops
			// absorbing fragments.
			if isSentenceEnd(span.Text) || !inProximity(last.Box, candidate.Box, prox) {
				// Fragments are sorted; once one candidate fails, later
				// ones are even less likely to be adjacent.
				break
			}
			span.Text += joiner(span.Text, candidate.Text, spaceJoined) + candidate.Text
			span.Box = span.Box.Union(candidate.Box)
			last = candidate
			consumed[j] = true
		}
		spans = append(spans, span)
	}
	return spans
}

// cjkHints are the language hints whose scripts are written without spaces.
var cjkHints = []string{"ja", "zh", "ko", "jpn", "chi_sim", "kor", "chinese_sim"}

func isCJKHint(langHint string) bool {
	return utils.Contains(cjkHints, strings.ToLower(strings.TrimSpace(langHint)))
}

func joiner(left, right string, spaceJoined bool) string {
	if !spaceJoined || left == "" || right == "" {
		return ""
	}
	if strings.HasSuffix(left, "-") || strings.HasSuffix(left, "=") || strings.HasSuffix(left, "#") {
		return ""
	}
	switch []rune(right)[0] {
	case '.', ',', '!', '?', ':', ';':
		return ""
	}
	return " "
}

const sentenceEndChars = "。、！？.!?"
const closingBrackets = "」』）)】]\"'"

// isSentenceEnd reports whether text reads as a finished sentence: it ends
// with terminal punctuation, possibly wrapped in closing brackets or quotes
// ("...。」" style endings).
func isSentenceEnd(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	runes := []rune(text)
	last := runes[len(runes)-1]

	if strings.ContainsRune(sentenceEndChars, last) {
		return true
	}
	if strings.ContainsRune(closingBrackets, last) {
		// Strip trailing brackets and spaces, then test what precedes them.
		inner := runes[:len(runes)-1]
		for len(inner) > 0 {
			r := inner[len(inner)-1]
			if r == ' ' || strings.ContainsRune(closingBrackets, r) {
				inner = inner[:len(inner)-1]
				continue
			}
			break
		}
		if len(inner) > 0 && strings.ContainsRune(sentenceEndChars, inner[len(inner)-1]) {
			return true
		}
	}
	return false
}

// inProximity decides whether candidate continues left rightward on the same
// visual line.
func inProximity(left, candidate block.Box, prox Proximity) bool {
	// left entirely to the right of candidate: wrong scan direction.
	if left.X0 > candidate.X0 && left.X1 > candidate.X1 && left.X0 > candidate.X1 {
		return false
	}

	h1, h2 := left.Height(), candidate.Height()
	if h1 <= 0 || h2 <= 0 {
		return false
	}
	avgHeight := (h1 + h2) / 2

	centerDiff := math.Abs((left.Y0+left.Y1)/2 - (candidate.Y0+candidate.Y1)/2)
	if centerDiff > avgHeight*prox.MaxVerticalDiffRatio {
		return false
	}

	if left.X1 <= candidate.X0 {
		// Strict gap between the boxes.
		if candidate.X0-left.X1 > avgHeight*prox.MaxHorizontalGapRatio {
			return false
		}
	} else if candidate.X0 < left.X0 {
		// The candidate starts before the merged fragment; a small overlap
		// is noise, a large one means it is not a rightward continuation.
		if left.X0-candidate.X0 > avgHeight*prox.MaxLeadingOverlapRatio {
			return false
		}
	}
	return true
}
