// Package render rasterizes text blocks into standalone RGBA surfaces sized
// to the block's bounding box. The caller owns rotation and compositing of
// the result; this package only produces the unrotated raster.
package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/lingopix-project/lingopix/config"
	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/engine/font"
	"github.com/lingopix-project/lingopix/engine/wrap"
)

// Renderer draws blocks using faces from a shared font resolver.
type Renderer struct {
	fonts *font.Resolver
}

func New(fonts *font.Resolver) *Renderer {
	return &Renderer{fonts: fonts}
}

// Render rasterizes one block onto a transparent surface sized to its
// bounding box. Blank text returns nil. A degenerate bounding box returns a
// visually distinct marker surface instead of failing; a content area
// consumed entirely by padding returns the background plate alone.
func (r *Renderer) Render(b block.Block, style config.Style) image.Image {
	text := strings.TrimSpace(b.TranslatedText)
	if text == "" {
		return nil
	}

	width := int(math.Ceil(b.Box.Width()))
	height := int(math.Ceil(b.Box.Height()))
	if width <= 0 || height <= 0 {
		return errorMarker()
	}

	dc := gg.NewContext(width, height)
	if style.BackgroundColor.A > 0 {
		// The plate covers the whole box, not the text's tight bounds.
		dc.SetColor(style.BackgroundColor)
		dc.Clear()
	}

	innerWidth := width - 2*style.Padding
	innerHeight := height - 2*style.Padding
	if innerWidth <= 0 || innerHeight <= 0 {
		return dc.Image()
	}

	o := b.Orientation.Normalize()
	handle := r.fonts.Resolve(style.FontName, b.FontSizePx)
	charSpacing := style.CharSpacing(o)

	maxDim := innerWidth
	if o.Vertical() {
		maxDim = innerHeight
	}
	res := wrap.Text(handle, text, maxDim, o, charSpacing, style.SegmentSpacing(o))
	if len(res.Segments) == 0 {
		// Wrapping never returns empty segments for non-blank text, but a
		// raster with silently missing text would be worse than a crooked one.
		res.Segments = []string{text}
		res.MaxAchieved = wrap.MeasureSegment(handle, text, charSpacing)
	}

	dc.SetFontFace(handle.Face())
	if o.Vertical() {
		r.drawVertical(dc, handle, b, style, res)
	} else {
		r.drawHorizontal(dc, handle, b, style, res)
	}
	return dc.Image()
}

func (r *Renderer) drawHorizontal(dc *gg.Context, h *font.Handle, b block.Block, style config.Style, res wrap.Result) {
	align := b.Align.Normalize(b.Orientation)
	charSpacing := style.CharSpacing(block.Horizontal)
	breakExtra := style.ManualBreakExtra(block.Horizontal)

	// The block offset and per-line alignment are both computed against the
	// achieved width, so centered and right-aligned text hugs its own extent
	// rather than the whole box.
	blockX := float64(style.Padding)
	innerWidth := dc.Width() - 2*style.Padding
	switch align {
	case block.AlignCenter:
		blockX += float64(innerWidth-res.MaxAchieved) / 2
	case block.AlignRight:
		blockX += float64(innerWidth - res.MaxAchieved)
	}

	y := float64(style.Padding)
	ascent := float64(h.Ascent())
	for _, segment := range res.Segments {
		if segment == "" {
			y += float64(res.SegmentSecondary + breakExtra)
			continue
		}
		lineWidth := wrap.MeasureSegment(h, segment, charSpacing)
		x := blockX
		switch align {
		case block.AlignCenter:
			x += float64(res.MaxAchieved-lineWidth) / 2
		case block.AlignRight:
			x += float64(res.MaxAchieved - lineWidth)
		}
		stampSegment(dc, h, segment, x, y+ascent, charSpacing, style)
		y += float64(res.SegmentSecondary)
	}
}

func (r *Renderer) drawVertical(dc *gg.Context, h *font.Handle, b block.Block, style config.Style, res wrap.Result) {
	o := b.Orientation.Normalize()
	align := b.Align.Normalize(o)
	charSpacing := style.CharSpacing(o)
	colSpacing := style.SegmentSpacing(o)
	breakExtra := style.ManualBreakExtra(o)

	cellWidth := h.CellWidth()
	cellHeight := res.SegmentSecondary
	innerHeight := dc.Height() - 2*style.Padding
	ascent := float64(h.Ascent())

	// RTL columns start at the right edge and walk leftwards.
	x := float64(style.Padding)
	advance := float64(cellWidth + colSpacing)
	if o == block.VerticalRTL {
		x = float64(dc.Width() - style.Padding - cellWidth)
		advance = -advance
	}

	for _, segment := range res.Segments {
		if segment == "" {
			x += advance + math.Copysign(float64(breakExtra), advance)
			continue
		}
		runes := []rune(segment)
		colHeight := len(runes) * cellHeight

		// Alignment drives the column's vertical anchoring: left is top,
		// right is bottom.
		y := float64(style.Padding)
		switch align {
		case block.AlignCenter:
			y += float64(innerHeight-colHeight) / 2
		case block.AlignRight:
			y += float64(innerHeight - colHeight)
		}

		for _, rn := range runes {
			glyph := string(rn)
			glyphX := x + float64(cellWidth-h.MeasureString(glyph))/2
			stampSegment(dc, h, glyph, glyphX, y+ascent, charSpacing, style)
			y += float64(cellHeight)
		}
		x += advance
	}
}

// stampSegment draws one segment at the given baseline, outline first. The
// outline is produced by stamping the text at every offset in a ±thickness
// ring, which is crude but fine at block sizes.
func stampSegment(dc *gg.Context, h *font.Handle, segment string, x, baseline float64, charSpacingPx int, style config.Style) {
	draw := func(c color.RGBA, dx, dy float64) {
		dc.SetColor(c)
		if charSpacingPx == 0 {
			dc.DrawString(segment, x+dx, baseline+dy)
			return
		}
		cx := x + dx
		for _, rn := range segment {
			glyph := string(rn)
			dc.DrawString(glyph, cx, baseline+dy)
			cx += float64(h.MeasureString(glyph) + charSpacingPx)
		}
	}

	if style.OutlineThickness > 0 && style.OutlineColor.A > 0 {
		t := style.OutlineThickness
		for dy := -t; dy <= t; dy++ {
			for dx := -t; dx <= t; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				draw(style.OutlineColor, float64(dx), float64(dy))
			}
		}
	}
	draw(style.MainColor, 0, 0)
}

// FitBox grows the block's bounding box, symmetrically about its center, to
// the wrapped text's required extent plus padding. Boxes only grow, never
// shrink, and each side is clamped to the arena minimum; applying FitBox to
// an already-sufficient box returns it unchanged.
func (r *Renderer) FitBox(b block.Block, style config.Style) block.Box {
	box := b.Box
	text := strings.TrimSpace(b.TranslatedText)
	if text == "" || !box.Valid() {
		return box
	}

	o := b.Orientation.Normalize()
	handle := r.fonts.Resolve(style.FontName, b.FontSizePx)
	charSpacing := style.CharSpacing(o)
	breakExtra := style.ManualBreakExtra(o)

	innerWidth := int(box.Width()) - 2*style.Padding
	innerHeight := int(box.Height()) - 2*style.Padding
	maxDim := innerWidth
	if o.Vertical() {
		maxDim = innerHeight
	}
	if maxDim < 1 {
		maxDim = 1
	}
	res := wrap.Text(handle, text, maxDim, o, charSpacing, style.SegmentSpacing(o))

	extra := breakExtra * manualBreaks(res.Segments)
	var needWidth, needHeight float64
	if o.Vertical() {
		needWidth = float64(res.TotalPrimary + extra + 2*style.Padding)
		needHeight = float64(res.MaxAchieved + 2*style.Padding)
	} else {
		needWidth = float64(res.MaxAchieved + 2*style.Padding)
		needHeight = float64(res.TotalPrimary + extra + 2*style.Padding)
	}

	newWidth := math.Max(box.Width(), math.Max(needWidth, block.MinBoxSide))
	newHeight := math.Max(box.Height(), math.Max(needHeight, block.MinBoxSide))
	if newWidth == box.Width() && newHeight == box.Height() {
		return box
	}

	cx, cy := box.Center()
	return block.Box{
		X0: cx - newWidth/2,
		Y0: cy - newHeight/2,
		X1: cx + newWidth/2,
		Y1: cy + newHeight/2,
	}
}

func manualBreaks(segments []string) int {
	n := 0
	for _, s := range segments {
		if s == "" {
			n++
		}
	}
	return n
}

const errorMarkerSize = 24

// errorMarker is the surface returned for a degenerate bounding box: a red
// cross on a translucent white square, impossible to mistake for content.
func errorMarker() image.Image {
	dc := gg.NewContext(errorMarkerSize, errorMarkerSize)
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.Clear()
	dc.SetRGBA(1, 0, 0, 1)
	dc.SetLineWidth(2)
	dc.DrawLine(2, 2, errorMarkerSize-2, errorMarkerSize-2)
	dc.DrawLine(errorMarkerSize-2, 2, 2, errorMarkerSize-2)
	dc.Stroke()
	return dc.Image()
}
