// Package block holds the user-facing text block model: the unit that carries
// original and translated text, its geometry on the page, and its style hints.
package block

import (
	"math"

	"github.com/google/uuid"
)

// Box is an axis-aligned bounding box in page pixel coordinates.
type Box struct {
	X0, Y0, X1, Y1 float64
}

func (b Box) Width() float64  { return b.X1 - b.X0 }
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Valid reports whether the box has positive area.
func (b Box) Valid() bool { return b.X1 > b.X0 && b.Y1 > b.Y0 }

// Center returns the box midpoint.
func (b Box) Center() (float64, float64) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

// Union returns the smallest box enclosing both boxes.
func (b Box) Union(other Box) Box {
	return Box{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Orientation is the text flow direction within a block.
type Orientation string

const (
	Horizontal  Orientation = "horizontal"
	VerticalLTR Orientation = "vertical_ltr"
	VerticalRTL Orientation = "vertical_rtl"
)

// Normalize maps unknown orientation values to Horizontal.
func (o Orientation) Normalize() Orientation {
	switch o {
	case Horizontal, VerticalLTR, VerticalRTL:
		return o
	default:
		return Horizontal
	}
}

// Vertical reports whether the text flows in columns.
func (o Orientation) Vertical() bool {
	return o == VerticalLTR || o == VerticalRTL
}

// SizeCategory is the coarse font size classification assigned by detection.
type SizeCategory string

const (
	SizeVerySmall SizeCategory = "very_small"
	SizeSmall     SizeCategory = "small"
	SizeMedium    SizeCategory = "medium"
	SizeLarge     SizeCategory = "large"
	SizeVeryLarge SizeCategory = "very_large"
)

// Normalize maps unknown size categories to SizeMedium.
func (c SizeCategory) Normalize() SizeCategory {
	switch c {
	case SizeVerySmall, SizeSmall, SizeMedium, SizeLarge, SizeVeryLarge:
		return c
	default:
		return SizeMedium
	}
}

// SizeTable maps size categories to pixel sizes.
type SizeTable map[SizeCategory]int

// DefaultSizeTable mirrors the stock category mapping.
func DefaultSizeTable() SizeTable {
	return SizeTable{
		SizeVerySmall: 12,
		SizeSmall:     16,
		SizeMedium:    22,
		SizeLarge:     28,
		SizeVeryLarge: 36,
	}
}

// Pixels resolves a category to a pixel size. A fixedOverride > 0 wins over
// the mapping; an unmapped category falls back to the medium entry.
func (t SizeTable) Pixels(category SizeCategory, fixedOverride int) int {
	if fixedOverride > 0 {
		return fixedOverride
	}
	if px, ok := t[category.Normalize()]; ok && px > 0 {
		return px
	}
	return 22
}

// Align is the text alignment along the secondary axis. For vertical
// orientations it doubles as the per-column vertical alignment
// (left=top, center, right=bottom).
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Normalize maps unknown alignment values to the orientation default:
// left for horizontal text, right otherwise.
func (a Align) Normalize(o Orientation) Align {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return a
	}
	if o.Normalize() != Horizontal {
		return AlignRight
	}
	return AlignLeft
}

// Block is one detected and translated text region. Blocks are long-lived and
// user-editable; all mutation goes through an Arena so renders can cheaply
// detect staleness via Version.
type Block struct {
	ID             string
	OriginalText   string
	TranslatedText string
	Box            Box
	Orientation    Orientation
	SizeCategory   SizeCategory
	FontSizePx     int
	Angle          float64
	Align          Align

	// Version increments on every Arena update. It is zero for a block that
	// has never been stored.
	Version uint64
}

// New builds a block with a fresh ID and normalized fields.
func New(originalText, translatedText string, box Box, o Orientation, category SizeCategory, fontSizePx int) Block {
	o = o.Normalize()
	return Block{
		ID:             uuid.NewString(),
		OriginalText:   originalText,
		TranslatedText: translatedText,
		Box:            box,
		Orientation:    o,
		SizeCategory:   category.Normalize(),
		FontSizePx:     fontSizePx,
		Align:          Align("").Normalize(o),
	}
}

// NormalizeAngle wraps an angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
