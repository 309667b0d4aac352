// Package compose places rendered block rasters back onto the page image,
// applying each block's rotation about its box center.
package compose

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/lingopix-project/lingopix/engine/block"
)

// Over composites one block raster onto dst. The raster is rotated by the
// block's angle about its own center, then anchored so its center lands on
// the box center. A nil raster (blank block) is a no-op.
func Over(dst *gg.Context, b block.Block, raster image.Image) {
	if raster == nil {
		return
	}
	cx, cy := b.Box.Center()
	angle := block.NormalizeAngle(b.Angle)

	dst.Push()
	if angle != 0 {
		dst.RotateAbout(gg.Radians(angle), cx, cy)
	}
	dst.DrawImageAnchored(raster, int(cx), int(cy), 0.5, 0.5)
	dst.Pop()
}

// Flatten renders every block over a copy of the page image and returns the
// flattened result. Blocks render in arena order, top of page first, so
// overlapping blocks stack deterministically.
func Flatten(page image.Image, blocks []block.Block, render func(block.Block) image.Image) image.Image {
	dc := gg.NewContextForImage(page)
	for _, b := range blocks {
		Over(dc, b, render(b))
	}
	return dc.Image()
}
