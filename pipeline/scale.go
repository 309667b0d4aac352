package pipeline

import "github.com/lingopix-project/lingopix/engine/block"

// scaleNormalizedBox converts a [0,1]-normalized [x0,y0,x1,y1] box into
// pixel coordinates, clamped to the image. Degenerate results are rejected.
func scaleNormalizedBox(norm [4]float64, width, height int) (block.Box, bool) {
	box := block.Box{
		X0: clamp(norm[0], 0, 1) * float64(width),
		Y0: clamp(norm[1], 0, 1) * float64(height),
		X1: clamp(norm[2], 0, 1) * float64(width),
		Y1: clamp(norm[3], 0, 1) * float64(height),
	}
	if box.X0 > box.X1 {
		box.X0, box.X1 = box.X1, box.X0
	}
	if box.Y0 > box.Y1 {
		box.Y0, box.Y1 = box.Y1, box.Y0
	}
	return box, box.Valid()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
