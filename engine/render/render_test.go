package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/lingopix-project/lingopix/config"
	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/engine/font"
)

func testRenderer() *Renderer {
	return New(font.NewResolverDirs(nil))
}

func testStyle() config.Style {
	return config.Style{
		MainColor:        color.RGBA{R: 255, G: 255, B: 255, A: 255},
		OutlineColor:     color.RGBA{A: 255},
		BackgroundColor:  color.RGBA{A: 128},
		OutlineThickness: 1,
		Padding:          3,
	}
}

func testBlock(text string, box block.Box, o block.Orientation) block.Block {
	return block.New("", text, box, o, block.SizeMedium, 20)
}

func rgbaPix(t *testing.T, img image.Image) []byte {
	t.Helper()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("raster is %T, want *image.RGBA", img)
	}
	return rgba.Pix
}

func TestRenderBlankTextReturnsNil(t *testing.T) {
	r := testRenderer()
	b := testBlock("   ", block.Box{X0: 0, Y0: 0, X1: 100, Y1: 40}, block.Horizontal)
	if got := r.Render(b, testStyle()); got != nil {
		t.Errorf("blank text rendered %v, want nil", got.Bounds())
	}
}

func TestRenderSurfaceMatchesBox(t *testing.T) {
	r := testRenderer()
	b := testBlock("hello", block.Box{X0: 10, Y0: 10, X1: 130, Y1: 58}, block.Horizontal)
	img := r.Render(b, testStyle())
	if img == nil {
		t.Fatal("Render returned nil")
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 48 {
		t.Errorf("surface is %v, want 120x48", img.Bounds())
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := testRenderer()
	b := testBlock("同じ結果", block.Box{X0: 0, Y0: 0, X1: 160, Y1: 60}, block.Horizontal)
	style := testStyle()
	first := rgbaPix(t, r.Render(b, style))
	second := rgbaPix(t, r.Render(b, style))
	if !bytes.Equal(first, second) {
		t.Error("two renders of the same block differ")
	}
}

func TestRenderDrawsText(t *testing.T) {
	r := testRenderer()
	box := block.Box{X0: 0, Y0: 0, X1: 160, Y1: 60}
	style := testStyle()

	withText := rgbaPix(t, r.Render(testBlock("hello", box, block.Horizontal), style))
	// A plate-only surface for comparison: same box, padding eats the
	// content area.
	plateStyle := style
	plateStyle.Padding = 200
	plate := rgbaPix(t, r.Render(testBlock("hello", box, block.Horizontal), plateStyle))

	if bytes.Equal(withText, plate) {
		t.Error("render with text is identical to the bare background plate")
	}
}

func TestRenderDegenerateBoxReturnsMarker(t *testing.T) {
	r := testRenderer()
	b := block.Block{
		ID:             "x",
		TranslatedText: "text",
		Box:            block.Box{X0: 50, Y0: 50, X1: 50, Y1: 50},
	}
	img := r.Render(b, testStyle())
	if img == nil {
		t.Fatal("degenerate box returned nil instead of a marker")
	}
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		t.Errorf("marker has degenerate bounds %v", img.Bounds())
	}
}

func TestRenderPaddingCollapseReturnsPlateOnly(t *testing.T) {
	r := testRenderer()
	style := testStyle()
	style.Padding = 50
	b := testBlock("text", block.Box{X0: 0, Y0: 0, X1: 30, Y1: 30}, block.Horizontal)
	img := r.Render(b, style)
	if img == nil {
		t.Fatal("padding collapse returned nil")
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 30 {
		t.Errorf("plate is %v, want 30x30", img.Bounds())
	}
	_, _, _, a := img.At(1, 1).RGBA()
	if a == 0 {
		t.Error("background plate missing")
	}
}

func TestRenderVerticalOrientations(t *testing.T) {
	r := testRenderer()
	style := testStyle()
	box := block.Box{X0: 0, Y0: 0, X1: 120, Y1: 200}
	ltr := rgbaPix(t, r.Render(testBlock("縦書きテスト", box, block.VerticalLTR), style))
	rtl := rgbaPix(t, r.Render(testBlock("縦書きテスト", box, block.VerticalRTL), style))
	if bytes.Equal(ltr, rtl) {
		t.Error("ltr and rtl vertical renders are identical")
	}
}

func TestFitBoxGrowsUndersizedBox(t *testing.T) {
	r := testRenderer()
	style := testStyle()
	style.Padding = 2
	b := testBlock("ABCDEFGH", block.Box{X0: 0, Y0: 0, X1: 60, Y1: 40}, block.Horizontal)

	fitted := r.FitBox(b, style)
	if fitted.Width() < b.Box.Width() || fitted.Height() < b.Box.Height() {
		t.Errorf("FitBox shrank the box: %+v -> %+v", b.Box, fitted)
	}
	if fitted.Height() <= b.Box.Height() {
		t.Errorf("wrapped text cannot fit 40px at size 20, box should have grown: %+v", fitted)
	}

	// Growth is symmetric about the center.
	cx, cy := b.Box.Center()
	fx, fy := fitted.Center()
	if cx != fx || cy != fy {
		t.Errorf("center moved: (%v,%v) -> (%v,%v)", cx, cy, fx, fy)
	}
}

func TestFitBoxIdempotent(t *testing.T) {
	r := testRenderer()
	style := testStyle()
	style.Padding = 2
	b := testBlock("ABCDEFGH", block.Box{X0: 0, Y0: 0, X1: 60, Y1: 40}, block.Horizontal)

	once := r.FitBox(b, style)
	b.Box = once
	twice := r.FitBox(b, style)
	if once != twice {
		t.Errorf("FitBox not idempotent: %+v then %+v", once, twice)
	}
}

func TestFitBoxGrowsVerticalBoxForOversizedChar(t *testing.T) {
	r := testRenderer()
	style := testStyle()
	b := block.New("", "永", block.Box{X0: 0, Y0: 0, X1: 40, Y1: 12}, block.VerticalRTL, block.SizeLarge, 30)

	// A size-30 glyph cannot fit a 12px-tall column; the box must grow,
	// never clip.
	fitted := r.FitBox(b, style)
	if fitted.Height() <= b.Box.Height() {
		t.Errorf("oversized vertical char did not grow the box: %+v -> %+v", b.Box, fitted)
	}
	cx, cy := b.Box.Center()
	fx, fy := fitted.Center()
	if cx != fx || cy != fy {
		t.Errorf("center moved: (%v,%v) -> (%v,%v)", cx, cy, fx, fy)
	}

	b.Box = fitted
	if again := r.FitBox(b, style); again != fitted {
		t.Errorf("FitBox not idempotent after growth: %+v then %+v", fitted, again)
	}
}

func TestFitBoxSufficientBoxUnchanged(t *testing.T) {
	r := testRenderer()
	b := testBlock("hi", block.Box{X0: 0, Y0: 0, X1: 400, Y1: 200}, block.Horizontal)
	if got := r.FitBox(b, testStyle()); got != b.Box {
		t.Errorf("sufficient box changed: %+v", got)
	}
}

func TestFitBoxBlankTextUnchanged(t *testing.T) {
	r := testRenderer()
	b := testBlock("", block.Box{X0: 0, Y0: 0, X1: 20, Y1: 20}, block.Horizontal)
	if got := r.FitBox(b, testStyle()); got != b.Box {
		t.Errorf("blank text changed the box: %+v", got)
	}
}
