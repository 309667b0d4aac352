package block

import "testing"

func TestOrientationNormalize(t *testing.T) {
	if got := Orientation("sideways").Normalize(); got != Horizontal {
		t.Errorf("unknown orientation normalized to %q, want horizontal", got)
	}
	if got := VerticalRTL.Normalize(); got != VerticalRTL {
		t.Errorf("valid orientation changed to %q", got)
	}
	if Horizontal.Vertical() || !VerticalLTR.Vertical() || !VerticalRTL.Vertical() {
		t.Error("Vertical() misclassifies orientations")
	}
}

func TestSizeCategoryNormalize(t *testing.T) {
	if got := SizeCategory("huge").Normalize(); got != SizeMedium {
		t.Errorf("unknown category normalized to %q, want medium", got)
	}
}

func TestSizeTablePixels(t *testing.T) {
	table := DefaultSizeTable()
	if got := table.Pixels(SizeVerySmall, 0); got != 12 {
		t.Errorf("very_small = %d, want 12", got)
	}
	if got := table.Pixels(SizeVeryLarge, 0); got != 36 {
		t.Errorf("very_large = %d, want 36", got)
	}
	if got := table.Pixels(SizeCategory("bogus"), 0); got != 22 {
		t.Errorf("unknown category = %d, want medium 22", got)
	}
	if got := table.Pixels(SizeLarge, 40); got != 40 {
		t.Errorf("fixed override ignored: got %d, want 40", got)
	}
}

func TestAlignNormalizeDefaults(t *testing.T) {
	if got := Align("").Normalize(Horizontal); got != AlignLeft {
		t.Errorf("horizontal default = %q, want left", got)
	}
	if got := Align("").Normalize(VerticalRTL); got != AlignRight {
		t.Errorf("vertical default = %q, want right", got)
	}
	if got := AlignCenter.Normalize(Horizontal); got != AlignCenter {
		t.Errorf("explicit alignment changed to %q", got)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{370, 10},
		{-90, 270},
		{720, 0},
	}
	for _, c := range cases {
		if got := NormalizeAngle(c.in); got != c.want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewAssignsIDAndNormalizes(t *testing.T) {
	b := New("原文", "translated", Box{X0: 0, Y0: 0, X1: 100, Y1: 40}, "bogus", "bogus", 22)
	if b.ID == "" {
		t.Error("missing ID")
	}
	if b.Orientation != Horizontal || b.SizeCategory != SizeMedium || b.Align != AlignLeft {
		t.Errorf("fields not normalized: %+v", b)
	}
	other := New("原文", "translated", b.Box, Horizontal, SizeMedium, 22)
	if other.ID == b.ID {
		t.Error("IDs are not unique")
	}
}

func TestArenaAddGetUpdate(t *testing.T) {
	a := NewArena()
	b, ok := a.Add(New("a", "b", Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, Horizontal, SizeMedium, 22))
	if !ok {
		t.Fatal("Add rejected a valid block")
	}
	if b.Version != 1 {
		t.Errorf("fresh block version = %d, want 1", b.Version)
	}

	got, ok := a.Get(b.ID)
	if !ok || got.Version != 1 {
		t.Fatalf("Get(%q) = %+v, %v", b.ID, got, ok)
	}

	updated, ok := a.Update(b.ID, func(blk *Block) {
		blk.TranslatedText = "edited"
	})
	if !ok {
		t.Fatal("Update failed")
	}
	if updated.Version != 2 {
		t.Errorf("version after update = %d, want 2", updated.Version)
	}
	if updated.TranslatedText != "edited" {
		t.Errorf("edit lost: %+v", updated)
	}

	// Snapshots are copies; mutating one must not touch the arena.
	got.TranslatedText = "rogue"
	fresh, _ := a.Get(b.ID)
	if fresh.TranslatedText != "edited" {
		t.Error("snapshot mutation leaked into the arena")
	}
}

func TestArenaRejectsInvalidBox(t *testing.T) {
	a := NewArena()
	if _, ok := a.Add(New("a", "b", Box{X0: 10, Y0: 10, X1: 10, Y1: 10}, Horizontal, SizeMedium, 22)); ok {
		t.Error("zero-area box accepted")
	}
}

func TestArenaAddClampsMinimumSize(t *testing.T) {
	a := NewArena()
	b, ok := a.Add(New("a", "b", Box{X0: 0, Y0: 0, X1: 5, Y1: 5}, Horizontal, SizeMedium, 22))
	if !ok {
		t.Fatal("small but valid box rejected")
	}
	if b.Box.Width() < MinBoxSide || b.Box.Height() < MinBoxSide {
		t.Errorf("stored box below minimum: %+v", b.Box)
	}
	cx, cy := b.Box.Center()
	if cx != 2.5 || cy != 2.5 {
		t.Errorf("clamp moved the center: (%v,%v)", cx, cy)
	}
}

func TestArenaUpdateClampsMinimumSize(t *testing.T) {
	a := NewArena()
	b, _ := a.Add(New("a", "b", Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, Horizontal, SizeMedium, 22))
	updated, _ := a.Update(b.ID, func(blk *Block) {
		blk.Box = Box{X0: 0, Y0: 0, X1: 2, Y1: 2}
	})
	if updated.Box.Width() < MinBoxSide || updated.Box.Height() < MinBoxSide {
		t.Errorf("box shrank below minimum: %+v", updated.Box)
	}
}

func TestArenaUpdatePreservesID(t *testing.T) {
	a := NewArena()
	b, _ := a.Add(New("a", "b", Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, Horizontal, SizeMedium, 22))
	updated, _ := a.Update(b.ID, func(blk *Block) {
		blk.ID = "hijacked"
	})
	if updated.ID != b.ID {
		t.Errorf("ID changed to %q", updated.ID)
	}
}

func TestArenaListSorted(t *testing.T) {
	a := NewArena()
	a.Add(New("low", "", Box{X0: 0, Y0: 100, X1: 50, Y1: 120}, Horizontal, SizeMedium, 22))
	a.Add(New("high", "", Box{X0: 0, Y0: 10, X1: 50, Y1: 30}, Horizontal, SizeMedium, 22))
	list := a.List()
	if len(list) != 2 {
		t.Fatalf("List returned %d blocks, want 2", len(list))
	}
	if list[0].OriginalText != "high" {
		t.Errorf("List not ordered top to bottom: %v, %v", list[0].OriginalText, list[1].OriginalText)
	}
}

func TestArenaDeleteAndClear(t *testing.T) {
	a := NewArena()
	b, _ := a.Add(New("a", "", Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, Horizontal, SizeMedium, 22))
	a.Delete(b.ID)
	if _, ok := a.Get(b.ID); ok {
		t.Error("deleted block still present")
	}
	a.Add(New("b", "", Box{X0: 0, Y0: 0, X1: 50, Y1: 20}, Horizontal, SizeMedium, 22))
	a.Clear()
	if got := a.List(); len(got) != 0 {
		t.Errorf("Clear left %d blocks", len(got))
	}
}
