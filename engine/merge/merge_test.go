package merge

import (
	"strings"
	"testing"
)

func fragment(t *testing.T, text string, x0, y0, x1, y1 float64) Fragment {
	t.Helper()
	f, ok := NewFragment(text, [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}})
	if !ok {
		t.Fatalf("NewFragment(%q) rejected a valid fragment", text)
	}
	return f
}

func TestNewFragmentRejectsMalformed(t *testing.T) {
	if _, ok := NewFragment("", [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}); ok {
		t.Errorf("empty text accepted")
	}
	if _, ok := NewFragment("text", nil); ok {
		t.Errorf("nil polygon accepted")
	}
	if _, ok := NewFragment("text", [][2]float64{{5, 5}, {5, 5}, {5, 5}, {5, 5}}); ok {
		t.Errorf("zero-area polygon accepted")
	}
	if _, ok := NewFragmentFlat("text", []float64{0, 0, 10, 0, 10}); ok {
		t.Errorf("truncated flat polygon accepted")
	}
}

func TestNewFragmentFlat(t *testing.T) {
	f, ok := NewFragmentFlat("text", []float64{10, 10, 40, 10, 40, 30, 10, 30})
	if !ok {
		t.Fatalf("valid flat polygon rejected")
	}
	if f.Box.X0 != 10 || f.Box.Y0 != 10 || f.Box.X1 != 40 || f.Box.Y1 != 30 {
		t.Errorf("unexpected box %+v", f.Box)
	}
}

func TestLinesEmptyInput(t *testing.T) {
	if got := Lines(nil, "ja"); len(got) != 0 {
		t.Errorf("Lines(nil) = %v, want empty", got)
	}
}

func TestLinesSingleFragmentUnchanged(t *testing.T) {
	f := fragment(t, "既にまとまった行", 5, 5, 200, 25)
	got := Lines([]Fragment{f}, "ja")
	if len(got) != 1 {
		t.Fatalf("got %d spans, want 1", len(got))
	}
	if got[0].Text != f.Text || got[0].Box != f.Box {
		t.Errorf("span changed: %+v, want %+v", got[0], f)
	}
}

func TestLinesMergesAdjacentFragments(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "配信", 10, 10, 40, 30),
		fragment(t, "開始", 42, 11, 70, 29),
	}, "ja")
	if len(got) != 1 {
		t.Fatalf("got %d spans, want 1: %v", len(got), got)
	}
	if got[0].Text != "配信開始" {
		t.Errorf("merged text = %q, want %q", got[0].Text, "配信開始")
	}
	want := got[0].Box
	if want.X0 != 10 || want.Y0 != 10 || want.X1 != 70 || want.Y1 != 30 {
		t.Errorf("merged box = %+v, want [10,10,70,30]", want)
	}
}

func TestLinesStopsAtSentenceEnd(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "こんにちは。", 10, 10, 70, 30),
		fragment(t, "さようなら", 72, 10, 130, 30),
	}, "ja")
	if len(got) != 2 {
		t.Fatalf("got %d spans, want 2 (sentence must not merge past 。): %v", len(got), got)
	}
}

func TestLinesSentenceEndInsideBrackets(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "「見たか。」", 10, 10, 70, 30),
		fragment(t, "と言った", 72, 10, 130, 30),
	}, "ja")
	if len(got) != 2 {
		t.Fatalf("got %d spans, want 2 (。」 ends the sentence): %v", len(got), got)
	}
}

func TestLinesMergesUnterminatedText(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "こんに", 10, 10, 40, 30),
		fragment(t, "ちは", 42, 10, 70, 30),
	}, "ja")
	if len(got) != 1 || got[0].Text != "こんにちは" {
		t.Fatalf("got %v, want single span こんにちは", got)
	}
}

func TestLinesRejectsVerticallyDistantFragments(t *testing.T) {
	// Heights are 20, centers 40px apart: twice the average height.
	got := Lines([]Fragment{
		fragment(t, "うえ", 10, 10, 40, 30),
		fragment(t, "した", 10, 50, 40, 70),
	}, "ja")
	if len(got) != 2 {
		t.Fatalf("got %d spans, want 2 (2x height separation must not merge)", len(got))
	}
}

func TestLinesRejectsWideHorizontalGap(t *testing.T) {
	// Gap of 60 against an average height of 20 exceeds the 1.5x limit.
	got := Lines([]Fragment{
		fragment(t, "ひだり", 10, 10, 40, 30),
		fragment(t, "みぎ", 100, 10, 130, 30),
	}, "ja")
	if len(got) != 2 {
		t.Fatalf("got %d spans, want 2 (wide gap must not merge)", len(got))
	}
}

func TestLinesSpaceJoinsLatinText(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "hello", 10, 10, 60, 30),
		fragment(t, "world", 62, 10, 110, 30),
	}, "en")
	if len(got) != 1 || got[0].Text != "hello world" {
		t.Fatalf("got %v, want single span %q", got, "hello world")
	}
}

func TestLinesNoSpaceAfterHyphen(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "over-", 10, 10, 60, 30),
		fragment(t, "flow", 62, 10, 110, 30),
	}, "en")
	if len(got) != 1 || got[0].Text != "over-flow" {
		t.Fatalf("got %v, want single span %q", got, "over-flow")
	}
}

func TestLinesNeverLosesText(t *testing.T) {
	fragments := []Fragment{
		fragment(t, "ひとつ", 10, 10, 60, 30),
		fragment(t, "ふたつ", 62, 10, 110, 30),
		fragment(t, "みっつ。", 10, 40, 60, 60),
		fragment(t, "よっつ", 62, 40, 110, 60),
	}
	var wantChars []rune
	for _, f := range fragments {
		wantChars = append(wantChars, []rune(f.Text)...)
	}
	var gotChars []rune
	for _, span := range Lines(fragments, "ja") {
		gotChars = append(gotChars, []rune(span.Text)...)
	}
	if string(gotChars) == "" || len(gotChars) != len(wantChars) {
		t.Fatalf("character count changed: got %q from %q", string(gotChars), string(wantChars))
	}
	for _, r := range wantChars {
		if !strings.ContainsRune(string(gotChars), r) {
			t.Errorf("character %q lost in merge", r)
		}
	}
}

func TestLinesSortsByPosition(t *testing.T) {
	got := Lines([]Fragment{
		fragment(t, "した", 10, 50, 60, 70),
		fragment(t, "うえ", 10, 10, 60, 30),
	}, "ja")
	if len(got) != 2 {
		t.Fatalf("got %d spans, want 2", len(got))
	}
	if got[0].Text != "うえ" {
		t.Errorf("first span = %q, want top fragment first", got[0].Text)
	}
}

func TestIsSentenceEnd(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"終わりです。", true},
		{"まだ続く", false},
		{"Done.", true},
		{"really?", true},
		{"「そうか。」", true},
		{"「そうか", false},
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		if got := isSentenceEnd(c.text); got != c.want {
			t.Errorf("isSentenceEnd(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
