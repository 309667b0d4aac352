// Package config assembles read-only settings snapshots from the
// environment. The core engines never read configuration themselves; they
// take these snapshots per call.
package config

import (
	"image/color"
	"log"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/pkg/env"
)

// Style is the rendering style snapshot for text blocks. It is read-only to
// the rendering code.
type Style struct {
	FontName string

	MainColor       color.RGBA
	OutlineColor    color.RGBA
	BackgroundColor color.RGBA

	OutlineThickness int
	Padding          int

	// Horizontal orientation spacing.
	HCharSpacingPx int
	HLineSpacingPx int
	// Vertical orientation spacing: within a column and between columns.
	VCharSpacingPx int
	VColSpacingPx  int

	// Extra spacing applied after a manual line break.
	HManualBreakExtraPx int
	VManualBreakExtraPx int
}

// DefaultStyle mirrors the stock UI defaults: white text, black outline,
// translucent black plate.
func DefaultStyle() Style {
	return Style{
		FontName:         "msyh.ttc",
		MainColor:        color.RGBA{R: 255, G: 255, B: 255, A: 255},
		OutlineColor:     color.RGBA{A: 255},
		BackgroundColor:  color.RGBA{A: 128},
		OutlineThickness: 2,
		Padding:          3,
	}
}

// StyleFromEnv builds a style snapshot from LINGOPIX_* variables, falling
// back to the defaults field by field.
func StyleFromEnv() Style {
	s := DefaultStyle()
	s.FontName = env.StringVariable("LINGOPIX_FONT_NAME", s.FontName)
	s.MainColor = ParseColor(env.StringVariable("LINGOPIX_TEXT_MAIN_COLOR", ""), s.MainColor)
	s.OutlineColor = ParseColor(env.StringVariable("LINGOPIX_TEXT_OUTLINE_COLOR", ""), s.OutlineColor)
	s.BackgroundColor = ParseColor(env.StringVariable("LINGOPIX_TEXT_BACKGROUND_COLOR", ""), s.BackgroundColor)
	s.OutlineThickness = env.IntVariable("LINGOPIX_TEXT_OUTLINE_THICKNESS", s.OutlineThickness)
	s.Padding = env.IntVariable("LINGOPIX_TEXT_PADDING", s.Padding)
	s.HCharSpacingPx = env.IntVariable("LINGOPIX_H_CHAR_SPACING_PX", 0)
	s.HLineSpacingPx = env.IntVariable("LINGOPIX_H_LINE_SPACING_PX", 0)
	s.VCharSpacingPx = env.IntVariable("LINGOPIX_V_CHAR_SPACING_PX", 0)
	s.VColSpacingPx = env.IntVariable("LINGOPIX_V_COLUMN_SPACING_PX", 0)
	s.HManualBreakExtraPx = env.IntVariable("LINGOPIX_H_MANUAL_BREAK_EXTRA_PX", 0)
	s.VManualBreakExtraPx = env.IntVariable("LINGOPIX_V_MANUAL_BREAK_EXTRA_PX", 0)
	return s
}

// CharSpacing returns the in-segment character spacing for the orientation.
func (s Style) CharSpacing(o block.Orientation) int {
	if o.Vertical() {
		return s.VCharSpacingPx
	}
	return s.HCharSpacingPx
}

// SegmentSpacing returns the line spacing (horizontal) or column spacing
// (vertical) for the orientation.
func (s Style) SegmentSpacing(o block.Orientation) int {
	if o.Vertical() {
		return s.VColSpacingPx
	}
	return s.HLineSpacingPx
}

// ManualBreakExtra returns the extra advance after a manual break segment.
func (s Style) ManualBreakExtra(o block.Orientation) int {
	if o.Vertical() {
		return s.VManualBreakExtraPx
	}
	return s.HManualBreakExtraPx
}

// ParseColor parses "r,g,b[,a]" or "#rrggbb[aa]" color strings. Malformed
// values return the fallback.
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s, fallback)
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		log.Printf("config: unparseable color %q, using default", s)
		return fallback
	}
	values := make([]uint8, 0, 4)
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			log.Printf("config: unparseable color %q, using default", s)
			return fallback
		}
		values = append(values, uint8(v))
	}
	c := color.RGBA{R: values[0], G: values[1], B: values[2], A: 255}
	if len(values) == 4 {
		c.A = values[3]
	}
	return c
}

func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	alpha := uint8(255)
	if len(s) == 9 {
		v, err := strconv.ParseUint(s[7:9], 16, 8)
		if err != nil {
			log.Printf("config: unparseable color %q, using default", s)
			return fallback
		}
		alpha = uint8(v)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		log.Printf("config: unparseable color %q, using default", s)
		return fallback
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}
}

// SizeTableFromEnv builds the category to pixel size mapping, overridable
// per category.
func SizeTableFromEnv() block.SizeTable {
	t := block.DefaultSizeTable()
	t[block.SizeVerySmall] = env.IntVariable("LINGOPIX_FONT_SIZE_VERY_SMALL", t[block.SizeVerySmall])
	t[block.SizeSmall] = env.IntVariable("LINGOPIX_FONT_SIZE_SMALL", t[block.SizeSmall])
	t[block.SizeMedium] = env.IntVariable("LINGOPIX_FONT_SIZE_MEDIUM", t[block.SizeMedium])
	t[block.SizeLarge] = env.IntVariable("LINGOPIX_FONT_SIZE_LARGE", t[block.SizeLarge])
	t[block.SizeVeryLarge] = env.IntVariable("LINGOPIX_FONT_SIZE_VERY_LARGE", t[block.SizeVeryLarge])
	return t
}

// Pipeline is the provider-selection and language snapshot.
type Pipeline struct {
	OCRProvider         string
	FallbackOCRProvider string
	TranslationProvider string
	FallbackTranslation string

	TargetLanguage string
	SourceLanguage string
	LanguageHint   string
	GlossaryText   string

	// FixedFontSizePx > 0 overrides the size category mapping.
	FixedFontSizePx int
	AutoFitBox      bool
}

// PipelineFromEnv reads the provider selection. Provider names are resolved
// to concrete clients by the providers packages' factories.
func PipelineFromEnv() Pipeline {
	return Pipeline{
		OCRProvider:         env.StringVariable("LINGOPIX_OCR_PROVIDER", "gemini"),
		FallbackOCRProvider: env.StringVariable("LINGOPIX_FALLBACK_OCR_PROVIDER", "paddle"),
		TranslationProvider: env.StringVariable("LINGOPIX_TRANSLATION_PROVIDER", "gemini"),
		FallbackTranslation: env.StringVariable("LINGOPIX_FALLBACK_TRANSLATION_PROVIDER", "openai"),
		TargetLanguage:      env.StringVariable("LINGOPIX_TARGET_LANGUAGE", "Chinese"),
		SourceLanguage:      env.StringVariable("LINGOPIX_SOURCE_LANGUAGE", "Japanese"),
		LanguageHint:        env.StringVariable("LINGOPIX_LANGUAGE_HINT", "ja"),
		GlossaryText:        env.StringVariable("LINGOPIX_GLOSSARY", ""),
		FixedFontSizePx:     env.IntVariable("LINGOPIX_FIXED_FONT_SIZE", 0),
		AutoFitBox:          env.BoolVariable("LINGOPIX_AUTO_FIT_BBOX", true),
	}
}
