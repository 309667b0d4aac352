// Package ocr exposes text-detection providers behind a single interface.
// Providers return raw fragments; line reconstruction happens downstream in
// engine/merge.
package ocr

import (
	"context"
	"fmt"

	"github.com/lingopix-project/lingopix/engine/merge"
)

// Provider detects text regions in an encoded image.
type Provider interface {
	// DetectText returns one fragment per detected word or line, in the
	// provider's own order. imageBytes is a PNG or JPEG encoding.
	DetectText(ctx context.Context, imageBytes []byte) ([]merge.Fragment, error)
}

// Kind selects a concrete provider. The set is closed; unknown kinds fail at
// construction, not at call time.
type Kind string

const (
	KindVision Kind = "vision"
	KindPaddle Kind = "paddle"
)

// Config carries the construction inputs for all provider kinds. Only the
// fields the chosen kind needs are read.
type Config struct {
	// Vision is the Google Cloud Vision annotator, required for KindVision.
	Vision VisionClient
	// PaddleEndpoint is the local PaddleOCR HTTP endpoint, required for
	// KindPaddle.
	PaddleEndpoint string
}

// New maps a kind to a constructed provider.
func New(kind Kind, cfg Config) (Provider, error) {
	switch kind {
	case KindVision:
		if cfg.Vision == nil {
			return nil, fmt.Errorf("ocr: vision provider requires a client")
		}
		return NewVision(cfg.Vision), nil
	case KindPaddle:
		if cfg.PaddleEndpoint == "" {
			return nil, fmt.Errorf("ocr: paddle provider requires an endpoint")
		}
		return NewPaddle(cfg.PaddleEndpoint), nil
	default:
		return nil, fmt.Errorf("ocr: unknown provider kind %q", kind)
	}
}
