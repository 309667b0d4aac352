// Package pipeline drives one image through detection, translation and block
// construction: OCR fragments are merged into spans, spans are translated in
// a batch, and each span becomes a stored text block. A multimodal detector
// can replace the OCR and translation stages in a single call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lingopix-project/lingopix/config"
	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/engine/merge"
	"github.com/lingopix-project/lingopix/engine/render"
	"github.com/lingopix-project/lingopix/providers/ocr"
	"github.com/lingopix-project/lingopix/providers/translate"
)

// State names the stage a run is in. Transitions are fixed: the primary
// detection attempt falls back once on failure, translation failures fail
// the run.
type State string

const (
	StatePrimaryAttempt  State = "primary_attempt"
	StateFallbackAttempt State = "fallback_attempt"
	StateTranslating     State = "translating"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Next returns the state following s after a stage succeeds or fails.
// Terminal states return themselves.
func Next(s State, succeeded bool) State {
	switch s {
	case StatePrimaryAttempt:
		if succeeded {
			return StateTranslating
		}
		return StateFallbackAttempt
	case StateFallbackAttempt:
		if succeeded {
			return StateTranslating
		}
		return StateFailed
	case StateTranslating:
		if succeeded {
			return StateDone
		}
		return StateFailed
	default:
		return s
	}
}

const (
	retryInterval = 2 * time.Second
	retryAttempts = 2
)

// Pipeline holds the providers and engines one run needs. Detector, Fallback
// and FallbackTranslator are optional.
type Pipeline struct {
	Primary    ocr.Provider
	Fallback   ocr.Provider
	Translator translate.Provider
	// FallbackTranslator is tried when Translator fails all retries.
	FallbackTranslator translate.Provider
	// Detector, when set, replaces the OCR and translation stages with one
	// multimodal call; Primary then serves as the fallback detection path.
	Detector translate.Detector

	Renderer *render.Renderer
	Arena    *block.Arena
	Style    config.Style
	Sizes    block.SizeTable
	Options  config.Pipeline

	// RetryInterval overrides the constant backoff between provider retries.
	// Zero means the default.
	RetryInterval time.Duration
}

// Result reports one run.
type Result struct {
	State  State
	Blocks []block.Block
}

// Run pushes one image through the pipeline and stores the resulting blocks
// in the arena. imageBytes is the encoded image; width and height are its
// pixel dimensions, used to scale normalized detector boxes.
func (p *Pipeline) Run(ctx context.Context, imageBytes []byte, width, height int) (Result, error) {
	if p.Detector != nil {
		return p.runDetector(ctx, imageBytes, width, height)
	}
	return p.runOCR(ctx, imageBytes)
}

func (p *Pipeline) runDetector(ctx context.Context, imageBytes []byte, width, height int) (Result, error) {
	state := StatePrimaryAttempt
	detected, err := retry(ctx, p.interval(), func() ([]translate.DetectedBlock, error) {
		return p.Detector.DetectBlocks(ctx, imageBytes, p.request(nil))
	})
	state = Next(state, err == nil)

	if err != nil {
		log.Printf("pipeline: multimodal detection failed: %v", err)
		if p.Primary == nil {
			return Result{State: StateFailed}, fmt.Errorf("detection failed: %w", err)
		}
		return p.runOCRFrom(ctx, state, imageBytes)
	}

	blocks := make([]block.Block, 0, len(detected))
	for _, d := range detected {
		box, ok := scaleNormalizedBox(d.Box, width, height)
		if !ok {
			log.Printf("pipeline: skipping detected block with degenerate box %v", d.Box)
			continue
		}
		category := block.SizeCategory(d.FontSizeClass).Normalize()
		b := block.New(
			d.Text,
			d.Translation,
			box,
			block.Orientation(d.Orientation),
			category,
			p.Sizes.Pixels(category, p.Options.FixedFontSizePx),
		)
		blocks = append(blocks, p.store(b))
	}
	// The detector translates inline, so a successful detection completes
	// the translating stage too.
	return Result{State: Next(state, true), Blocks: blocks}, nil
}

func (p *Pipeline) runOCR(ctx context.Context, imageBytes []byte) (Result, error) {
	return p.runOCRFrom(ctx, StatePrimaryAttempt, imageBytes)
}

func (p *Pipeline) runOCRFrom(ctx context.Context, state State, imageBytes []byte) (Result, error) {
	fragments, state, err := p.detect(ctx, state, imageBytes)
	if err != nil {
		return Result{State: state}, err
	}

	spans := merge.Lines(fragments, p.Options.LanguageHint)
	if len(spans) == 0 {
		// Nothing detected is a successful, empty run.
		return Result{State: StateDone}, nil
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}
	translations, err := p.translateBatch(ctx, texts)
	if err == nil && len(translations) != len(spans) {
		// A provider losing entries is a contract breach, not a crash.
		err = fmt.Errorf("translator returned %d translations for %d spans", len(translations), len(spans))
	}
	state = Next(state, err == nil)
	if err != nil {
		return Result{State: state}, fmt.Errorf("translation failed: %w", err)
	}

	blocks := make([]block.Block, 0, len(spans))
	for i, span := range spans {
		if translations[i] == "" {
			continue
		}
		b := block.New(
			span.Text,
			translations[i],
			span.Box,
			block.Horizontal,
			block.SizeMedium,
			p.Sizes.Pixels(block.SizeMedium, p.Options.FixedFontSizePx),
		)
		blocks = append(blocks, p.store(b))
	}
	return Result{State: Next(state, true), Blocks: blocks}, nil
}

func (p *Pipeline) detect(ctx context.Context, state State, imageBytes []byte) ([]merge.Fragment, State, error) {
	if state == StatePrimaryAttempt {
		fragments, err := retry(ctx, p.interval(), func() ([]merge.Fragment, error) {
			return p.Primary.DetectText(ctx, imageBytes)
		})
		state = Next(state, err == nil)
		if err == nil {
			return fragments, state, nil
		}
		log.Printf("pipeline: primary detection failed: %v", err)
	}

	fallback := p.Fallback
	if fallback == nil {
		// A detector failure falls back onto the primary OCR provider.
		fallback = p.Primary
	}
	if fallback == nil {
		return nil, StateFailed, errors.New("detection failed and no fallback provider is configured")
	}
	fragments, err := retry(ctx, p.interval(), func() ([]merge.Fragment, error) {
		return fallback.DetectText(ctx, imageBytes)
	})
	state = Next(state, err == nil)
	if err != nil {
		return nil, state, fmt.Errorf("fallback detection failed: %w", err)
	}
	return fragments, state, nil
}

func (p *Pipeline) translateBatch(ctx context.Context, texts []string) ([]string, error) {
	translations, err := retry(ctx, p.interval(), func() ([]string, error) {
		return p.Translator.TranslateBatch(ctx, p.request(texts))
	})
	if err == nil || p.FallbackTranslator == nil {
		return translations, err
	}
	log.Printf("pipeline: translation failed, trying fallback: %v", err)
	return retry(ctx, p.interval(), func() ([]string, error) {
		return p.FallbackTranslator.TranslateBatch(ctx, p.request(texts))
	})
}

// store applies the auto-fit pass and puts the block into the arena.
func (p *Pipeline) store(b block.Block) block.Block {
	if p.Options.AutoFitBox && p.Renderer != nil {
		b.Box = p.Renderer.FitBox(b, p.Style)
	}
	stored, _ := p.Arena.Add(b)
	return stored
}

func (p *Pipeline) request(texts []string) translate.Request {
	return translate.Request{
		Texts:          texts,
		SourceLanguage: p.Options.SourceLanguage,
		TargetLanguage: p.Options.TargetLanguage,
		Glossary:       p.Options.GlossaryText,
	}
}

func (p *Pipeline) interval() time.Duration {
	if p.RetryInterval > 0 {
		return p.RetryInterval
	}
	return retryInterval
}

func retry[T any](ctx context.Context, interval time.Duration, fn func() (T, error)) (T, error) {
	return backoff.RetryWithData(fn, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retryAttempts), ctx))
}
