// Package translate exposes translation providers behind a single interface.
package translate

import (
	"context"
	"fmt"
	"strings"
)

// Request carries one batch translation call's parameters.
type Request struct {
	Texts          []string
	SourceLanguage string
	TargetLanguage string
	// Glossary is free-form "term=translation" guidance included in the
	// prompt, one pair per line. Empty means no glossary.
	Glossary string
}

// Provider translates batches of text spans.
type Provider interface {
	// TranslateBatch returns one translation per input text, index-aligned.
	// Untranslatable entries come back as empty strings, never dropped.
	TranslateBatch(ctx context.Context, request Request) ([]string, error)
}

// Kind selects a concrete provider. The set is closed; unknown kinds fail at
// construction, not at call time.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindGemini Kind = "gemini"
)

// Config carries the construction inputs for all provider kinds. Only the
// fields the chosen kind needs are read.
type Config struct {
	// OpenAI is the chat-completion client, required for KindOpenAI.
	OpenAI OpenAIClient
	// OpenAIModel overrides the default chat model for KindOpenAI.
	OpenAIModel string
	// Gemini is the generative model client, required for KindGemini.
	Gemini GeminiClient
}

// New maps a kind to a constructed provider.
func New(kind Kind, cfg Config) (Provider, error) {
	switch kind {
	case KindOpenAI:
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("translate: openai provider requires a client")
		}
		return NewOpenAI(cfg.OpenAI, cfg.OpenAIModel), nil
	case KindGemini:
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("translate: gemini provider requires a client")
		}
		return NewGemini(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("translate: unknown provider kind %q", kind)
	}
}

// glossaryClause renders the optional glossary section of a prompt.
func glossaryClause(glossary string) string {
	glossary = strings.TrimSpace(glossary)
	if glossary == "" {
		return ""
	}
	return "\nUse the following glossary for these terms:\n" + glossary + "\n"
}
