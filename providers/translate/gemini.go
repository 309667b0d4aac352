package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// GeminiClient is the slice of the generative-ai-go model this package uses.
// *genai.GenerativeModel satisfies it; tests substitute a fake.
type GeminiClient interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiProvider struct {
	client GeminiClient
}

// NewGemini wraps a Gemini generative model as a Provider. Batches travel as
// an index-keyed JSON object in both directions so entries cannot shift.
func NewGemini(client GeminiClient) Provider {
	return &geminiProvider{client: client}
}

func (p *geminiProvider) TranslateBatch(ctx context.Context, request Request) ([]string, error) {
	if len(request.Texts) == 0 {
		return []string{}, nil
	}

	textMap := map[int]string{}
	for i, text := range request.Texts {
		textMap[i] = text
	}
	textJSON, err := json.Marshal(textMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal text map: %w", err)
	}

	prompt := fmt.Sprintf(`You are a professional translator. The user provides a JSON object mapping IDs to texts in %s.
Translate every text to %s and return a JSON object with the same IDs and the translated texts as values.
If a text should not be rendered, return an empty string for its ID. Never drop an ID.
Return only the JSON object, with no explanations and no markdown fences.
%s
%s`, request.SourceLanguage, request.TargetLanguage, glossaryClause(request.Glossary), string(textJSON))

	responseText, err := generateText(ctx, p.client, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	translatedMap := map[int]string{}
	if err := json.Unmarshal([]byte(stripJSONFences(responseText)), &translatedMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal translated text: %w", err)
	}

	translations := make([]string, len(request.Texts))
	for i := range translations {
		translations[i] = strings.TrimSpace(translatedMap[i])
	}
	return translations, nil
}

// DetectedBlock is one text region returned by multimodal detection. The box
// is normalized to [0,1] page coordinates; the caller scales it to pixels.
type DetectedBlock struct {
	Text          string     `json:"text"`
	Translation   string     `json:"translation"`
	Box           [4]float64 `json:"box"`
	Orientation   string     `json:"orientation"`
	FontSizeClass string     `json:"font_size_category"`
}

// Detector finds, reads and translates text regions in one multimodal call,
// bypassing the separate OCR and merge stages.
type Detector interface {
	DetectBlocks(ctx context.Context, imageBytes []byte, request Request) ([]DetectedBlock, error)
}

type geminiDetector struct {
	client GeminiClient
}

// NewGeminiDetector wraps a Gemini generative model as a Detector.
func NewGeminiDetector(client GeminiClient) Detector {
	return &geminiDetector{client: client}
}

func (d *geminiDetector) DetectBlocks(ctx context.Context, imageBytes []byte, request Request) ([]DetectedBlock, error) {
	prompt := fmt.Sprintf(`Detect every distinct text block in this image and translate it from %s to %s.
Return a JSON array where each element is an object with these fields:
  "text": the original text of the block,
  "translation": its translation,
  "box": [x0, y0, x1, y1] of the block's bounding box, each coordinate normalized to the 0..1 range,
  "orientation": "horizontal", "vertical_ltr" or "vertical_rtl",
  "font_size_category": "very_small", "small", "medium", "large" or "very_large" relative to the image.
Group characters that belong to the same sentence or speech bubble into one block.
Return only the JSON array, with no explanations and no markdown fences.
%s`, request.SourceLanguage, request.TargetLanguage, glossaryClause(request.Glossary))

	responseText, err := generateText(ctx, d.client,
		genai.Blob{MIMEType: "image/png", Data: imageBytes},
		genai.Text(prompt),
	)
	if err != nil {
		return nil, err
	}

	var blocks []DetectedBlock
	if err := json.Unmarshal([]byte(stripJSONFences(responseText)), &blocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detected blocks: %w", err)
	}
	return blocks, nil
}

func generateText(ctx context.Context, client GeminiClient, parts ...genai.Part) (string, error) {
	response, err := client.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil || len(response.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from model")
	}
	return fmt.Sprintf("%s", response.Candidates[0].Content.Parts[0]), nil
}

// Models occasionally wrap JSON in markdown fences despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
