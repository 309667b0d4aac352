package translate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the slice of the go-openai client this package uses, kept
// as an interface so unit tests can substitute a fake. Any OpenAI-compatible
// endpoint (Ollama, vLLM, LM Studio) works through go-openai's BaseURL
// configuration.
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIProvider struct {
	client OpenAIClient
	model  string
}

// NewOpenAI wraps a chat-completion client as a Provider. An empty model
// selects GPT-4.
func NewOpenAI(client OpenAIClient, model string) Provider {
	if model == "" {
		model = openai.GPT4
	}
	return &openAIProvider{client: client, model: model}
}

func (p *openAIProvider) TranslateBatch(ctx context.Context, request Request) ([]string, error) {
	if len(request.Texts) == 0 {
		return []string{}, nil
	}

	var combined strings.Builder
	for i, text := range request.Texts {
		fmt.Fprintf(&combined, "[%d] %s\n", i, text)
	}

	prompt := fmt.Sprintf(`Translate the following texts from %s to %s. Return only the translations in the same order, with each translation on a new line prefixed with its index number [0], [1], etc. Do not include any explanations or additional text.
%s
%s`, request.SourceLanguage, request.TargetLanguage, glossaryClause(request.Glossary), combined.String())

	response, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a professional translator. Translate text accurately while preserving the original meaning and tone.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("no translation response")
	}

	return parseIndexedTranslations(response.Choices[0].Message.Content, len(request.Texts)), nil
}

// parseIndexedTranslations maps "[i] text" response lines back onto input
// indices. Missing or out-of-range indices leave empty entries rather than
// shifting the batch.
func parseIndexedTranslations(responseText string, count int) []string {
	translations := make([]string, count)
	for _, line := range strings.Split(responseText, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		closing := strings.Index(line, "]")
		if closing <= 0 {
			continue
		}
		index, err := strconv.Atoi(line[1:closing])
		if err != nil || index < 0 || index >= count {
			continue
		}
		translations[index] = strings.TrimSpace(line[closing+1:])
	}
	return translations
}
