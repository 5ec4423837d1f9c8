package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator produces a text completion for a prompt
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// contentGenerator is the part of the genai client used here. *genai.Models
// satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls the Gemini API through google.golang.org/genai
type GeminiGenerator struct {
	models contentGenerator
}

// NewGeminiGenerator creates a generator authenticated with apiKey
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: an API key is required (set GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: creating genai client: %w", err)
	}
	return &GeminiGenerator{models: client.Models}, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate. A response without text yields "".
func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	res, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("assistant: generating content: %w", err)
	}
	return responseText(res), nil
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	candidate := res.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
