package advisor

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini completes through the Gemini API. A client is kept per key.
type Gemini struct {
	model string

	mu     sync.Mutex
	key    string
	client *genai.Client
}

func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{model: model}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) clientFor(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.key == key {
		return g.client, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.client, g.key = c, key
	return c, nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	c, err := g.clientFor(ctx, req.APIKey)
	if err != nil {
		return "", &Error{Msg: "gemini client", Err: err}
	}
	temp := req.Temperature
	resp, err := c.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: req.MaxTokens,
	})
	if err != nil {
		return "", &Error{Msg: "generate content", Retryable: true, Err: err}
	}
	return strings.TrimSpace(resp.Text()), nil
}
