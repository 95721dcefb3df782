package advisor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "mistralai/mistral-7b-instruct:free"
	DefaultTitle   = "Trading Journal"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

// OpenRouter talks to an OpenAI-compatible chat-completions endpoint.
type OpenRouter struct {
	client *resty.Client
	model  string
}

type OpenRouterOptions struct {
	BaseURL string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

func NewOpenRouter(opts OpenRouterOptions) *OpenRouter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("X-Title", opts.Title)
	if opts.Referer != "" {
		client.SetHeader("HTTP-Referer", opts.Referer)
	}

	return &OpenRouter{client: client, model: opts.Model}
}

func (o *OpenRouter) Name() string { return "openrouter" }

func (o *OpenRouter) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetAuthToken(req.APIKey).
		SetBody(chatRequest{
			Model:       o.model,
			Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", &Error{Msg: "request failed", Retryable: true, Err: err}
	}

	var doc any
	_ = json.Unmarshal(resp.Body(), &doc)

	if resp.IsError() {
		msg := lookupString(doc, "$.error.message")
		if msg == "" {
			msg = "API request failed"
		}
		return "", &Error{Status: resp.StatusCode(), Msg: msg, Retryable: retryableStatus(resp.StatusCode())}
	}

	return strings.TrimSpace(lookupString(doc, "$.choices[0].message.content")), nil
}

// lookupString evaluates path against doc and returns "" when it is missing
// or not a string. jsonpath may hand back a one-element list.
func lookupString(doc any, path string) string {
	if doc == nil {
		return ""
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	s, _ := v.(string)
	return s
}
