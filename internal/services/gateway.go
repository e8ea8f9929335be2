package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ChatRequest is one chat-completion call to the upstream provider.
type ChatRequest struct {
	SystemPrompt string
	UserContent  string
	Temperature  float64
	MaxTokens    int
}

// ChatResult carries the reply plus the provider-reported token usage.
type ChatResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatGateway is the upstream completion provider as the pipeline sees it:
// an opaque call that either returns content with usage or fails. No retries
// happen at this layer or above.
type ChatGateway interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)
}

// LLMGateway dispatches chat calls to the configured provider SDK.
type LLMGateway struct {
	cfg *config.AIConfig
}

func NewLLMGateway(cfg *config.AIConfig) *LLMGateway {
	return &LLMGateway{cfg: cfg}
}

func (g *LLMGateway) timeout() time.Duration {
	if g.cfg.TimeoutS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.cfg.TimeoutS * float64(time.Second))
}

// Chat performs one completion call. With no API key configured (and a
// provider that needs one) it returns a stubbed reply with zero usage so
// development setups keep working.
func (g *LLMGateway) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if g.cfg.APIKey == "" && g.cfg.Provider != "ollama" {
		return &ChatResult{Content: "[stubbed response because no AI API key is configured]"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	switch g.cfg.Provider {
	case "anthropic":
		return g.chatAnthropic(ctx, req)
	case "ollama":
		return g.chatOllama(ctx, req)
	case "gemini":
		return g.chatGemini(ctx, req)
	default:
		// openai and OpenAI-compatible endpoints, including Grok
		return g.chatOpenAI(ctx, req)
	}
}

func (g *LLMGateway) chatOpenAI(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	clientConfig := openai.DefaultConfig(g.cfg.APIKey)
	if g.cfg.BaseURL != "" {
		clientConfig.BaseURL = g.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserContent},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	return &ChatResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (g *LLMGateway) chatAnthropic(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	client := anthropic.NewClient(option.WithAPIKey(g.cfg.APIKey))

	model := g.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	prompt := int(resp.Usage.InputTokens)
	completion := int(resp.Usage.OutputTokens)
	return &ChatResult{
		Content:          content.String(),
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}, nil
}

func (g *LLMGateway) chatOllama(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	baseURL := g.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := g.cfg.Model
	if model == "" {
		model = "llama3"
	}

	stream := false
	var content strings.Builder
	var final api.ChatResponse
	err = client.Chat(ctx, &api.ChatRequest{
		Model:  model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserContent},
		},
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		final = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return &ChatResult{
		Content:          content.String(),
		PromptTokens:     final.Metrics.PromptEvalCount,
		CompletionTokens: final.Metrics.EvalCount,
		TotalTokens:      final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
	}, nil
}

func (g *LLMGateway) chatGemini(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client error: %w", err)
	}

	model := g.cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.UserContent), genCfg)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	result := &ChatResult{Content: resp.Text()}
	if usage := resp.UsageMetadata; usage != nil {
		result.PromptTokens = int(usage.PromptTokenCount)
		result.CompletionTokens = int(usage.CandidatesTokenCount)
		result.TotalTokens = int(usage.TotalTokenCount)
	} else {
		logger.Warnf("[gateway] gemini response missing usage metadata")
	}
	return result, nil
}
