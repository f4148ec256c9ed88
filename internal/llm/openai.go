package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var openAITracer = otel.Tracer("leadextract.internal.llm.openai")

// chatCompleter is the slice of *openai.Client used here; tests substitute it.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures an OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIClient implements Client on top of any OpenAI-compatible chat completions API.
type OpenAIClient struct {
	api    chatCompleter
	tracer trace.Tracer
}

// NewOpenAIClient builds the provider client once at startup; it is safe for concurrent use.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	transportCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		transportCfg.BaseURL = strings.TrimRight(base, "/")
	}
	if cfg.HTTPClient != nil {
		transportCfg.HTTPClient = cfg.HTTPClient
	}
	return newOpenAIClient(openai.NewClientWithConfig(transportCfg)), nil
}

func newOpenAIClient(api chatCompleter) *OpenAIClient {
	if api == nil {
		panic("llm: openai chat client cannot be nil")
	}
	return &OpenAIClient{api: api, tracer: openAITracer}
}

// Complete sends one chat completion and returns the first choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return Response{}, errors.New("llm: model is required")
	}

	ctx, span := c.tracer.Start(ctx, "llm.openai.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.max_tokens", req.MaxTokens),
		attribute.Bool("llm.json_mode", req.JSONMode),
	)

	messages, err := toOpenAIMessages(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return Response{}, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	out, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		err = fmt.Errorf("llm: openai completion failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Response{}, err
	}
	if len(out.Choices) == 0 {
		err := errors.New("llm: openai returned no choices")
		span.RecordError(err)
		span.SetStatus(codes.Error, "no choices")
		return Response{}, err
	}

	choice := out.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		err := errors.New("llm: openai returned empty content")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty content")
		return Response{}, err
	}

	resp := Response{
		Text:         text,
		FinishReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
		attribute.String("llm.finish_reason", resp.FinishReason),
	)
	return resp, nil
}

func toOpenAIMessages(req Request) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: block,
		})
	}

	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		var role string
		switch msg.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleUser:
			role = openai.ChatMessageRoleUser
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			return nil, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	if len(messages) == 0 {
		return nil, errors.New("llm: request has no messages")
	}
	return messages, nil
}
