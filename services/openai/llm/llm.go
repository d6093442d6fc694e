package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sashabaranov/go-openai"

	"voiceloop/core"
)

// Config holds the configuration for the chat-completion collaborator.
// BaseURL may point at any OpenAI-compatible endpoint, including a local
// gateway.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Service implements orchestrator.LLMService on top of the OpenAI
// chat-completion API.
type Service struct {
	client *openai.Client
	config Config
	logger *core.Logger
}

// NewService creates a chat-completion service. An empty BaseURL targets the
// public OpenAI API.
func NewService(config Config, logger *core.Logger) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if config.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// StreamReply requests a streamed completion and forwards each content delta
// on the tokens channel. The channel stays open; the caller owns it.
func (s *Service) StreamReply(ctx context.Context, messages []core.Message, temperature float32, maxTokens int, tokens chan<- string) error {
	req := s.buildRequest(messages, temperature, maxTokens)
	req.Stream = true

	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return classifyError(err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return classifyError(err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		select {
		case tokens <- delta:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// GetReply requests a complete, non-streamed reply.
func (s *Service) GetReply(ctx context.Context, messages []core.Message, temperature float32, maxTokens int) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.buildRequest(messages, temperature, maxTokens))
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *Service) buildRequest(messages []core.Message, temperature float32, maxTokens int) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    convertRole(msg.Role),
			Content: msg.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    converted,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func convertRole(role core.Role) string {
	switch role {
	case core.RoleSystem:
		return openai.ChatMessageRoleSystem
	case core.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// classifyError maps endpoint failures onto the recovery taxonomy: a 400
// means the context window is no longer acceptable, while network failures
// and gateway errors are transient transport problems. Anything else passes
// through unclassified.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 400:
			return &core.ContextCorruptionError{Err: err}
		case apiErr.HTTPStatusCode == 408 ||
			apiErr.HTTPStatusCode == 429 ||
			apiErr.HTTPStatusCode >= 500:
			return &core.TransportError{Err: err}
		}
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &core.TransportError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &core.TransportError{Err: err}
	}
	return err
}
