package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

// ChatClient *openai.Client 中用于对话补全的部分
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient 创建 OpenAI 兼容接口的客户端，默认指向 Groq
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIOptions 每次补全的采样参数
type OpenAIOptions struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	TopP         float32
	MaxTokens    int
}

// OpenAIGenerator 每次调用发送一条系统消息和一条用户消息
type OpenAIGenerator struct {
	client ChatClient
	opts   OpenAIOptions
}

func NewOpenAIGenerator(client ChatClient, opts OpenAIOptions) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, opts: opts}
}

// Generate 返回第一个候选的内容
func (g *OpenAIGenerator) Generate(ctx context.Context, sessionID, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.opts.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.opts.Temperature,
		TopP:        g.opts.TopP,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	logger.L.Info("chat completion generated", "session_id", sessionID, "model", g.opts.Model, "length", len(content))
	return content, nil
}
