package ai

import (
	"context"
	"fmt"

	"github.com/zhouzirui/drama-bot/backend/internal/config"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

// Generator 为渲染好的提示词生成回复
type Generator interface {
	Generate(ctx context.Context, sessionID, prompt string) (string, error)
}

// New 根据配置选择生成后端，缺少凭证时退化为 Offline，不阻止启动
func New(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	provider := cfg.ResolveProvider()
	logger.L.Info("llm provider selected", "provider", provider, "requested", cfg.Provider)

	switch provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewArkGenerator(ctx, chatModel, CompanionSystemPrompt)
	case config.ProviderGroq:
		return NewOpenAIGenerator(NewOpenAIClient(cfg.GroqAPIKey, cfg.GroqBaseURL), OpenAIOptions{
			Model:        cfg.GroqModel,
			SystemPrompt: CompanionSystemPrompt,
			Temperature:  float32(cfg.Temperature),
			TopP:         float32(cfg.TopP),
			MaxTokens:    cfg.MaxTokens,
		}), nil
	default:
		return Offline{}, nil
	}
}

// Offline 固定输出的生成器，用于测试和未配置凭证的运行
type Offline struct{}

// Generate 剧本提示词返回 MockScript，其余返回 OfflineReply
func (Offline) Generate(_ context.Context, sessionID, prompt string) (string, error) {
	logger.L.Info("using offline llm response", "session_id", sessionID)
	if IsPlaywrightPrompt(prompt) {
		return MockScript, nil
	}
	return OfflineReply, nil
}
