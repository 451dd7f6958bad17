package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

// ArkGenerator 通过 eino 链调用模型：系统与用户模板在前，聊天模型在后
type ArkGenerator struct {
	system string
	chain  compose.Runnable[map[string]any, *schema.Message]
}

// NewArkGenerator 围绕 chatModel 编译调用链
func NewArkGenerator(ctx context.Context, chatModel model.ChatModel, systemPrompt string) (*ArkGenerator, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{system: systemPrompt, chain: runnable}, nil
}

// Generate 调用模型生成回复
func (g *ArkGenerator) Generate(ctx context.Context, sessionID, query string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system": g.system,
		"query":  query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	logger.L.Info("ark response generated", "session_id", sessionID, "length", len(response.Content))
	return response.Content, nil
}
