package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	"github.com/zhouzirui/drama-bot/backend/internal/model/chat"
	"github.com/zhouzirui/drama-bot/backend/internal/service/ai"
)

const (
	NoConversationScript = "No conversation found."
	NotEnoughScript      = "Not enough content to generate a script."
)

// Reader 会话存储的读取接口
type Reader interface {
	Read(ctx context.Context, sessionID string) ([]chat.Message, error)
}

// Result 生成的剧本以及按角色拆分的对话
type Result struct {
	Script    string   `json:"script"`
	UserLines []string `json:"user_lines"`
	BotLines  []string `json:"bot_lines"`
	// Empty 表示无对话时的占位结果
	Empty bool `json:"-"`
}

// Service 将会话改编为舞台剧
type Service struct {
	store     Reader
	generator ai.Generator
	template  prompt.ChatTemplate
}

func NewService(store Reader, generator ai.Generator) *Service {
	return &Service{
		store:     store,
		generator: generator,
		template:  prompt.FromMessages(schema.FString, schema.UserMessage(ai.PlaywrightTemplate)),
	}
}

// Generate 读取完整对话并请求生成原创剧本
// 生成失败直接返回错误，不提供替代结果
func (s *Service) Generate(ctx context.Context, sessionID string) (*Result, error) {
	log := logger.Session("script", sessionID)

	messages, err := s.store.Read(ctx, sessionID)
	if err != nil {
		return nil, apperr.Persistence("failed to read conversation", err)
	}

	result := &Result{UserLines: []string{}, BotLines: []string{}}
	if len(messages) == 0 {
		result.Script = NoConversationScript
		result.Empty = true
		return result, nil
	}

	var transcript strings.Builder
	for _, msg := range messages {
		line := strings.TrimSpace(msg.Content)
		switch msg.Role {
		case chat.RoleUser:
			result.UserLines = append(result.UserLines, line)
		case chat.RoleAssistant:
			result.BotLines = append(result.BotLines, line)
		default:
			continue
		}
		if transcript.Len() > 0 {
			transcript.WriteByte('\n')
		}
		transcript.WriteString(msg.Role.Label() + ": " + line)
	}

	if len(result.UserLines) == 0 && len(result.BotLines) == 0 {
		result.Script = NotEnoughScript
		return result, nil
	}

	rendered, err := s.render(ctx, transcript.String())
	if err != nil {
		return nil, apperr.Generation("failed to build script prompt", err)
	}

	log.Info("generating script", "messages", len(messages), "prompt_length", len(rendered))
	script, err := s.generator.Generate(ctx, sessionID, rendered)
	if err != nil {
		log.Error("script generation failed", "error", err)
		return nil, apperr.Generation("script generation failed", err)
	}

	result.Script = script
	return result, nil
}

func (s *Service) render(ctx context.Context, chatLog string) (string, error) {
	msgs, err := s.template.Format(ctx, map[string]any{"chat_log": chatLog})
	if err != nil {
		return "", err
	}
	if len(msgs) != 1 {
		return "", fmt.Errorf("expected one rendered message, got %d", len(msgs))
	}
	return msgs[0].Content, nil
}
