package chat

import (
	"fmt"
	"strings"
)

// Role 会话中可持久化的说话方，取值封闭
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid 判断是否为可持久化的角色
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label 渲染对话记录到提示词时使用的说话人标签
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Bot"
}

// ParseRole 将外部组件与旧客户端使用的角色名（"bot"、"ai"、"human" 等）映射到 Role
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "human":
		return RoleUser, nil
	case "assistant", "bot", "ai":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Message 会话中已持久化的一条消息
// 排序键只存在于存储内部，不对外暴露
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
