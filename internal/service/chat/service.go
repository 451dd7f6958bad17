package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	"github.com/zhouzirui/drama-bot/backend/internal/model/chat"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrInvalidRole     = errors.New("role must be user or assistant")
	ErrStoreClosed     = errors.New("conversation store is closed")
)

// Store 按会话划分的持久化对话记录
type Store interface {
	Append(ctx context.Context, sessionID string, role chat.Role, content string) error
	Read(ctx context.Context, sessionID string) ([]chat.Message, error)
	Stats(ctx context.Context, sessionID string) (chat.Stats, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS memory (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	role       TEXT    NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT    NOT NULL,
	timestamp  REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_session ON memory (session_id, timestamp, id);
`

// 同一会话内时间戳不回退，即使系统时钟被调整，按 (timestamp, id) 排序也与写入顺序一致
const insertMessage = `
INSERT INTO memory (session_id, role, content, timestamp)
VALUES (?, ?, ?, MAX(?, COALESCE((SELECT MAX(timestamp) FROM memory WHERE session_id = ?), 0)))`

// Service 基于 SQLite 的 Store 实现
// 单连接串行化写入，每条语句原子提交
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// Open 打开 path 处的会话数据库，不存在时创建
func Open(ctx context.Context, path string) (*Service, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "session_memory.db"
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping conversation store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create conversation schema: %w", err)
	}

	logger.L.Info("conversation store initialized", "path", path)
	return &Service{db: db, now: time.Now}, nil
}

// Close 关闭数据库
func (s *Service) Close() error {
	return s.db.Close()
}

// Append 持久化一条消息，时间戳取调用时刻
func (s *Service) Append(ctx context.Context, sessionID string, role chat.Role, content string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	timestamp := float64(s.now().UnixNano()) / float64(time.Second)
	if _, err := s.db.ExecContext(ctx, insertMessage, sessionID, string(role), content, timestamp, sessionID); err != nil {
		return fmt.Errorf("append message for session %s: %w", sessionID, s.mapErr(err))
	}
	return nil
}

// Read 按写入顺序返回会话消息，未知会话返回非 nil 的空切片
// 存储的角色名经 chat.ParseRole 映射，无法映射时读取失败
func (s *Service) Read(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM memory
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, s.mapErr(err))
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, 16)
	for rows.Next() {
		var (
			role    string
			content string
		)
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message for session %s: %w", sessionID, err)
		}
		// 旧版客户端写入的数据库中可能仍有 "bot" 行
		parsed, err := chat.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("read session %s: %w: %q", sessionID, ErrInvalidRole, role)
		}
		messages = append(messages, chat.Message{Role: parsed, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session %s: %w", sessionID, err)
	}
	return messages, nil
}

// Stats 统计会话当前的消息条数
func (s *Service) Stats(ctx context.Context, sessionID string) (chat.Stats, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return chat.Stats{}, fmt.Errorf("count session %s: %w", sessionID, s.mapErr(err))
	}
	return chat.Stats{SessionID: sessionID, MessageCount: count}, nil
}

// Delete 物理删除会话的全部消息，并返回是否存在过消息
func (s *Service) Delete(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memory WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, s.mapErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return affected > 0, nil
}

// Overview 汇总所有会话的统计
func (s *Service) Overview(ctx context.Context) (chat.Overview, error) {
	var overview chat.Overview
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT session_id), COUNT(*) FROM memory`).
		Scan(&overview.SessionCount, &overview.MessageCount)
	if err != nil {
		return chat.Overview{}, fmt.Errorf("memory overview: %w", s.mapErr(err))
	}
	return overview, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return ErrStoreClosed
	}
	return err
}
