package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zhouzirui/drama-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

var (
	// ErrSynthesisUnavailable 未配置合成后端
	ErrSynthesisUnavailable = errors.New("speech synthesis is not configured")
	// ErrNothingToSay 清洗后文本为空
	ErrNothingToSay = errors.New("no speakable text")
)

// AudioURLPrefix 合成音频的访问路径前缀
const AudioURLPrefix = "/static/audio/"

// Renderer 将清洗后的文本合成为音频
type Renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// Synthesizer 将文本合成为静态目录下的 mp3 文件并返回访问地址
type Synthesizer struct {
	renderer Renderer
	cache    *AudioCache
	audioDir string
}

// NewSynthesizer 创建合成器；renderer 为 nil 时所有调用返回 ErrSynthesisUnavailable
func NewSynthesizer(renderer Renderer, cache *AudioCache, staticDir string) *Synthesizer {
	return &Synthesizer{
		renderer: renderer,
		cache:    cache,
		audioDir: filepath.Join(staticDir, "audio"),
	}
}

// Synthesize 合成语音，返回形如 /static/audio/tts_1a2b3c4d.mp3 的地址
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if s == nil || s.renderer == nil {
		return "", ErrSynthesisUnavailable
	}

	cleaned := emotion.Clean(text)
	if cleaned == "" {
		return "", ErrNothingToSay
	}

	if locator, ok := s.cache.Get(cleaned); ok {
		if _, err := os.Stat(s.filePath(locator)); err == nil {
			logger.L.Debug("tts cache hit", "locator", locator)
			return locator, nil
		}
		s.cache.Remove(cleaned)
	}

	audio, err := s.renderer.Render(ctx, cleaned)
	if err != nil {
		return "", fmt.Errorf("render speech: %w", err)
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	name := "tts_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8] + ".mp3"
	if err := os.WriteFile(filepath.Join(s.audioDir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	locator := AudioURLPrefix + name
	s.cache.Put(cleaned, locator)
	logger.L.Info("tts rendered", "locator", locator, "bytes", len(audio))
	return locator, nil
}

func (s *Synthesizer) filePath(locator string) string {
	return filepath.Join(s.audioDir, path.Base(locator))
}
