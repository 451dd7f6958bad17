package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	speechmodel "github.com/zhouzirui/drama-bot/backend/internal/model/speech"
)

// ErrTranscriptionUnavailable 未配置语音识别接口
var ErrTranscriptionUnavailable = errors.New("speech transcription is not configured")

// AudioClient *openai.Client 中用于语音识别的部分
type AudioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber 将录音发送到 Whisper 兼容接口进行识别
type Transcriber struct {
	client   AudioClient
	model    string
	language string
}

// NewTranscriber 根据配置创建转写器
// 未配置 API Key 时每次调用都返回 ErrTranscriptionUnavailable
func NewTranscriber(cfg speechmodel.TranscriptionConfig) *Transcriber {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Transcriber{model: cfg.Model, language: cfg.Language}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewTranscriberWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model, cfg.Language)
}

// NewTranscriberWithClient 使用自定义客户端创建转写器
func NewTranscriberWithClient(client AudioClient, model, language string) *Transcriber {
	if model == "" {
		model = "whisper-large-v3"
	}
	return &Transcriber{client: client, model: model, language: language}
}

// Transcribe 返回 path 处音频去除首尾空白后的识别文本
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t == nil || t.client == nil {
		return "", ErrTranscriptionUnavailable
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", path, err)
	}

	return strings.TrimSpace(resp.Text), nil
}
