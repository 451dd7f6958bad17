package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server        ServerConfig
	Memory        MemoryConfig
	AI            AIConfig
	Transcription TranscriptionConfig
	Speech        SpeechConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		Memory:        MemoryConfig{DBPath: getEnvOrDefault("MEMORY_DB_PATH", "session_memory.db")},
		AI:            ai,
		Transcription: loadTranscriptionConfig(),
		Speech:        speech,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	StaticDir      string
	LogLevel       string
}

// MemoryConfig 会话数据库位置。
type MemoryConfig struct {
	DBPath string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		StaticDir:      getEnvOrDefault("STATIC_DIR", "static"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// Provider 选择回复生成的后端。
type Provider string

const (
	ProviderAuto    Provider = "auto"
	ProviderArk     Provider = "ark"
	ProviderGroq    Provider = "groq"
	ProviderOffline Provider = "offline"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    Provider
	UseMock     bool
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ArkEnabled 表示是否提供了必需的密钥。
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// GroqEnabled 表示是否配置了 OpenAI 兼容的接口。
func (c AIConfig) GroqEnabled() bool {
	return c.GroqAPIKey != "" && c.GroqModel != ""
}

// ResolveProvider 选出实际负责生成回复的后端。
func (c AIConfig) ResolveProvider() Provider {
	if c.UseMock {
		return ProviderOffline
	}

	switch c.Provider {
	case ProviderArk:
		if c.ArkEnabled() {
			return ProviderArk
		}
	case ProviderGroq:
		if c.GroqEnabled() {
			return ProviderGroq
		}
	case ProviderOffline:
		return ProviderOffline
	default:
		if c.ArkEnabled() {
			return ProviderArk
		}
		if c.GroqEnabled() {
			return ProviderGroq
		}
	}
	return ProviderOffline
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	temperature := float32(c.Temperature)
	topP := float32(c.TopP)
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	useMock, err := parseBoolEnv("USE_MOCK", false)
	if err != nil {
		return AIConfig{}, err
	}

	temperature, err := parseFloatEnv("LLM_TEMPERATURE", 0.85)
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseFloatEnv("LLM_TOP_P", 0.95)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseIntEnv("LLM_MAX_TOKENS", 1500)
	if err != nil {
		return AIConfig{}, err
	}

	provider := Provider(strings.ToLower(getEnvOrDefault("LLM_PROVIDER", string(ProviderAuto))))
	switch provider {
	case ProviderAuto, ProviderArk, ProviderGroq, ProviderOffline:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:    provider,
		UseMock:     useMock,
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		GroqAPIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqBaseURL: getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnvOrDefault("GROQ_MODEL", "llama3-70b-8192"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// TranscriptionConfig 描述 Whisper 兼容的语音识别配置。
type TranscriptionConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// Enabled 表示是否提供了语音识别凭证。
func (c TranscriptionConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTranscriptionConfig() TranscriptionConfig {
	apiKey := strings.TrimSpace(os.Getenv("WHISPER_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	}

	baseURL := strings.TrimSpace(os.Getenv("WHISPER_BASE_URL"))
	if baseURL == "" {
		baseURL = getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	}

	return TranscriptionConfig{
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Model:    getEnvOrDefault("WHISPER_MODEL", "whisper-large-v3"),
		Language: strings.TrimSpace(os.Getenv("WHISPER_LANGUAGE")),
	}
}

// SpeechConfig 描述语音合成相关配置
type SpeechConfig struct {
	AppID       string
	AccessToken string
	TTSVoice    string
	TTSSpeed    float32
	TTSVolume   float32
	TTSLanguage string
	Timeout     time.Duration
	CacheSize   int
	Enabled     bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeoutSeconds, err := parseIntEnv("SPEECH_TIMEOUT", 30)
	if err != nil {
		return SpeechConfig{}, err
	}

	speed, err := parseFloatEnv("SPEECH_TTS_SPEED", 1.0)
	if err != nil {
		return SpeechConfig{}, err
	}

	volume, err := parseFloatEnv("SPEECH_TTS_VOLUME", 1.0)
	if err != nil {
		return SpeechConfig{}, err
	}

	cacheSize, err := parseIntEnv("TTS_CACHE_SIZE", 256)
	if err != nil {
		return SpeechConfig{}, err
	}
	if cacheSize < 0 {
		cacheSize = 0
	}

	appID := strings.TrimSpace(os.Getenv("SPEECH_APP_ID"))
	accessToken := strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN"))
	if accessToken == "" {
		accessToken = strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	}

	return SpeechConfig{
		AppID:       appID,
		AccessToken: accessToken,
		TTSVoice:    getEnvOrDefault("SPEECH_TTS_VOICE", "en_female_amy_jupiter_bigtts"),
		TTSSpeed:    float32(speed),
		TTSVolume:   float32(volume),
		TTSLanguage: getEnvOrDefault("SPEECH_TTS_LANGUAGE", "en-US"),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		CacheSize:   cacheSize,
		Enabled:     appID != "" && accessToken != "",
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
