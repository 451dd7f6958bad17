package config

import (
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "STATIC_DIR", "LOG_LEVEL", "MEMORY_DB_PATH",
		"LLM_PROVIDER", "USE_MOCK", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"GROQ_API_KEY", "GROQ_BASE_URL", "GROQ_MODEL", "LLM_TEMPERATURE", "LLM_TOP_P", "LLM_MAX_TOKENS",
		"WHISPER_API_KEY", "WHISPER_BASE_URL", "WHISPER_MODEL", "WHISPER_LANGUAGE",
		"SPEECH_APP_ID", "SPEECH_ACCESS_TOKEN", "SPEECH_API_KEY", "SPEECH_TTS_VOICE",
		"SPEECH_TTS_SPEED", "SPEECH_TTS_VOLUME", "SPEECH_TIMEOUT", "TTS_CACHE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"http://localhost:5173"}) {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Memory.DBPath != "session_memory.db" {
		t.Fatalf("unexpected db path %q", cfg.Memory.DBPath)
	}
	if cfg.AI.ResolveProvider() != ProviderOffline {
		t.Fatalf("expected offline provider without credentials, got %s", cfg.AI.ResolveProvider())
	}
	if cfg.AI.Temperature != 0.85 || cfg.AI.TopP != 0.95 || cfg.AI.MaxTokens != 1500 {
		t.Fatalf("unexpected sampling defaults: %+v", cfg.AI)
	}
	if cfg.Transcription.Enabled() {
		t.Fatal("transcription should be disabled without credentials")
	}
	if cfg.Speech.Enabled {
		t.Fatal("speech should be disabled without credentials")
	}
	if cfg.Speech.Timeout != 30*time.Second || cfg.Speech.CacheSize != 256 {
		t.Fatalf("unexpected speech defaults: %+v", cfg.Speech)
	}
}

func TestLoadGroqCredentialsServeTranscriptionAndGeneration(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.AI.ResolveProvider() != ProviderGroq {
		t.Fatalf("expected groq provider, got %s", cfg.AI.ResolveProvider())
	}
	if !cfg.Transcription.Enabled() || cfg.Transcription.APIKey != "gsk_test" {
		t.Fatalf("expected transcription to reuse the groq key: %+v", cfg.Transcription)
	}
	if cfg.Transcription.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected transcription base url %q", cfg.Transcription.BaseURL)
	}
}

func TestResolveProvider(t *testing.T) {
	ark := AIConfig{Model: "ep-1", APIKey: "k", GroqAPIKey: "g", GroqModel: "m"}

	cases := []struct {
		name string
		cfg  AIConfig
		want Provider
	}{
		{name: "auto prefers ark", cfg: ark, want: ProviderArk},
		{name: "explicit groq", cfg: withProvider(ark, ProviderGroq), want: ProviderGroq},
		{name: "mock wins", cfg: withMock(ark), want: ProviderOffline},
		{name: "ark requested without creds", cfg: AIConfig{Provider: ProviderArk}, want: ProviderOffline},
	}

	for _, tc := range cases {
		if got := tc.cfg.ResolveProvider(); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"USE_MOCK":        "maybe",
		"LLM_TEMPERATURE": "hot",
		"LLM_PROVIDER":    "claude",
		"TTS_CACHE_SIZE":  "lots",
		"PORT":            "80 80",
	}

	for key, value := range cases {
		clearEnv(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for %s=%q", key, value)
		}
	}
}

func withProvider(cfg AIConfig, provider Provider) AIConfig {
	cfg.Provider = provider
	return cfg
}

func withMock(cfg AIConfig) AIConfig {
	cfg.UseMock = true
	return cfg
}
