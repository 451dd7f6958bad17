package speech

import "time"

// SpeechConfig 语音合成服务配置
type SpeechConfig struct {
	AppID       string `json:"appId"`       // 火山引擎 APP ID
	AccessToken string `json:"accessToken"` // 火山引擎 Access Token

	TTSVoice    string  `json:"ttsVoice"`
	TTSSpeed    float32 `json:"ttsSpeed"`
	TTSVolume   float32 `json:"ttsVolume"`
	TTSLanguage string  `json:"ttsLanguage"`

	Timeout time.Duration `json:"timeout"`
}

// TranscriptionConfig Whisper 兼容的语音识别配置
type TranscriptionConfig struct {
	APIKey   string `json:"-"`
	BaseURL  string `json:"baseUrl"`
	Model    string `json:"model"`
	Language string `json:"language"`
}
