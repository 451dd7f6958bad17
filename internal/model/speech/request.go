package speech

// TTSRequest 语音合成请求
type TTSRequest struct {
	UID      string  `json:"uid"`
	Text     string  `json:"text"`
	Voice    string  `json:"voice"`
	Speed    float32 `json:"speed"`  // 语速倍率 0.5-2.0
	Volume   float32 `json:"volume"` // 音量 0.0-1.0
	Format   string  `json:"format"` // mp3
	Language string  `json:"language"`
}
