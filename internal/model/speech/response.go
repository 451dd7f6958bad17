package speech

// TTSResponse 语音合成响应
type TTSResponse struct {
	AudioData []byte `json:"-"`
	Duration  int64  `json:"duration"` // 毫秒
	Format    string `json:"format"`
	RequestID string `json:"requestId,omitempty"`
}
