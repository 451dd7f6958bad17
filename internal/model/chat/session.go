package chat

// Stats 单个会话的统计
type Stats struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
}

// Overview 整个存储的统计
type Overview struct {
	SessionCount int `json:"session_count"`
	MessageCount int `json:"message_count"`
}
