package speech

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zhouzirui/drama-bot/backend/internal/logger"
)

// AudioCache 将清洗后的文本映射到已合成的音频地址
// 容量有上限，满时淘汰最久未使用的条目；容量为 0 表示禁用缓存
// 被淘汰条目对应的音频文件保留在磁盘上
type AudioCache struct {
	entries *lru.Cache[string, string]
}

// NewAudioCache 创建容量为 capacity 的缓存
func NewAudioCache(capacity int) *AudioCache {
	if capacity <= 0 {
		return &AudioCache{}
	}
	entries, err := lru.NewWithEvict(capacity, func(key, locator string) {
		logger.L.Debug("tts cache evicted", "locator", locator, "chars", len(key))
	})
	if err != nil {
		// 只有非正容量会出错，上面已排除
		logger.L.Warn("tts cache disabled", "capacity", capacity, "error", err)
		return &AudioCache{}
	}
	return &AudioCache{entries: entries}
}

// Get 返回 key 对应的音频地址并标记为最近使用
func (c *AudioCache) Get(key string) (string, bool) {
	if c == nil || c.entries == nil {
		return "", false
	}
	return c.entries.Get(key)
}

// Put 写入缓存，超出容量时淘汰最久未使用的条目
func (c *AudioCache) Put(key, locator string) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Add(key, locator)
}

// Remove 删除 key
func (c *AudioCache) Remove(key string) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Remove(key)
}

// Len 返回当前条目数
func (c *AudioCache) Len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
