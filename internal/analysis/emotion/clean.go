package emotion

import (
	"regexp"
	"strings"
)

// MaxCleanLength 参与评分与合成的文本长度上限
const MaxCleanLength = 500

var (
	markdownImagePattern = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	urlPattern           = regexp.MustCompile(`https?://\S+`)
	nonVerbalPattern     = regexp.MustCompile(`[^a-zA-Z0-9.,;:!?'"\s-]`)
	whitespacePattern    = regexp.MustCompile(`\s+`)

	typographicReplacer = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
		"–", "-", "—", "-",
		"…", "...",
	)
)

// Clean 去除标记、链接、emoji 等非语言符号，合并空白并截断到 MaxCleanLength
// 评分与语音合成使用同一份清洗结果
func Clean(text string) string {
	cleaned := typographicReplacer.Replace(text)
	cleaned = markdownImagePattern.ReplaceAllString(cleaned, "")
	cleaned = urlPattern.ReplaceAllString(cleaned, "")
	cleaned = nonVerbalPattern.ReplaceAllString(cleaned, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// 经过上面的过滤只剩 ASCII，字节长度即字符长度
	if len(cleaned) > MaxCleanLength {
		cleaned = strings.TrimSpace(cleaned[:MaxCleanLength])
	}
	return cleaned
}
