package emotion

import (
	"math"
	"regexp"
	"strings"
)

// Score 随语音回复返回的情绪强度，逐句计算，不持久化
type Score struct {
	Score int    `json:"score"`
	Level string `json:"level"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// ErrorScore 语音合成失败时返回的评分
var ErrorScore = Score{Score: 0, Level: "Error", Emoji: "⚠️", Color: "#6B7280"}

// IsError 判断是否为未评分的错误标记
func (s Score) IsError() bool {
	return s.Score == 0
}

// Signals 从一句话中提取的原始计数
type Signals struct {
	CapsWords        int `json:"caps_words"`
	Exclamations     int `json:"exclamations"`
	IntensePunct     int `json:"intense_punct"`
	IntenseKeywords  int `json:"intense_keywords"`
	ModerateKeywords int `json:"moderate_keywords"`
	IntenseEmoji     int `json:"intense_emoji"`
	ModerateEmoji    int `json:"moderate_emoji"`
	EmotionalWords   int `json:"emotional_words"`
	Words            int `json:"words"`
}

// Analysis 评分的中间结果
type Analysis struct {
	Cleaned string  `json:"cleaned"`
	Signals Signals `json:"signals"`
	Raw     float64 `json:"raw"`
	Score   Score   `json:"score"`
}

const (
	capsWeight          = 2.0
	exclaimWeight       = 1.5
	intensePunctWeight  = 3.0
	intenseKwWeight     = 3.0
	moderateKwWeight    = 1.5
	emojiWeight         = 2.0
	emotionalWordWeight = 1.2

	intenseEmojiPoints  = 2
	moderateEmojiPoints = 1

	wordsPerTimeUnit = 100.0
	tierDivisor      = 5.5
)

var intenseKeywords = []string{
	"hate", "furious", "livid", "rage", "devastated", "heartbroken", "betrayed",
	"terrified", "horrified", "screaming", "scream", "sobbing", "crying", "dying",
	"destroyed", "disaster", "nightmare", "worst", "outrageous", "unbelievable",
	"omg", "can't believe", "never again", "shocked", "obsessed", "insane",
}

var moderateKeywords = []string{
	"upset", "sad", "angry", "annoyed", "worried", "nervous", "anxious", "excited",
	"happy", "scared", "frustrated", "hurt", "miss", "lonely", "stressed", "amazing",
	"awesome", "wow", "love", "sorry", "tired", "rough", "proud", "surprised",
}

var emotionalWords = []string{
	"i", "me", "my", "myself", "you", "your", "yourself", "we", "us", "our",
	"feel", "feels", "feeling", "felt", "heart", "friend", "together",
}

var intenseEmoji = []string{"😭", "😡", "🤬", "💔", "😱", "🔥", "💥", "🤯", "😤", "💣"}

var moderateEmoji = []string{"😢", "😠", "😮", "😳", "😍", "🥺", "😂", "💛", "❤", "✨", "😊", "🥰"}

var (
	capsWordPattern     = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	intensePunctPattern = regexp.MustCompile(`\?!|!\?`)

	intensePatterns   = compileWordSet(intenseKeywords)
	moderatePatterns  = compileWordSet(moderateKeywords)
	emotionalPatterns = compileWordSet(emotionalWords)
)

func compileWordSet(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, word := range words {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return patterns
}

// Evaluate 计算评分并返回中间信号，无 I/O，可并发调用
func Evaluate(text string) Analysis {
	cleaned := Clean(text)
	signals := extractSignals(text, cleaned)

	emojiPoints := intenseEmojiPoints*signals.IntenseEmoji + moderateEmojiPoints*signals.ModerateEmoji
	intensity := capsWeight*float64(signals.CapsWords) +
		exclaimWeight*float64(signals.Exclamations) +
		intensePunctWeight*float64(signals.IntensePunct) +
		intenseKwWeight*float64(signals.IntenseKeywords) +
		moderateKwWeight*float64(signals.ModerateKeywords) +
		emojiWeight*float64(emojiPoints) +
		emotionalWordWeight*float64(signals.EmotionalWords)

	estTime := math.Max(1.0, float64(signals.Words)/wordsPerTimeUnit)
	raw := intensity / estTime
	tier := clampTier(int(math.RoundToEven(raw / tierDivisor)))
	entry := TierFor(tier)

	return Analysis{
		Cleaned: cleaned,
		Signals: signals,
		Raw:     raw,
		Score: Score{
			Score: tier,
			Level: entry.Label,
			Emoji: entry.Emoji,
			Color: entry.Color,
		},
	}
}

// Rate 只返回评分，不会失败；空文本或无信号文本落在第 1 档
func Rate(text string) Score {
	return Evaluate(text).Score
}

func extractSignals(original, cleaned string) Signals {
	lowered := strings.ToLower(cleaned)

	return Signals{
		CapsWords:        len(capsWordPattern.FindAllStringIndex(cleaned, -1)),
		Exclamations:     strings.Count(cleaned, "!"),
		IntensePunct:     len(intensePunctPattern.FindAllStringIndex(cleaned, -1)),
		IntenseKeywords:  countMatches(intensePatterns, lowered),
		ModerateKeywords: countMatches(moderatePatterns, lowered),
		EmotionalWords:   countMatches(emotionalPatterns, lowered),
		// Clean 会去掉 emoji，因此在原文上统计
		IntenseEmoji:  countSubstrings(intenseEmoji, original),
		ModerateEmoji: countSubstrings(moderateEmoji, original),
		Words:         len(strings.Fields(cleaned)),
	}
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	total := 0
	for _, pattern := range patterns {
		total += len(pattern.FindAllStringIndex(text, -1))
	}
	return total
}

func countSubstrings(needles []string, text string) int {
	total := 0
	for _, needle := range needles {
		total += strings.Count(text, needle)
	}
	return total
}
