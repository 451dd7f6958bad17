package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/drama-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/drama-bot/backend/internal/config"
	speechmodel "github.com/zhouzirui/drama-bot/backend/internal/model/speech"
	"github.com/zhouzirui/drama-bot/backend/internal/service/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	mode := flag.String("mode", "", "测试模式: asr, tts 或 score")
	audioPath := flag.String("file", "", "ASR 输入音频文件路径")
	text := flag.String("text", "", "TTS / score 输入文本")
	outputPath := flag.String("out", "", "TTS 输出音频文件路径 (默认 tts-output-<unix>.mp3)")
	voice := flag.String("voice", "", "TTS 声音 ID，默认使用配置中的 SPEECH_TTS_VOICE")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	if *mode == "score" {
		runScore(*text)
		return
	}

	if *mode != "asr" && *mode != "tts" {
		flag.Usage()
		log.Fatal("请通过 -mode=asr, -mode=tts 或 -mode=score 指定测试模式")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "asr":
		runASR(ctx, cfg, *audioPath)
	case "tts":
		runTTS(ctx, cfg, *text, *voice, *outputPath)
	}
}

func runASR(ctx context.Context, cfg *config.Config, audioPath string) {
	if audioPath == "" {
		log.Fatal("ASR 模式需要通过 -file 指定音频文件路径")
	}
	if !cfg.Transcription.Enabled() {
		log.Fatal("语音识别未启用，请先配置 WHISPER_API_KEY 或 GROQ_API_KEY")
	}

	transcriber := speech.NewTranscriber(speechmodel.TranscriptionConfig{
		APIKey:   cfg.Transcription.APIKey,
		BaseURL:  cfg.Transcription.BaseURL,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
	})

	log.Printf("开始进行 ASR 测试: file=%s model=%s", audioPath, cfg.Transcription.Model)
	start := time.Now()
	transcript, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		log.Fatalf("ASR 调用失败: %v", err)
	}

	log.Printf("ASR 识别成功: text=%q elapsed=%s", transcript, time.Since(start).Round(time.Millisecond))
	printScore(transcript)
}

func runTTS(ctx context.Context, cfg *config.Config, text, voice, outputPath string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("TTS 模式需要通过 -text 提供待合成文本")
	}
	if !cfg.Speech.Enabled {
		log.Fatal("语音合成未启用，请先配置 SPEECH_APP_ID 与 SPEECH_ACCESS_TOKEN")
	}

	if voice == "" {
		voice = cfg.Speech.TTSVoice
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	client := speech.NewVolcengineTTSClient(&speechmodel.SpeechConfig{
		AppID:       cfg.Speech.AppID,
		AccessToken: cfg.Speech.AccessToken,
		TTSVoice:    cfg.Speech.TTSVoice,
		TTSSpeed:    cfg.Speech.TTSSpeed,
		TTSVolume:   cfg.Speech.TTSVolume,
		TTSLanguage: cfg.Speech.TTSLanguage,
		Timeout:     cfg.Speech.Timeout,
	})

	cleaned := emotion.Clean(text)
	log.Printf("开始进行 TTS 测试: voice=%s text=%q", voice, cleaned)

	resp, err := client.Synthesize(ctx, &speechmodel.TTSRequest{
		Text:     cleaned,
		Voice:    voice,
		Format:   "mp3",
		Language: cfg.Speech.TTSLanguage,
	})
	if err != nil {
		log.Fatalf("TTS 调用失败: %v", err)
	}

	if err := os.WriteFile(outputPath, resp.AudioData, 0o644); err != nil {
		log.Fatalf("写入音频文件失败: %v", err)
	}

	log.Printf("TTS 合成成功: 输出文件 %s, %d bytes, reqid=%s", outputPath, len(resp.AudioData), resp.RequestID)
	printScore(text)
}

func runScore(text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("score 模式需要通过 -text 提供文本")
	}
	printScore(text)
}

func printScore(text string) {
	out, err := json.MarshalIndent(emotion.Evaluate(text), "", "  ")
	if err != nil {
		log.Fatalf("序列化评分失败: %v", err)
	}
	fmt.Println(string(out))
}
