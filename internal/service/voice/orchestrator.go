package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/zhouzirui/drama-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/drama-bot/backend/internal/apperr"
	"github.com/zhouzirui/drama-bot/backend/internal/logger"
	"github.com/zhouzirui/drama-bot/backend/internal/model/chat"
	"github.com/zhouzirui/drama-bot/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/drama-bot/backend/internal/service/chat"
)

// Transcriber 将录音文件转为文本
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Generator 生成陪伴者的回复
type Generator interface {
	Generate(ctx context.Context, sessionID, prompt string) (string, error)
}

// Synthesizer 合成语音并返回音频地址
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// State 单轮语音交互的状态
type State string

const (
	StateReceived           State = "RECEIVED"
	StateTranscribed        State = "TRANSCRIBED"
	StateUserPersisted      State = "USER_PERSISTED"
	StateResponded          State = "RESPONDED"
	StateAssistantPersisted State = "ASSISTANT_PERSISTED"
	StateSynthesized        State = "SYNTHESIZED"
	StateDone               State = "DONE"
	StateError              State = "ERROR"
)

// Trigger 推动状态前进的触发器
type Trigger string

const (
	TriggerTranscribed        Trigger = "transcribed"
	TriggerUserPersisted      Trigger = "user_persisted"
	TriggerResponded          Trigger = "responded"
	TriggerAssistantPersisted Trigger = "assistant_persisted"
	TriggerSynthesized        Trigger = "synthesized"
	TriggerCompleted          Trigger = "completed"
	TriggerFailed             Trigger = "failed"
)

// Result 一轮完成的语音交互结果
type Result struct {
	SessionID          string        `json:"session_id"`
	Transcript         string        `json:"transcript"`
	AIResponse         string        `json:"ai_response"`
	AudioURL           string        `json:"audio_url"`
	EmotionalScore     emotion.Score `json:"emotional_score"`
	ConversationLength int           `json:"conversation_length"`
	Type               string        `json:"type"`
}

// SpeechResult 纯文本合成的结果
type SpeechResult struct {
	SessionID      string        `json:"session_id,omitempty"`
	Text           string        `json:"text"`
	AudioURL       string        `json:"audio_url"`
	EmotionalScore emotion.Score `json:"emotional_score"`
}

// FallbackReply 回复生成失败时持久化的兜底回复
const FallbackReply = ai.OfflineReply

// Orchestrator 协调会话存储与远端服务完成语音交互
type Orchestrator struct {
	store       chatservice.Store
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	score       func(string) emotion.Score
	fallback    string
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithScorer 替换 emotion.Rate
func WithScorer(score func(string) emotion.Score) Option {
	return func(o *Orchestrator) { o.score = score }
}

// WithFallbackReply 替换 FallbackReply
func WithFallbackReply(reply string) Option {
	return func(o *Orchestrator) { o.fallback = reply }
}

// New 创建编排器
func New(store chatservice.Store, transcriber Transcriber, generator Generator, synthesizer Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		score:       emotion.Rate,
		fallback:    FallbackReply,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type turn struct {
	sessionID  string
	audioPath  string
	transcript string
	reply      string
	audioURL   string
	score      emotion.Score
	count      int
	err        error
}

// Interact 处理 audioPath 处音频的一轮语音交互
// 音频文件归本轮所有，任何退出路径都会删除；返回的错误均为 *apperr.Error
func (o *Orchestrator) Interact(ctx context.Context, sessionID, audioPath string) (*Result, error) {
	defer removeTemp(sessionID, audioPath)

	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Input("session_id is required", nil)
	}

	t := &turn{sessionID: sessionID, audioPath: audioPath}
	log := logger.Session("voice", sessionID)

	sm := newTurnMachine()
	sm.OnTransitioned(func(_ context.Context, tr stateless.Transition) {
		log.Debug("turn transition", "from", tr.Source, "to", tr.Destination, "trigger", tr.Trigger)
	})

	steps := map[State]func(context.Context, *turn) Trigger{
		StateReceived:           o.transcribe,
		StateTranscribed:        o.persistUser,
		StateUserPersisted:      o.respond,
		StateResponded:          o.persistAssistant,
		StateAssistantPersisted: o.synthesize,
		StateSynthesized:        o.summarize,
	}

	// 状态转换本身不阻塞，与调用方的取消解耦
	fireCtx := context.WithoutCancel(ctx)
	for {
		state := sm.MustState().(State)
		if state == StateDone || state == StateError {
			break
		}
		trigger := steps[state](ctx, t)
		if err := sm.FireCtx(fireCtx, trigger); err != nil {
			return nil, apperr.Internal("voice turn reached an invalid state", err)
		}
	}

	if sm.MustState() == StateError {
		log.Warn("voice turn failed", "kind", apperr.KindOf(t.err), "error", t.err)
		return nil, t.err
	}

	log.Info("voice turn completed", "conversation_length", t.count, "audio", !t.score.IsError(), "score", t.score.Score)
	return &Result{
		SessionID:          t.sessionID,
		Transcript:         t.transcript,
		AIResponse:         t.reply,
		AudioURL:           t.audioURL,
		EmotionalScore:     t.score,
		ConversationLength: t.count,
		Type:               "voice",
	}, nil
}

func newTurnMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateReceived)

	sm.Configure(StateReceived).
		Permit(TriggerTranscribed, StateTranscribed).
		Permit(TriggerFailed, StateError)
	sm.Configure(StateTranscribed).
		Permit(TriggerUserPersisted, StateUserPersisted).
		Permit(TriggerFailed, StateError)
	sm.Configure(StateUserPersisted).
		Permit(TriggerResponded, StateResponded).
		Permit(TriggerFailed, StateError)
	sm.Configure(StateResponded).
		Permit(TriggerAssistantPersisted, StateAssistantPersisted).
		Permit(TriggerFailed, StateError)
	sm.Configure(StateAssistantPersisted).
		Permit(TriggerSynthesized, StateSynthesized).
		Permit(TriggerFailed, StateError)
	sm.Configure(StateSynthesized).
		Permit(TriggerCompleted, StateDone).
		Permit(TriggerFailed, StateError)

	return sm
}

func (o *Orchestrator) transcribe(ctx context.Context, t *turn) Trigger {
	text, err := o.transcriber.Transcribe(ctx, t.audioPath)
	if err != nil {
		t.err = apperr.Input("could not transcribe audio", err)
		return TriggerFailed
	}

	t.transcript = strings.TrimSpace(text)
	if t.transcript == "" {
		t.err = apperr.Input("could not transcribe audio or audio was empty", nil)
		return TriggerFailed
	}
	return TriggerTranscribed
}

func (o *Orchestrator) persistUser(ctx context.Context, t *turn) Trigger {
	if err := o.store.Append(context.WithoutCancel(ctx), t.sessionID, chat.RoleUser, t.transcript); err != nil {
		t.err = apperr.Persistence("failed to save user message", err)
		return TriggerFailed
	}
	return TriggerUserPersisted
}

func (o *Orchestrator) respond(ctx context.Context, t *turn) Trigger {
	reply, err := o.generator.Generate(ctx, t.sessionID, t.transcript)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		logger.Session("voice", t.sessionID).Warn("generation failed, using fallback reply", "error", err)
		reply = o.fallback
	}
	t.reply = reply
	return TriggerResponded
}

func (o *Orchestrator) persistAssistant(ctx context.Context, t *turn) Trigger {
	if err := o.store.Append(context.WithoutCancel(ctx), t.sessionID, chat.RoleAssistant, t.reply); err != nil {
		t.err = apperr.Persistence("failed to save assistant message", err)
		return TriggerFailed
	}
	return TriggerAssistantPersisted
}

func (o *Orchestrator) synthesize(ctx context.Context, t *turn) Trigger {
	t.audioURL, t.score = o.render(ctx, t.sessionID, t.reply)
	return TriggerSynthesized
}

func (o *Orchestrator) summarize(ctx context.Context, t *turn) Trigger {
	stats, err := o.store.Stats(context.WithoutCancel(ctx), t.sessionID)
	if err != nil {
		t.err = apperr.Persistence("failed to read session stats", err)
		return TriggerFailed
	}
	t.count = stats.MessageCount
	return TriggerCompleted
}

// render 先评分再合成，合成失败时返回空地址和错误评分
func (o *Orchestrator) render(ctx context.Context, sessionID, text string) (string, emotion.Score) {
	score := o.score(text)

	if o.synthesizer == nil {
		return "", emotion.ErrorScore
	}
	audioURL, err := o.synthesizer.Synthesize(ctx, text)
	if err != nil {
		synthErr := apperr.Synthesis("speech synthesis failed", err)
		logger.Session("voice", sessionID).Warn("synthesis failed, returning text only", "error", synthErr)
		return "", emotion.ErrorScore
	}
	return audioURL, score
}

// TextToSpeech 对调用方提供的文本评分并合成语音，不写入会话存储
func (o *Orchestrator) TextToSpeech(ctx context.Context, sessionID, text string) (*SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Input("text is required", nil)
	}

	audioURL, score := o.render(ctx, sessionID, text)
	return &SpeechResult{
		SessionID:      sessionID,
		Text:           text,
		AudioURL:       audioURL,
		EmotionalScore: score,
	}, nil
}

func removeTemp(sessionID, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Session("voice", sessionID).Warn("could not delete temp audio", "path", path, "error", fmt.Sprint(err))
	}
}
