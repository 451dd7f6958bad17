package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/drama-bot/backend/internal/config"
)

type fakeChatClient struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIGeneratorSendsSystemAndUser(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "Hi bestie 💖"}}},
	}}
	gen := NewOpenAIGenerator(client, OpenAIOptions{Model: "llama3-70b-8192", SystemPrompt: "be kind", Temperature: 0.85, TopP: 0.95, MaxTokens: 1500})

	reply, err := gen.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "Hi bestie 💖" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if len(client.req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.req.Messages))
	}
	if client.req.Messages[0].Role != openai.ChatMessageRoleSystem || client.req.Messages[0].Content != "be kind" {
		t.Fatalf("unexpected system message %+v", client.req.Messages[0])
	}
	if client.req.Messages[1].Role != openai.ChatMessageRoleUser || client.req.Messages[1].Content != "hello" {
		t.Fatalf("unexpected user message %+v", client.req.Messages[1])
	}
	if client.req.Model != "llama3-70b-8192" || client.req.MaxTokens != 1500 {
		t.Fatalf("unexpected request %+v", client.req)
	}
}

func TestOpenAIGeneratorErrors(t *testing.T) {
	boom := errors.New("rate limited")
	if _, err := NewOpenAIGenerator(&fakeChatClient{err: boom}, OpenAIOptions{}).Generate(context.Background(), "s", "p"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := NewOpenAIGenerator(&fakeChatClient{}, OpenAIOptions{}).Generate(context.Background(), "s", "p"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

type fakeChatModel struct {
	input []*schema.Message
	reply string
	err   error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestArkGeneratorRunsChain(t *testing.T) {
	chatModel := &fakeChatModel{reply: "omg wait what happened next?"}
	gen, err := NewArkGenerator(context.Background(), chatModel, "system {not a placeholder}")
	if err != nil {
		t.Fatalf("NewArkGenerator err: %v", err)
	}

	reply, err := gen.Generate(context.Background(), "s1", "I got the part!")
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "omg wait what happened next?" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if len(chatModel.input) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(chatModel.input))
	}
	if chatModel.input[0].Role != schema.System || chatModel.input[0].Content != "system {not a placeholder}" {
		t.Fatalf("unexpected system message %+v", chatModel.input[0])
	}
	if chatModel.input[1].Role != schema.User || chatModel.input[1].Content != "I got the part!" {
		t.Fatalf("unexpected user message %+v", chatModel.input[1])
	}
}

func TestArkGeneratorWrapsModelError(t *testing.T) {
	boom := errors.New("model offline")
	gen, err := NewArkGenerator(context.Background(), &fakeChatModel{err: boom}, CompanionSystemPrompt)
	if err != nil {
		t.Fatalf("NewArkGenerator err: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "s", "hi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOfflineGenerator(t *testing.T) {
	var gen Generator = Offline{}

	reply, err := gen.Generate(context.Background(), "s", "hello")
	if err != nil || reply != OfflineReply {
		t.Fatalf("unexpected offline reply %q %v", reply, err)
	}

	playPrompt := strings.Replace(PlaywrightTemplate, "{chat_log}", "User: hi", 1)
	script, err := gen.Generate(context.Background(), "s", playPrompt)
	if err != nil || script != MockScript {
		t.Fatalf("expected mock script, got %q %v", script, err)
	}
}

func TestNewFallsBackToOffline(t *testing.T) {
	gen, err := New(context.Background(), config.AIConfig{Provider: config.ProviderAuto})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	if _, ok := gen.(Offline); !ok {
		t.Fatalf("expected Offline generator, got %T", gen)
	}

	gen, err = New(context.Background(), config.AIConfig{GroqAPIKey: "k", GroqModel: "m"})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	if _, ok := gen.(*OpenAIGenerator); !ok {
		t.Fatalf("expected OpenAIGenerator, got %T", gen)
	}
}

func TestPlaywrightTemplateHasSinglePlaceholder(t *testing.T) {
	if strings.Count(PlaywrightTemplate, "{") != 1 || strings.Count(PlaywrightTemplate, "}") != 1 {
		t.Fatal("playwright template must only contain the chat_log placeholder")
	}
}
