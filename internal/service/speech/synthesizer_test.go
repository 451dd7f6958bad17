package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRenderer struct {
	calls []string
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, text string) ([]byte, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3-fake-mp3"), nil
}

func TestSynthesizeWritesFileAndReturnsLocator(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{}
	synth := NewSynthesizer(renderer, NewAudioCache(8), dir)

	locator, err := synth.Synthesize(context.Background(), "**Hello** there 😊 https://x.test")
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}

	if !strings.HasPrefix(locator, AudioURLPrefix+"tts_") || !strings.HasSuffix(locator, ".mp3") {
		t.Fatalf("unexpected locator %q", locator)
	}
	if len(strings.TrimSuffix(strings.TrimPrefix(locator, AudioURLPrefix+"tts_"), ".mp3")) != 8 {
		t.Fatalf("expected 8 hex chars in %q", locator)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audio", filepath.Base(locator)))
	if err != nil {
		t.Fatalf("audio file missing: %v", err)
	}
	if string(data) != "ID3-fake-mp3" {
		t.Fatalf("unexpected audio content %q", data)
	}
	if len(renderer.calls) != 1 || renderer.calls[0] != "Hello there" {
		t.Fatalf("renderer should receive cleaned text, got %v", renderer.calls)
	}
}

func TestSynthesizeUsesCacheForSameCleanedText(t *testing.T) {
	renderer := &fakeRenderer{}
	synth := NewSynthesizer(renderer, NewAudioCache(8), t.TempDir())

	first, err := synth.Synthesize(context.Background(), "Hello there!")
	if err != nil {
		t.Fatalf("first err: %v", err)
	}
	second, err := synth.Synthesize(context.Background(), "Hello   there! 🎉")
	if err != nil {
		t.Fatalf("second err: %v", err)
	}

	if first != second {
		t.Fatalf("expected cached locator, got %q and %q", first, second)
	}
	if len(renderer.calls) != 1 {
		t.Fatalf("expected a single render, got %d", len(renderer.calls))
	}
}

func TestSynthesizeRerendersWhenCachedFileIsGone(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{}
	synth := NewSynthesizer(renderer, NewAudioCache(8), dir)

	first, err := synth.Synthesize(context.Background(), "again")
	if err != nil {
		t.Fatalf("first err: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "audio", filepath.Base(first))); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := synth.Synthesize(context.Background(), "again"); err != nil {
		t.Fatalf("second err: %v", err)
	}
	if len(renderer.calls) != 2 {
		t.Fatalf("expected re-render, got %d calls", len(renderer.calls))
	}
}

func TestSynthesizeFailures(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name  string
		synth *Synthesizer
		text  string
		want  error
	}{
		{name: "no renderer", synth: NewSynthesizer(nil, nil, t.TempDir()), text: "hi", want: ErrSynthesisUnavailable},
		{name: "emoji only", synth: NewSynthesizer(&fakeRenderer{}, nil, t.TempDir()), text: "🔥🔥", want: ErrNothingToSay},
		{name: "render error", synth: NewSynthesizer(&fakeRenderer{err: boom}, nil, t.TempDir()), text: "hi", want: boom},
	}

	for _, tc := range cases {
		locator, err := tc.synth.Synthesize(context.Background(), tc.text)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if locator != "" {
			t.Errorf("%s: expected empty locator, got %q", tc.name, locator)
		}
	}
}
