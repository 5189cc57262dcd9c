package translate

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgpai22/lyricquiz/internal/lyrics"
)

func TestFactoryReturnsGeminiTranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Japanese"}
	translator, err := Factory(ctx, ProviderGemini, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderGemini) returned error: %v", err)
	}
	if _, ok := translator.(*GeminiTranslator); !ok {
		t.Errorf("expected *GeminiTranslator, got %T", translator)
	}
}

func TestFactoryReturnsOpenAITranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Spanish"}
	translator, err := Factory(ctx, ProviderOpenAI, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderOpenAI) returned error: %v", err)
	}
	if _, ok := translator.(*OpenAITranslator); !ok {
		t.Errorf("expected *OpenAITranslator, got %T", translator)
	}
}

func TestFactoryReturnsAnthropicTranslator(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "German"}
	translator, err := Factory(ctx, ProviderAnthropic, "fake-key", opts)
	if err != nil {
		t.Fatalf("Factory(ProviderAnthropic) returned error: %v", err)
	}
	if _, ok := translator.(ConcurrentTranslator); !ok {
		t.Error("AnthropicTranslator should implement ConcurrentTranslator")
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	ctx := context.Background()
	opts := Options{} // no TargetLanguage
	_, err := Factory(ctx, ProviderGemini, "fake-key", opts)
	if err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "French"}
	for _, provider := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		if _, err := Factory(ctx, provider, "", opts); err == nil {
			t.Errorf("%s: expected error for missing API key", provider)
		}
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "French"}
	_, err := Factory(ctx, Provider("unknown"), "fake-key", opts)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	items := []TranslationItem{
		{Index: 0, Text: "Hello world"},
		{Index: 1, Text: "Goodbye"},
	}

	prompt := BuildPrompt(Options{InputLanguage: "English", TargetLanguage: "Japanese"}, items)

	for _, want := range []string{
		"English song lyric lines",
		"to Japanese",
		"Hello world",
		`"index": 0`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(
		Options{TargetLanguage: "Spanish", Prompt: "keep it singable"},
		[]TranslationItem{{Index: 0, Text: "Hello"}},
	)

	if strings.Contains(prompt, "English") {
		t.Error("prompt should not contain input language when not specified")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
	if !strings.Contains(prompt, "Additional instructions: keep it singable") {
		t.Error("prompt should contain additional instructions")
	}
}

type mapTranslator struct {
	dict  map[string]string
	seen  []TranslationItem
	err   error
	shift int
}

func (m *mapTranslator) Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.seen = items
	out := make([]TranslationResult, len(items))
	for i, item := range items {
		out[i] = TranslationResult{Index: item.Index + m.shift, Text: m.dict[item.Text]}
	}
	return out, nil
}

func TestLyrics(t *testing.T) {
	lines := lyrics.Track{
		{Time: 0, Text: "星の下で"},
		{Time: 4.5, Text: ""},
		{Time: 9, Text: "走り続ける"},
	}
	tr := &mapTranslator{dict: map[string]string{
		"星の下で":  "Under the stars",
		"走り続ける": "Keep on running",
	}}

	got, err := Lyrics(context.Background(), tr, lines, 1)
	if err != nil {
		t.Fatalf("Lyrics returned error: %v", err)
	}

	want := lyrics.Track{
		{Time: 0, Text: "Under the stars"},
		{Time: 4.5, Text: ""},
		{Time: 9, Text: "Keep on running"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("translated lyrics mismatch (-want +got):\n%s", diff)
	}
	if len(tr.seen) != 2 {
		t.Errorf("blank lines should not be sent, got %d items", len(tr.seen))
	}
	if lines[0].Text != "星の下で" {
		t.Error("input track was modified")
	}
}

func TestLyricsEdgeCases(t *testing.T) {
	t.Run("no text lines", func(t *testing.T) {
		tr := &mapTranslator{err: errors.New("should not be called")}
		got, err := Lyrics(context.Background(), tr, lyrics.Track{{Time: 1, Text: "  "}}, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected blank line to be kept, got %v", got)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		tr := &mapTranslator{err: errors.New("rate limited")}
		if _, err := Lyrics(context.Background(), tr, lyrics.Track{{Text: "a"}}, 1); err == nil {
			t.Error("expected provider error")
		}
	})

	t.Run("unknown index", func(t *testing.T) {
		tr := &mapTranslator{dict: map[string]string{"a": "b"}, shift: 5}
		if _, err := Lyrics(context.Background(), tr, lyrics.Track{{Text: "a"}}, 1); err == nil {
			t.Error("expected error for out of range index")
		}
	})
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{TargetLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	got, err := Lyrics(ctx, translator, lyrics.Track{
		{Time: 0, Text: "Hello"},
		{Time: 2, Text: "Goodbye"},
	}, 1)
	if err != nil {
		t.Fatalf("Lyrics error: %v", err)
	}
	for i, line := range got {
		if line.Text == "" {
			t.Errorf("line %d has empty text", i)
		}
	}
}
