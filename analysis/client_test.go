package analysis

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/richinex/keylight/internal/logging"
	"github.com/richinex/keylight/llm"
)

// fakeProvider returns a canned reply or error and records the prompt.
type fakeProvider struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.Response, error) {
	if len(messages) > 0 {
		f.prompt = messages[len(messages)-1].Content
	}
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply}, nil
}

func TestExtractParsesJSONArray(t *testing.T) {
	provider := &fakeProvider{reply: `["machine learning", "neural networks"]`}
	client := NewClient(provider, logging.Discard())

	got := client.Extract(context.Background(), "some page text about machine learning")
	want := []string{"machine learning", "neural networks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !strings.Contains(provider.prompt, "some page text about machine learning") {
		t.Error("prompt should embed the source text")
	}
}

func TestExtractFencedReply(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n[\"A\",\"B\"]\n```"}
	client := NewClient(provider, logging.Discard())

	got := client.Extract(context.Background(), "text")
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractLineFallback(t *testing.T) {
	provider := &fakeProvider{reply: "A\nB\n"}
	client := NewClient(provider, logging.Discard())

	got := client.Extract(context.Background(), "text")
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractProviderErrorYieldsNothing(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	client := NewClient(provider, logging.Discard())

	if got := client.Extract(context.Background(), "text"); got != nil {
		t.Errorf("expected nil on provider error, got %v", got)
	}
}

func TestParseReplyEmpty(t *testing.T) {
	if got := ParseReply("   \n"); got != nil {
		t.Errorf("expected nil for blank reply, got %v", got)
	}
}

func TestParseReplyDropsBlankEntries(t *testing.T) {
	got := ParseReply(`["keep", "  ", ""]`)
	if len(got) != 1 || got[0] != "keep" {
		t.Errorf("expected blank entries dropped, got %v", got)
	}
}
