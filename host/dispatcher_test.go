package host

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/richinex/keylight/config"
	"github.com/richinex/keylight/internal/logging"
	"github.com/richinex/keylight/storage"
)

type staticExtractor struct {
	keypoints []string
	calls     int
}

func (s *staticExtractor) Extract(_ context.Context, _ string) []string {
	s.calls++
	return s.keypoints
}

func testDispatcher(t *testing.T, extractor *staticExtractor) (*Dispatcher, *storage.SqliteStore) {
	t.Helper()
	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Settings{
		APIURL:         config.DefaultAPIURL,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		HighlightColor: config.DefaultHighlightColor,
		HighlightStyle: config.StyleBackground,
		MinUnitLength:  30,
		Concurrency:    5,
	}
	return NewDispatcher(store, extractor, cfg, logging.Discard()), store
}

const samplePage = "<p>The quick brown fox jumps over the lazy dog.</p>"

func TestHandleAnalyzeContent(t *testing.T) {
	extractor := &staticExtractor{keypoints: []string{"quick brown fox"}}
	d, _ := testDispatcher(t, extractor)

	resp := d.Handle(context.Background(), Request{
		Action: "analyzeContent",
		URL:    "https://example.com/article",
		HTML:   samplePage,
	}).(AnalyzeResponse)

	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Message)
	}
	if !strings.Contains(resp.HTML, "data-keylight") {
		t.Error("response HTML should carry highlight wrappers")
	}
}

func TestHandleClearHighlights(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})

	highlighted := `<p>Text with a <mark data-keylight="1" style="background-color: #ADD8E6;">wrapped phrase</mark> inside.</p>`
	resp := d.Handle(context.Background(), Request{
		Action: "clearHighlights",
		URL:    "https://example.com/article",
		HTML:   highlighted,
	}).(AnalyzeResponse)

	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Message)
	}
	if strings.Contains(resp.HTML, "data-keylight") {
		t.Error("wrappers should be gone after clearing")
	}
	if !strings.Contains(resp.HTML, "wrapped phrase") {
		t.Error("wrapped text must survive clearing")
	}
}

func TestHandleAutoHighlightRoundTrip(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})
	ctx := context.Background()
	enabled := true

	set := d.Handle(ctx, Request{
		Action:  "setDomainAutoHighlight",
		Origin:  "https://example.com",
		Enabled: &enabled,
	}).(StatusResponse)
	if !set.Success {
		t.Fatalf("set failed: %q", set.Message)
	}

	status := d.Handle(ctx, Request{
		Action: "getDomainAutoHighlightStatus",
		Origin: "https://example.com",
	}).(AutoStatusResponse)
	if !status.Enabled {
		t.Error("expected auto-highlight to be enabled")
	}

	disabled := false
	d.Handle(ctx, Request{Action: "setDomainAutoHighlight", Origin: "https://example.com", Enabled: &disabled})
	status = d.Handle(ctx, Request{Action: "getDomainAutoHighlightStatus", Origin: "https://example.com"}).(AutoStatusResponse)
	if status.Enabled {
		t.Error("expected auto-highlight to be disabled")
	}
}

func TestHandleSetAutoHighlightMissingFlag(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})
	resp := d.Handle(context.Background(), Request{
		Action: "setDomainAutoHighlight",
		Origin: "https://example.com",
	}).(StatusResponse)
	if resp.Success {
		t.Error("expected failure without an enabled flag")
	}
}

func TestHandlePageLoadedAppliesForOptedInOrigin(t *testing.T) {
	extractor := &staticExtractor{keypoints: []string{"quick brown fox"}}
	d, store := testDispatcher(t, extractor)
	ctx := context.Background()

	if err := store.SetAutoHighlight(ctx, "https://example.com", true); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	resp := d.Handle(ctx, Request{
		Action: "pageLoaded",
		URL:    "https://example.com/never-visited",
		HTML:   samplePage,
	}).(PageLoadedResponse)

	if !resp.Applied {
		t.Fatalf("expected auto-apply, got %+v", resp)
	}
	if resp.Reason != "auto-highlight enabled for origin" {
		t.Errorf("unexpected reason: %q", resp.Reason)
	}
	if extractor.calls == 0 {
		t.Error("analysis should have run")
	}
}

func TestHandlePageLoadedIgnoresUnknownPage(t *testing.T) {
	extractor := &staticExtractor{keypoints: []string{"quick brown fox"}}
	d, _ := testDispatcher(t, extractor)

	resp := d.Handle(context.Background(), Request{
		Action: "pageLoaded",
		URL:    "https://example.com/unknown",
		HTML:   samplePage,
	}).(PageLoadedResponse)

	if resp.Applied {
		t.Error("expected no auto-apply without marker or opt-in")
	}
	if extractor.calls != 0 {
		t.Error("analysis must not run when policy says no")
	}
}

func TestHandleCleanupCache(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})
	resp := d.Handle(context.Background(), Request{Action: "cleanupCache"}).(StatusResponse)
	if !resp.Success {
		t.Errorf("expected sweep to succeed: %q", resp.Message)
	}
}

func TestHandleClearDomainCache(t *testing.T) {
	d, store := testDispatcher(t, &staticExtractor{})
	ctx := context.Background()

	if err := store.Put(ctx, "https://example.com", "hash", []string{"kp"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	resp := d.Handle(ctx, Request{Action: "clearDomainCache", Origin: "https://example.com"}).(StatusResponse)
	if !resp.Success {
		t.Fatalf("clear failed: %q", resp.Message)
	}
	if _, ok, _ := store.Get(ctx, "https://example.com", "hash"); ok {
		t.Error("cache entry should be gone")
	}
}

func TestHandleUnknownAction(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})
	resp := d.Handle(context.Background(), Request{Action: "teleport"}).(StatusResponse)
	if resp.Success {
		t.Error("expected failure for unknown action")
	}
}

func TestServeAnswersUntilEOF(t *testing.T) {
	d, _ := testDispatcher(t, &staticExtractor{})

	var in bytes.Buffer
	if err := WriteMessage(&in, Request{Action: "cleanupCache"}); err != nil {
		t.Fatalf("frame write failed: %v", err)
	}
	if err := WriteMessage(&in, Request{Action: "nonsense"}); err != nil {
		t.Fatalf("frame write failed: %v", err)
	}

	var out bytes.Buffer
	if err := d.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	first, err := ReadMessage(&out)
	if err != nil {
		t.Fatalf("missing first response: %v", err)
	}
	var status StatusResponse
	if err := json.Unmarshal(first, &status); err != nil {
		t.Fatalf("bad first response: %v", err)
	}
	if !status.Success {
		t.Errorf("cleanupCache should succeed: %+v", status)
	}

	second, err := ReadMessage(&out)
	if err != nil {
		t.Fatalf("missing second response: %v", err)
	}
	if err := json.Unmarshal(second, &status); err != nil {
		t.Fatalf("bad second response: %v", err)
	}
	if status.Success {
		t.Error("unknown action should report failure")
	}
}
