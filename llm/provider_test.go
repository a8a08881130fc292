package llm

import "testing"

func TestNewKnownProviders(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		p, err := New(name, "test-key", "", "some-model", 500, 0.3)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("expected name %q, got %q", name, p.Name())
		}
		if p.Model() != "some-model" {
			t.Errorf("expected model to be carried through, got %q", p.Model())
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("mystery", "k", "", "m", 100, 0.1); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBaseURLFromEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://api.openai.com/v1/chat/completions", ""},
		{"https://api.openai.com/v1", ""},
		{"", ""},
		{"https://api.deepseek.com/v1/chat/completions", "https://api.deepseek.com/v1"},
		{"http://localhost:8080/v1/chat/completions", "http://localhost:8080/v1"},
		{"http://localhost:8080/v1/", "http://localhost:8080/v1"},
	}
	for _, tt := range tests {
		if got := baseURLFromEndpoint(tt.endpoint); got != tt.want {
			t.Errorf("baseURLFromEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestMessageConstructors(t *testing.T) {
	if m := UserMessage("hi"); m.Role != "user" || m.Content != "hi" {
		t.Errorf("unexpected user message: %+v", m)
	}
	if m := SystemMessage("rules"); m.Role != "system" {
		t.Errorf("unexpected system message: %+v", m)
	}
}
