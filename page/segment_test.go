package page

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src, url string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src), url)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestTextUnitsCollectsParagraphs(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<p>This paragraph is comfortably longer than thirty characters.</p>
		<h2>A heading that is also long enough to analyze here.</h2>
	</body></html>`, "https://example.com/a")

	units := doc.TextUnits(30)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Text != "This paragraph is comfortably longer than thirty characters." {
		t.Errorf("unexpected unit text: %q", units[0].Text)
	}
}

func TestTextUnitsSkipsShortContent(t *testing.T) {
	// Exactly 29 characters: below the threshold.
	short := strings.Repeat("x", 29)
	long := strings.Repeat("y", 30)
	doc := mustParse(t, "<p>"+short+"</p><p>"+long+"</p>", "https://example.com")

	units := doc.TextUnits(30)
	if len(units) != 1 {
		t.Fatalf("expected only the 30-char unit, got %d units", len(units))
	}
	if units[0].Text != long {
		t.Errorf("wrong unit survived: %q", units[0].Text)
	}
}

func TestTextUnitsNoNestedDuplicates(t *testing.T) {
	doc := mustParse(t, `<blockquote>
		<p>This nested paragraph would double-count if the walk descended into candidates.</p>
	</blockquote>`, "https://example.com")

	units := doc.TextUnits(30)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit for nested candidates, got %d", len(units))
	}
	if units[0].Node.Data != "blockquote" {
		t.Errorf("expected the outer blockquote to be the unit, got %q", units[0].Node.Data)
	}
}

func TestTextUnitsIgnoresScriptAndStyle(t *testing.T) {
	doc := mustParse(t, `<body>
		<script>var x = "this string inside a script tag is long enough";</script>
		<style>.c { color: red; /* also long enough to pass the filter */ }</style>
	</body>`, "https://example.com")

	if units := doc.TextUnits(30); len(units) != 0 {
		t.Errorf("expected no units from script/style, got %d", len(units))
	}
}

func TestTextUnitsCollapsesWhitespace(t *testing.T) {
	doc := mustParse(t, "<p>Multiple   spaces\n\tand newlines collapse into single spaces.</p>", "https://example.com")

	units := doc.TextUnits(30)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	want := "Multiple spaces and newlines collapse into single spaces."
	if units[0].Text != want {
		t.Errorf("got %q, want %q", units[0].Text, want)
	}
}

func TestTextUnitsCountsRunesNotBytes(t *testing.T) {
	// 29 multi-byte runes: below a threshold of 30 even though the byte
	// count is much larger.
	doc := mustParse(t, "<p>"+strings.Repeat("語", 29)+"</p>", "https://example.com")
	if units := doc.TextUnits(30); len(units) != 0 {
		t.Errorf("expected rune-based length check, got %d units", len(units))
	}
}

func TestTextUnitTextIncludesExistingWrappers(t *testing.T) {
	// A highlighted unit must hash identically to its plain form.
	plain := mustParse(t, "<p>The quick brown fox jumps over the lazy dog.</p>", "https://example.com")
	marked := mustParse(t, `<p>The quick <mark data-keylight="1">brown fox</mark> jumps over the lazy dog.</p>`, "https://example.com")

	pu := plain.TextUnits(30)
	mu := marked.TextUnits(30)
	if len(pu) != 1 || len(mu) != 1 {
		t.Fatalf("expected 1 unit each, got %d and %d", len(pu), len(mu))
	}
	if pu[0].Text != mu[0].Text {
		t.Errorf("wrapper changed unit text: %q vs %q", pu[0].Text, mu[0].Text)
	}
}
