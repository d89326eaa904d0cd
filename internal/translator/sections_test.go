package translator

import (
	"testing"
)

func TestSplitSections(t *testing.T) {
	markdown := "# Title\n\nIntro text.\n\n## Section two\n\nBody two.\n"
	sections := SplitSections(markdown)

	if len(sections) != 2 {
		t.Fatalf("SplitSections() returned %d sections, want 2", len(sections))
	}
	if sections[0].Marker != "# " || sections[0].Title != "Title" {
		t.Errorf("section 0 = {%q, %q}", sections[0].Marker, sections[0].Title)
	}
	if sections[0].Body != "\n\nIntro text.\n\n" {
		t.Errorf("section 0 body = %q", sections[0].Body)
	}
	if sections[1].Marker != "## " || sections[1].Title != "Section two" {
		t.Errorf("section 1 = {%q, %q}", sections[1].Marker, sections[1].Title)
	}
	if sections[1].Body != "\n\nBody two.\n" {
		t.Errorf("section 1 body = %q", sections[1].Body)
	}
}

func TestSplitSections_JoinRoundTrip(t *testing.T) {
	markdown := "# A\n\none\n\n## B\n\ntwo\n\n### C\n\nthree\n"
	if got := Join(SplitSections(markdown)); got != markdown {
		t.Errorf("Join(SplitSections()) = %q, want %q", got, markdown)
	}
}

func TestSplitSections_NoHeaders(t *testing.T) {
	if got := SplitSections("plain text\nwithout headers\n"); len(got) != 0 {
		t.Errorf("SplitSections() = %v, want empty", got)
	}
}

func TestExtractAnchors(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Number of accelerators", "[[number-of-accelerators]]"},
		{"Title", "[[title]]"},
		{"Quick tour!", "[[quick-tour]]"},
		{"Fine-tuning a model", "[[finetuning-a-model]]"},
		{"API   reference", "[[api-reference]]"},
		{"🤗 Transformers", "[[transformers]]"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			sections := []HeaderSection{{Marker: "# ", Title: tt.title}}
			got := ExtractAnchors(sections)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("ExtractAnchors(%q) = %v, want [%s]", tt.title, got, tt.want)
			}
		})
	}
}

func TestInsideCodeFence(t *testing.T) {
	text := "intro\n```py\n# not a header\n```\noutro\n# real header\n"

	inFence := len("intro\n```py\n")
	if !insideCodeFence(text, inFence) {
		t.Errorf("position %d should be inside the fence", inFence)
	}

	afterFence := len(text) - len("# real header\n")
	if insideCodeFence(text, afterFence) {
		t.Errorf("position %d should be outside the fence", afterFence)
	}

	if insideCodeFence(text, 0) {
		t.Error("start of text should be outside any fence")
	}
}
