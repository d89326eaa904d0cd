package translator

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Transformers", "ko", "# Title\n\nSome text.\n", "")

	if !strings.Contains(prompt, "mean in Korean?") {
		t.Errorf("prompt should name the target language, got: %s", prompt)
	}
	if !strings.Contains(prompt, "Transformers (a machine learning library)") {
		t.Errorf("prompt should name the project, got: %s", prompt)
	}
	if !strings.Contains(prompt, "```md\n# Title\n\nSome text.\n```") {
		t.Errorf("prompt should embed the document in a md fence, got: %s", prompt)
	}
	if !strings.Contains(prompt, "토크나이저") {
		t.Errorf("Korean glossary missing from prompt")
	}
	if strings.Contains(prompt, "Additional instructions") {
		t.Errorf("no additional-instruction block expected when empty")
	}
}

func TestBuildPrompt_AdditionalInstruction(t *testing.T) {
	prompt := BuildPrompt("Transformers", "ko", "# T\n", "  keep code comments in English  ")
	if !strings.Contains(prompt, "🗒️ Additional instructions: keep code comments in English") {
		t.Errorf("additional instruction not appended trimmed, got: %s", prompt)
	}
}

func TestBuildPrompt_NoGlossaryLanguage(t *testing.T) {
	prompt := BuildPrompt("Transformers", "de", "# T\n", "")
	if !strings.Contains(prompt, "mean in German?") {
		t.Errorf("prompt should resolve de to German, got: %s", prompt)
	}
	if strings.Contains(prompt, "glossary") {
		t.Errorf("no glossary block expected for de, got: %s", prompt)
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "fenced output",
			input: "```md\n# 제목\n\n본문.\n```",
			want:  "# 제목\n\n본문.",
		},
		{
			name:  "unfenced output unchanged",
			input: "# 제목\n\n본문.\n",
			want:  "# 제목\n\n본문.\n",
		},
		{
			name:  "fence with surrounding whitespace",
			input: "\n```md\n# 제목\n```\n",
			want:  "# 제목",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.input); got != tt.want {
				t.Errorf("StripFence() = %q, want %q", got, tt.want)
			}
		})
	}
}
