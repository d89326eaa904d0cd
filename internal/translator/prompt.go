package translator

import (
	"fmt"
	"strings"

	"doc-translator/internal/types"
)

// BuildPrompt assembles the full translation prompt: task instruction, the
// text to translate inside a ```md fence, the glossary block for the target
// language, and any caller-supplied instruction.
func BuildPrompt(projectName, langCode, toTranslate, additionalInstruction string) string {
	language := types.LanguageDisplayName(langCode)

	base := fmt.Sprintf(
		"What do these sentences about %s (a machine learning library) mean in %s? "+
			"Please do not translate the word after a 🤗 emoji as it is a product name. "+
			"Output the complete markdown file, with prose translated and all other content intact. "+
			"No explanations or extras, only the translated markdown. "+
			"Also translate all comments within code blocks as well.",
		projectName, language)

	base += "\n\n```md"

	full := strings.Join([]string{base, strings.TrimSpace(toTranslate), "```", glossaryBlock(langCode)}, "\n")

	if instruction := strings.TrimSpace(additionalInstruction); instruction != "" {
		full += "\n\n🗒️ Additional instructions: " + instruction
	}
	return full
}

// StripFence removes a wrapping ```md fence from LLM output. Models often
// echo the fence from the prompt around the translated document.
func StripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```md\n") && strings.HasSuffix(trimmed, "```") {
		return strings.TrimSpace(trimmed[len("```md") : len(trimmed)-len("```")])
	}
	return s
}

// glossaries holds per-language terminology the translation must keep
// consistent. Only languages with an established community glossary have
// entries; other languages get no glossary block.
var glossaries = map[string][]string{
	"ko": {
		"checkpoint: 체크포인트",
		"chunk: 청크",
		"dataset: 데이터세트",
		"directory: 디렉터리",
		"entry: 항목",
		"epoch: 에폭",
		"fine-tuning: 미세 조정",
		"inference: 추론",
		"pipeline: 파이프라인",
		"pretrained model: 사전학습된 모델",
		"tokenizer: 토크나이저",
		"workflow: 워크플로우",
	},
}

// glossaryBlock renders the glossary instruction for a target language,
// or an empty string when no glossary is registered.
func glossaryBlock(langCode string) string {
	terms, ok := glossaries[langCode]
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Use the following glossary so terminology stays consistent with existing translations. ")
	sb.WriteString("Do not transliterate a term differently from the glossary:\n")
	for _, t := range terms {
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}
