// Package reviewer runs an LLM review of a translation pull request and
// turns the verdict into a GitHub review.
package reviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"doc-translator/internal/config"
	"doc-translator/internal/github"
	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

// Verdict values the model may return.
const (
	VerdictRequestChanges = "request_changes"
	VerdictComment        = "comment"
	VerdictApprove        = "approve"
)

// Comment is one line-level finding in the translated file.
type Comment struct {
	Line          int    `json:"line"`
	Issue         string `json:"issue"`
	SuggestedEdit string `json:"suggested_edit"`
	Context       string `json:"context"`
}

// Review is the structured outcome of a review pass.
type Review struct {
	Verdict  string    `json:"verdict"`
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

const systemPrompt = "You are an expert translation reviewer ensuring clarity, accuracy, " +
	"and readability of localized documentation."

const promptTemplate = `You are a meticulous bilingual reviewer checking a translation PR.

PR number: %d
PR URL: %s

Review the translated text against the original and focus on:
1. Are there any typos or spelling mistakes?
2. Are any sentences difficult to understand?
3. Is the overall content hard to comprehend?

Always respond with strict JSON using this schema:
{
  "verdict": "request_changes" | "comment" | "approve",
  "summary": "<High-level Markdown summary of the review findings>",
  "comments": [
    {
      "line": <1-based line number in the translated file>,
      "issue": "<Short Markdown description of the problem>",
      "suggested_edit": "<Replacement text for the entire translated line>",
      "context": "<Exact current text of that line for grounding>"
    }
  ]
}

Guidelines:
- Only include comments for issues that warrant direct feedback.
- When a concrete rewrite is possible, populate "suggested_edit" with the full replacement line exactly as it should appear after fixing the issue.
- Keep edits scoped to the referenced line; do not span multiple lines.
- Always copy the current text of that line verbatim into "context".
- Omit the "suggested_edit" field or set it to an empty string if no suggestion is available.
- Use "request_changes" when the identified problems must be fixed before merging.
- Use "approve" only when the translation is correct and clear with no changes needed.
- For optional improvements or general observations, use "comment".
- Use the line numbers from the "TRANSLATED TEXT WITH LINE NUMBERS" section.
- The "PULL REQUEST DIFF" section, when present, shows what the PR actually changes; use it to scope the review to the submitted work.`

// Reviewer drives the chat model for review passes.
type Reviewer struct {
	chatModel model.BaseChatModel
}

// New creates a Reviewer backed by an OpenAI-compatible chat model.
func New(ctx context.Context, settings *config.LLMSettings) (*Reviewer, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:   settings.Model,
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return &Reviewer{chatModel: chatModel}, nil
}

// NewWithModel creates a Reviewer around an existing chat model. Used by
// tests to substitute a fake.
func NewWithModel(chatModel model.BaseChatModel) *Reviewer {
	return &Reviewer{chatModel: chatModel}
}

// Run reviews a translated file against its original and returns the parsed
// verdict. diff is the unified diff of the pull request and may be empty.
func (r *Reviewer) Run(ctx context.Context, original, translated, diff string, prNumber int, prURL string) (*Review, error) {
	userPrompt := BuildUserPrompt(original, translated, diff, prNumber, prURL)

	response, err := r.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrAPICall, "review model call failed", err)
	}

	review := ParseResponse(response.Content)
	AttachLineContext(translated, review.Comments)

	logger.Info("review completed",
		logger.String("verdict", review.Verdict),
		logger.Int("comments", len(review.Comments)))
	return review, nil
}

// BuildUserPrompt assembles the full review prompt: instructions, both
// texts, the PR diff when available, and a line-numbered copy of the
// translation for stable references.
func BuildUserPrompt(original, translated, diff string, prNumber int, prURL string) string {
	prompt := fmt.Sprintf(promptTemplate, prNumber, prURL) +
		"\n\n----- ORIGINAL TEXT -----\n" + original +
		"\n\n----- TRANSLATED TEXT -----\n" + translated
	if diff != "" {
		prompt += "\n\n----- PULL REQUEST DIFF -----\n" + diff
	}
	return prompt + "\n\n----- TRANSLATED TEXT WITH LINE NUMBERS -----\n" + AddLineNumbers(translated)
}

// AddLineNumbers prefixes each line with a zero-padded 1-based number.
func AddLineNumbers(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%04d: %s", i+1, line)
	}
	return strings.Join(numbered, "\n")
}

// ParsePRURL extracts owner, repo, and PR number from a GitHub PR URL.
func ParsePRURL(prURL string) (string, string, int, error) {
	parsed, err := url.Parse(prURL)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR URL: %w", err)
	}
	parts := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 4 || parts[2] != "pull" {
		return "", "", 0, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"not a valid GitHub PR URL", prURL, nil)
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", "", 0, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"PR number not found in URL", prURL, nil)
	}
	return parts[0], parts[1], number, nil
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseResponse parses the model output into a Review. Malformed output
// degrades to a plain comment carrying the raw text, never an error: a
// review pass should not fail because the model rambled.
func ParseResponse(raw string) *Review {
	var parsed *Review
	for _, candidate := range jsonCandidates(raw) {
		var r Review
		if err := json.Unmarshal([]byte(candidate), &r); err == nil {
			parsed = &r
			break
		}
	}
	if parsed == nil {
		return &Review{Verdict: VerdictComment, Summary: strings.TrimSpace(raw)}
	}

	parsed.Verdict = strings.ToLower(strings.TrimSpace(parsed.Verdict))
	switch parsed.Verdict {
	case VerdictRequestChanges, VerdictComment, VerdictApprove:
	default:
		parsed.Verdict = VerdictComment
	}

	parsed.Summary = strings.TrimSpace(parsed.Summary)
	if parsed.Summary == "" {
		parsed.Summary = strings.TrimSpace(raw)
	}

	valid := parsed.Comments[:0]
	for _, c := range parsed.Comments {
		c.Issue = strings.TrimSpace(c.Issue)
		c.SuggestedEdit = strings.TrimRight(c.SuggestedEdit, "\r\n")
		c.Context = strings.TrimRight(c.Context, "\n")
		if c.Line <= 0 || c.Issue == "" {
			continue
		}
		valid = append(valid, c)
	}
	parsed.Comments = valid
	return parsed
}

// jsonCandidates yields possible JSON payloads: fenced blocks first, then
// the whole trimmed response.
func jsonCandidates(raw string) []string {
	var candidates []string
	for _, m := range fencedJSONRe.FindAllStringSubmatch(raw, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			candidates = append(candidates, s)
		}
	}
	if s := strings.TrimSpace(raw); s != "" {
		candidates = append(candidates, s)
	}
	return candidates
}

// AttachLineContext fills each comment's Context from the translated text
// when the model left it empty.
func AttachLineContext(translated string, comments []Comment) {
	if len(comments) == 0 {
		return
	}
	lines := strings.Split(translated, "\n")
	for i := range comments {
		idx := comments[i].Line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		if comments[i].Context == "" {
			comments[i].Context = strings.TrimRight(lines[idx], "\n")
		}
	}
}

// EventFromVerdict maps a verdict to a GitHub review event.
func EventFromVerdict(verdict string) string {
	switch verdict {
	case VerdictRequestChanges:
		return "REQUEST_CHANGES"
	case VerdictApprove:
		return "APPROVE"
	default:
		return "COMMENT"
	}
}

// BuildReviewComments renders line findings as GitHub review comments with
// suggestion blocks where a concrete rewrite exists.
func BuildReviewComments(translatedPath string, comments []Comment) []github.ReviewComment {
	var result []github.ReviewComment
	for _, c := range comments {
		parts := []string{c.Issue}
		if c.Context != "" {
			parts = append(parts, "> _Current text_: "+c.Context)
		}
		if c.SuggestedEdit != "" {
			parts = append(parts, "```suggestion\n"+c.SuggestedEdit+"\n```")
		}
		result = append(result, github.ReviewComment{
			Path: translatedPath,
			Line: c.Line,
			Body: strings.TrimSpace(strings.Join(parts, "\n\n")),
		})
	}
	return result
}

// SummaryForBody normalizes the model summary for use as the review body.
// Some models echo the full JSON object; unwrap its summary field.
func SummaryForBody(summary string) string {
	s := strings.TrimSpace(summary)
	if s == "" {
		return "LLM translation review"
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var obj struct {
			Summary string `json:"summary"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err == nil && strings.TrimSpace(obj.Summary) != "" {
			return strings.TrimSpace(obj.Summary)
		}
	}
	return s
}
