package translator

import (
	"regexp"
	"strings"
)

var (
	headerRe    = regexp.MustCompile(`(?m)^(#+\s+)(.*)$`)
	nonAnchorRe = regexp.MustCompile(`[^a-z0-9\s]+`)
	spaceRunRe  = regexp.MustCompile(`\s{2,}`)
)

// HeaderSection is one ATX header together with the body that follows it,
// up to the next header. Marker keeps the "#" run and its trailing
// whitespace; Body keeps its leading newline so concatenating
// Marker+Title+Body of all sections reproduces the headed part of the text.
type HeaderSection struct {
	Marker string
	Title  string
	Body   string
}

// SplitSections splits markdown on ATX headers into ordered
// (marker, title, body) triples. Text before the first header is not part of
// any section; callers that rebuild a document carry it separately.
func SplitSections(markdown string) []HeaderSection {
	matches := headerRe.FindAllStringSubmatchIndex(markdown, -1)
	sections := make([]HeaderSection, 0, len(matches))
	for i, m := range matches {
		bodyEnd := len(markdown)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		sections = append(sections, HeaderSection{
			Marker: markdown[m[2]:m[3]],
			Title:  markdown[m[4]:m[5]],
			Body:   markdown[m[1]:bodyEnd],
		})
	}
	return sections
}

// Join reconstructs markdown text from header sections.
func Join(sections []HeaderSection) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.Marker)
		sb.WriteString(s.Title)
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// ExtractAnchors computes the anchor slug for each header title, in order.
// Anchors are always derived from the source-language titles; translated
// headers reuse them positionally so URL fragments stay stable across
// languages.
func ExtractAnchors(sections []HeaderSection) []string {
	anchors := make([]string, 0, len(sections))
	for _, s := range sections {
		anchors = append(anchors, anchorFor(s.Title))
	}
	return anchors
}

// anchorFor slugs a title the same way the docs site does: lowercase, keep
// only [a-z0-9] and spaces, collapse whitespace, hyphenate.
func anchorFor(title string) string {
	slug := nonAnchorRe.ReplaceAllString(strings.ToLower(title), "")
	slug = spaceRunRe.ReplaceAllString(strings.TrimSpace(slug), " ")
	return "[[" + strings.ReplaceAll(slug, " ", "-") + "]]"
}

// insideCodeFence reports whether pos falls inside a fenced code block,
// determined by the parity of triple-backtick fences before it.
func insideCodeFence(text string, pos int) bool {
	if pos > len(text) {
		pos = len(text)
	}
	return strings.Count(text[:pos], "```")%2 == 1
}
