package translator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"doc-translator/internal/types"
)

// placeholderPrefix is the substitution token stem embedded in the scaffold.
const placeholderPrefix = "$hf_i18n_placeholder"

var placeholderRe = regexp.MustCompile(`\$hf_i18n_placeholder(\d+)`)

// Scaffold is a document template in which every translatable section has
// been replaced by an indexed placeholder token. Filling the placeholders
// with any sections of matching count reconstructs a structurally valid
// document; the parts outside the placeholders (license header, code fences,
// tables) are untouched scaffold text.
type Scaffold struct {
	template string
	sections []string
}

// BuildScaffold splits toTranslate on blank-line boundaries into ordered
// sections and replaces the first occurrence of each section in content with
// its placeholder. Replacement is first-occurrence-only so a repeated short
// section cannot consume scaffold text that belongs to a later section.
//
// A section that cannot be located verbatim in the document means the
// scaffold would silently lose content, so that is a hard error.
func BuildScaffold(content, toTranslate string) (*Scaffold, error) {
	sections := strings.Split(toTranslate, "\n\n")
	template := content
	for i, text := range sections {
		if !strings.Contains(template, text) {
			return nil, types.NewAppErrorWithDetails(types.ErrSegmentation,
				"section not found in document",
				fmt.Sprintf("section %d: %.80q", i, text), nil)
		}
		template = strings.Replace(template, text, placeholderPrefix+strconv.Itoa(i), 1)
	}
	return &Scaffold{template: template, sections: sections}, nil
}

// Template returns the scaffold text with embedded placeholders.
func (s *Scaffold) Template() string {
	return s.template
}

// Sections returns the original translatable sections, in order.
func (s *Scaffold) Sections() []string {
	return s.sections
}

// PlaceholderCount returns the number of placeholders in the scaffold.
// It always equals len(Sections()).
func (s *Scaffold) PlaceholderCount() int {
	return strings.Count(s.template, placeholderPrefix)
}

// Fill substitutes translated sections into the scaffold by position.
// The section count must match the placeholder count exactly; a mismatch
// would produce a malformed document and is rejected.
func (s *Scaffold) Fill(translated []string) (string, error) {
	expected := s.PlaceholderCount()
	if len(translated) != expected {
		return "", types.NewAppErrorWithDetails(types.ErrSectionMismatch,
			"section count mismatch",
			fmt.Sprintf("expected: %d, got: %d", expected, len(translated)), nil)
	}

	return placeholderRe.ReplaceAllStringFunc(s.template, func(token string) string {
		idx, err := strconv.Atoi(token[len(placeholderPrefix):])
		if err != nil || idx < 0 || idx >= len(translated) {
			return token
		}
		return translated[idx]
	}), nil
}
