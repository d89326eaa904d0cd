// Package translator implements the markdown-structure-preserving translation
// pipeline: a source document is split into a non-translatable scaffold and an
// ordered list of prose sections, only the prose goes to the LLM, and the
// LLM's output is mapped back onto the scaffold to produce the final document.
package translator

import (
	"regexp"
	"strings"

	"doc-translator/internal/logger"
)

var blankRunRe = regexp.MustCompile(`\n\n+`)

// Preprocess extracts the translatable portion of a document. Everything
// before the first markdown header marker is discarded (the corpus convention
// puts the license comment before the first heading), and runs of blank lines
// are collapsed to a single blank line.
//
// A document without any "#" is kept whole; that case is almost certainly a
// file this pipeline was not meant for, so it is logged.
func Preprocess(content string) string {
	idx := strings.Index(content, "#")
	if idx < 0 {
		logger.Warn("document has no markdown header, translating entire content",
			logger.Int("length", len(content)))
		idx = 0
	}
	toTranslate := content[idx:]
	return blankRunRe.ReplaceAllString(toTranslate, "\n\n")
}
