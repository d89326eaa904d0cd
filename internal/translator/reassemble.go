package translator

import (
	"strings"

	"doc-translator/internal/logger"
)

// FillScaffold maps the LLM's translated text back onto the document
// scaffold and returns the final translated document.
//
// Header reconciliation is deliberately lossy: the LLM may merge, split, or
// drop a heading, so a header-count mismatch only costs anchors (cosmetic)
// and is reconciled by truncating or padding the anchor list. Section-count
// reconciliation pads with empty sections or truncates; if counts still
// disagree after that, reassembly aborts rather than emit a malformed
// document.
func FillScaffold(content, toTranslate, translated string) (string, error) {
	scaffold, err := BuildScaffold(content, toTranslate)
	if err != nil {
		return "", err
	}

	anchors := ExtractAnchors(SplitSections(toTranslate))
	translatedSections := SplitSections(translated)

	if len(translatedSections) != len(anchors) {
		logger.Warn("header count mismatch, reconciling anchors",
			logger.Int("original", len(anchors)),
			logger.Int("translated", len(translatedSections)))
		if len(translatedSections) < len(anchors) {
			anchors = anchors[:len(translatedSections)]
		} else {
			for len(anchors) < len(translatedSections) {
				anchors = append(anchors, "")
			}
		}
	}

	// Attach the source-language anchor to each translated header, unless the
	// header-looking line sits inside a code fence, where it is literal text.
	for i := range translatedSections {
		if anchors[i] == "" {
			continue
		}
		pos := strings.Index(translated, strings.TrimSpace(translatedSections[i].Title))
		if pos != -1 && !insideCodeFence(translated, pos) {
			translatedSections[i].Title += " " + anchors[i]
		}
	}

	// Text before the first header (or the whole document when it has no
	// headers) is not covered by sections and must be carried over as is.
	prefix := translated
	if loc := headerRe.FindStringIndex(translated); loc != nil {
		prefix = translated[:loc[0]]
	}
	reconstructed := prefix + Join(translatedSections)

	parts := strings.Split(reconstructed, "\n\n")
	expected := scaffold.PlaceholderCount()
	if len(parts) < expected {
		logger.Warn("translated text has fewer sections than scaffold, padding",
			logger.Int("expected", expected), logger.Int("got", len(parts)))
		for len(parts) < expected {
			parts = append(parts, "")
		}
	} else if len(parts) > expected {
		logger.Warn("translated text has more sections than scaffold, truncating",
			logger.Int("expected", expected), logger.Int("got", len(parts)))
		parts = parts[:expected]
	}

	return scaffold.Fill(parts)
}
