// Package retriever computes translation coverage for a documentation tree
// and picks the next files to translate.
package retriever

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"doc-translator/internal/config"
	"doc-translator/internal/github"
	"doc-translator/internal/logger"
)

// TranslationDoc pairs a source document with its expected translation path.
type TranslationDoc struct {
	OriginalFile      string
	TranslationFile   string
	TranslationLang   string
	TranslationExists bool
}

// Summary aggregates coverage over every analyzed document.
type Summary struct {
	Lang         string
	Analyzed     int
	Translated   int
	MissingCount int
	Files        []TranslationDoc
}

// AppendFile records one document in the summary.
func (s *Summary) AppendFile(doc TranslationDoc) {
	s.Files = append(s.Files, doc)
	s.Analyzed++
	if doc.TranslationExists {
		s.Translated++
	} else {
		s.MissingCount++
	}
}

// PercentageMissing returns the share of documents without a translation.
func (s *Summary) PercentageMissing() float64 {
	if s.Analyzed == 0 {
		return 0.0
	}
	return 100 * float64(s.MissingCount) / float64(s.Analyzed)
}

// FirstMissing returns up to n untranslated documents in tree order.
func (s *Summary) FirstMissing(n int) []TranslationDoc {
	var missing []TranslationDoc
	for _, doc := range s.Files {
		if !doc.TranslationExists {
			missing = append(missing, doc)
			if len(missing) == n {
				break
			}
		}
	}
	return missing
}

// Summarize builds a coverage summary from the repository file list. Only
// markdown files under the source-language docs directory count; each is
// checked for a sibling under the target-language directory.
func Summarize(files []string, project *config.ProjectConfig, lang string) *Summary {
	fileSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		fileSet[f] = struct{}{}
	}

	sourcePrefix := project.SourceDocsPath() + "/"
	summary := &Summary{Lang: lang}

	for _, file := range files {
		if !strings.HasPrefix(file, sourcePrefix) || !strings.HasSuffix(file, ".md") {
			continue
		}
		relative := strings.TrimPrefix(file, sourcePrefix)
		translated := path.Join(project.DocsPath, lang, relative)
		_, exists := fileSet[translated]

		summary.AppendFile(TranslationDoc{
			OriginalFile:      file,
			TranslationFile:   translated,
			TranslationLang:   lang,
			TranslationExists: exists,
		})
	}
	return summary
}

// Report renders the summary as a markdown table and returns the first topK
// missing document paths.
func Report(summary *Summary, topK int) (string, []string) {
	report := fmt.Sprintf(`
| Item | Count | Percentage |
|------|-------|------------|
| 📂 Documentation files | %d | - |
| 🪹 Missing translations | %d | %.2f%% |
`, summary.Analyzed, summary.MissingCount, summary.PercentageMissing())

	var firstMissing []string
	for _, doc := range summary.FirstMissing(topK) {
		firstMissing = append(firstMissing, doc.OriginalFile)
	}

	logger.Info("coverage report generated",
		logger.String("lang", summary.Lang),
		logger.Int("analyzed", summary.Analyzed),
		logger.Int("missing", summary.MissingCount))
	return report, firstMissing
}

// translatedTitleRe extracts the filename from a translation PR title like
// "🌐 [i18n-KO] Translated `perf_infer_gpu_one.md` to Korean".
var translatedTitleRe = regexp.MustCompile("Translated\\s+(?:`([^`]+)`|(\\S+))\\s+to")

// InProgress lists source file paths that already have an open translation
// pull request, together with the PR URLs. Titles are matched on the
// uppercase language tag, e.g. "[i18n-KO]".
func InProgress(prs []github.PullRequest, files []string, project *config.ProjectConfig, lang string) ([]string, []string) {
	tag := "[i18n-" + strings.ToUpper(lang) + "]"
	sourcePrefix := project.SourceDocsPath() + "/"

	var paths []string
	var urls []string
	for _, pr := range prs {
		if !strings.Contains(pr.Title, tag) {
			continue
		}
		m := translatedTitleRe.FindStringSubmatch(pr.Title)
		if m == nil {
			continue
		}
		filename := m[1]
		if filename == "" {
			filename = m[2]
		}
		if !strings.HasSuffix(filename, ".md") {
			filename += ".md"
		}
		paths = append(paths, resolveSourcePath(filename, files, sourcePrefix))
		urls = append(urls, pr.HTMLURL)
	}
	return paths, urls
}

// resolveSourcePath finds the full repo path whose basename matches the
// filename pulled from a PR title. Titles rarely carry directories, so the
// match is by basename; an unmatched name falls back to the docs root.
func resolveSourcePath(filename string, files []string, sourcePrefix string) string {
	base := strings.TrimSuffix(path.Base(filename), ".md")
	for _, file := range files {
		if strings.HasPrefix(file, sourcePrefix) && strings.HasSuffix(file, ".md") {
			if strings.TrimSuffix(path.Base(file), ".md") == base {
				return file
			}
		}
	}
	return sourcePrefix + filename
}
