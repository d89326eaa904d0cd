// Package toctree reads, patches, and writes _toctree.yml navigation files
// so a translated document shows up in the target language's table of
// contents at the same position it holds in the source tree.
package toctree

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"doc-translator/internal/logger"
)

// Node is one entry of a _toctree.yml tree. Leaf entries carry a local path;
// section entries carry nested sections.
type Node struct {
	Title      string  `yaml:"title,omitempty"`
	Local      string  `yaml:"local,omitempty"`
	IsExpanded bool    `yaml:"isExpanded,omitempty"`
	Sections   []*Node `yaml:"sections,omitempty"`
}

// Parse decodes a _toctree.yml document.
func Parse(data []byte) ([]*Node, error) {
	var tree []*Node
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse toctree: %w", err)
	}
	return tree, nil
}

// Serialize encodes the tree back to YAML, keeping entry order.
func Serialize(tree []*Node) ([]byte, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize toctree: %w", err)
	}
	return data, nil
}

// FindTitleForLocal returns the title of the entry with the given local
// path, searching depth first. Empty string when absent.
func FindTitleForLocal(tree []*Node, local string) string {
	for _, node := range tree {
		if node.Local == local {
			return node.Title
		}
		if title := FindTitleForLocal(node.Sections, local); title != "" {
			return title
		}
	}
	return ""
}

// ExtractTitleMappings walks source and target trees in parallel and maps
// source titles to target titles wherever both entries share a local path.
// The trees are position correlated, so only aligned indices are compared.
func ExtractTitleMappings(source, target []*Node) map[string]string {
	mappings := make(map[string]string)
	extractMappings(source, target, mappings)
	return mappings
}

func extractMappings(source, target []*Node, mappings map[string]string) {
	for i, src := range source {
		if i >= len(target) {
			return
		}
		dst := target[i]
		if src.Local != "" && src.Local == dst.Local && src.Title != "" && dst.Title != "" {
			mappings[src.Title] = dst.Title
		}
		extractMappings(src.Sections, dst.Sections, mappings)
	}
}

// TitleTranslator turns a source-language section title into the target
// language. Implementations typically call the LLM.
type TitleTranslator func(title string) (string, error)

var titleCaser = cases.Title(language.English)

// MergeEntry inserts an entry for targetLocal into the target-language tree,
// mirroring the position the entry holds in the source tree. The translated
// title comes from existing cross-tree mappings when available, otherwise
// from the translator. The input tree is modified in place and returned.
func MergeEntry(sourceTree, targetTree []*Node, targetLocal string, translate TitleTranslator) ([]*Node, error) {
	sourceTitle := FindTitleForLocal(sourceTree, targetLocal)
	if sourceTitle == "" {
		// Not in the source tree either: derive a readable title from the
		// filename, e.g. "perf_infer_gpu_one" -> "Perf Infer Gpu One".
		sourceTitle = titleCaser.String(strings.ReplaceAll(path.Base(targetLocal), "_", " "))
	}

	title, err := resolveTitle(sourceTree, targetTree, sourceTitle, translate)
	if err != nil {
		return nil, err
	}
	entry := &Node{Title: title, Local: targetLocal}

	if mergeIntoSection(sourceTree, &targetTree, targetLocal, entry, translate) {
		return targetTree, nil
	}

	// No source section contains the target: append at root level.
	logger.Warn("toctree entry appended at root level", logger.String("local", targetLocal))
	return append(targetTree, entry), nil
}

// resolveTitle prefers a title already used by the target tree for the same
// document, then falls back to translating.
func resolveTitle(sourceTree, targetTree []*Node, sourceTitle string, translate TitleTranslator) (string, error) {
	if mapped, ok := ExtractTitleMappings(sourceTree, targetTree)[sourceTitle]; ok {
		return mapped, nil
	}
	translated, err := translate(sourceTitle)
	if err != nil {
		return "", fmt.Errorf("failed to translate title %q: %w", sourceTitle, err)
	}
	return strings.TrimSpace(translated), nil
}

// mergeIntoSection finds the source top-level section containing targetLocal
// and inserts the entry into the matching target section at the index the
// entry holds in the source section.
func mergeIntoSection(sourceTree []*Node, targetTree *[]*Node, targetLocal string, entry *Node, translate TitleTranslator) bool {
	for _, srcSection := range sourceTree {
		if !containsLocal(srcSection, targetLocal) {
			continue
		}

		dstSection := matchSection(*targetTree, srcSection.Title, translate)
		if dstSection == nil {
			// Section absent from the target tree: create it with only the
			// new entry, so later translations fill in its siblings.
			title, err := translate(srcSection.Title)
			if err != nil || strings.TrimSpace(title) == "" {
				title = srcSection.Title
			}
			*targetTree = append(*targetTree, &Node{
				Title:      strings.TrimSpace(title),
				IsExpanded: srcSection.IsExpanded,
				Sections:   []*Node{entry},
			})
			return true
		}

		// An entry for the document may already exist, e.g. a placeholder
		// added while translation was in progress. Replace it in place.
		if j := localIndex(dstSection.Sections, targetLocal); j >= 0 {
			dstSection.Sections[j] = entry
			return true
		}

		index := localIndex(srcSection.Sections, targetLocal)
		if index < 0 {
			return false
		}
		if index > len(dstSection.Sections) {
			index = len(dstSection.Sections)
		}
		dstSection.Sections = append(dstSection.Sections[:index],
			append([]*Node{entry}, dstSection.Sections[index:]...)...)
		return true
	}
	return false
}

// containsLocal reports whether the section's subtree holds the local path.
func containsLocal(section *Node, local string) bool {
	for _, sub := range section.Sections {
		if sub.Local == local || containsLocal(sub, local) {
			return true
		}
	}
	return false
}

// matchSection finds the target-tree section whose title equals the source
// title, either verbatim or after translation.
func matchSection(targetTree []*Node, sourceTitle string, translate TitleTranslator) *Node {
	for _, node := range targetTree {
		if node.Title == sourceTitle {
			return node
		}
	}
	translated, err := translate(sourceTitle)
	if err != nil {
		return nil
	}
	translated = strings.TrimSpace(translated)
	for _, node := range targetTree {
		if node.Title == translated {
			return node
		}
	}
	return nil
}

// localIndex returns the position of the local path among the section's
// direct children, or -1.
func localIndex(sections []*Node, local string) int {
	for i, node := range sections {
		if node.Local == local {
			return i
		}
	}
	return -1
}
