package config

import (
	"sort"
	"strings"

	"doc-translator/internal/types"
)

// ProjectConfig describes one upstream documentation project.
type ProjectConfig struct {
	Name   string
	Owner  string
	Repo   string
	Branch string
	// DocsPath is the repository-relative root of the documentation tree.
	DocsPath string
	// SourceLang is the language the docs are authored in.
	SourceLang string
	// TrackingIssues maps a target language to the community tracking issue number.
	TrackingIssues map[string]string
	// ReferencePRURL points to a merged translation PR used as a style reference.
	ReferencePRURL string
}

// FullName returns "owner/repo".
func (p *ProjectConfig) FullName() string {
	return p.Owner + "/" + p.Repo
}

// SourceDocsPath returns the docs directory of the source language,
// e.g. "docs/source/en".
func (p *ProjectConfig) SourceDocsPath() string {
	return p.DocsPath + "/" + p.SourceLang
}

// TargetDocPath maps a source-language doc path to its translated location,
// e.g. docs/source/en/peft.md -> docs/source/ko/peft.md.
func (p *ProjectConfig) TargetDocPath(filePath, lang string) string {
	return strings.Replace(filePath, "/"+p.SourceLang+"/", "/"+lang+"/", 1)
}

var projects = map[string]*ProjectConfig{
	"transformers": {
		Name:           "Transformers",
		Owner:          "huggingface",
		Repo:           "transformers",
		Branch:         "main",
		DocsPath:       "docs/source",
		SourceLang:     "en",
		TrackingIssues: map[string]string{"ko": "20179"},
		ReferencePRURL: "https://github.com/huggingface/transformers/pull/24968",
	},
	"smolagents": {
		Name:           "SmolAgents",
		Owner:          "huggingface",
		Repo:           "smolagents",
		Branch:         "main",
		DocsPath:       "docs/source",
		SourceLang:     "en",
		TrackingIssues: map[string]string{"ko": "20179"},
		ReferencePRURL: "https://github.com/huggingface/smolagents/pull/1581",
	},
}

// GetProjectConfig returns the configuration for a project key.
func GetProjectConfig(key string) (*ProjectConfig, error) {
	p, ok := projects[key]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"unknown project", "available: "+strings.Join(AvailableProjects(), ", "), nil)
	}
	return p, nil
}

// AvailableProjects returns the known project keys, sorted.
func AvailableProjects() []string {
	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
