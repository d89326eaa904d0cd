// Package results stores translated documents on disk so a rerun can reuse
// a finished translation instead of calling the LLM again.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DocStatus tracks how far a document has moved through the pipeline.
type DocStatus string

const (
	// StatusPending indicates the translation has not started
	StatusPending DocStatus = "pending"
	// StatusTranslating indicates the document is being translated
	StatusTranslating DocStatus = "translating"
	// StatusTranslated indicates the translation is complete and cached
	StatusTranslated DocStatus = "translated"
	// StatusPROpened indicates a pull request has been opened for the document
	StatusPROpened DocStatus = "pr_opened"
	// StatusError indicates an error occurred during translation
	StatusError DocStatus = "error"
)

// DocInfo is the metadata stored next to each cached translation.
type DocInfo struct {
	Project      string    `json:"project"`
	Lang         string    `json:"lang"`
	FilePath     string    `json:"file_path"`
	TranslatedAt time.Time `json:"translated_at"`
	TokensUsed   int       `json:"tokens_used"`
	Status       DocStatus `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	PRURL        string    `json:"pr_url,omitempty"`
}

const (
	infoFileName    = "info.json"
	contentFileName = "translated.md"
)

// Store manages cached translations under a base directory, one directory
// per project/language/document.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir. An empty baseDir defaults to
// doc-translator-results in the user's home directory.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(homeDir, "doc-translator-results")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// DocDir returns the cache directory for one document.
func (s *Store) DocDir(project, lang, filePath string) string {
	return filepath.Join(s.baseDir, project, lang, sanitizePath(filePath))
}

// sanitizePath flattens a repository path into a directory name.
func sanitizePath(filePath string) string {
	name := strings.TrimSuffix(filePath, ".md")
	name = strings.ReplaceAll(name, "/", "_")
	return strings.ReplaceAll(name, "..", "_")
}

// Save writes the translated content and its metadata.
func (s *Store) Save(info *DocInfo, content string) error {
	dir := s.DocDir(info.Project, info.Lang, info.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, contentFileName), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write translated content: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal doc info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, infoFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write doc info: %w", err)
	}
	return nil
}

// Load reads a cached translation. The returned content is empty when only
// metadata exists.
func (s *Store) Load(project, lang, filePath string) (*DocInfo, string, error) {
	dir := s.DocDir(project, lang, filePath)

	data, err := os.ReadFile(filepath.Join(dir, infoFileName))
	if err != nil {
		return nil, "", err
	}
	var info DocInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, "", fmt.Errorf("failed to parse doc info: %w", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, contentFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, "", err
	}
	return &info, string(content), nil
}

// Exists reports whether a finished translation is cached for the document.
func (s *Store) Exists(project, lang, filePath string) bool {
	info, _, err := s.Load(project, lang, filePath)
	if err != nil {
		return false
	}
	return info.Status == StatusTranslated || info.Status == StatusPROpened
}

// UpdateStatus rewrites the metadata with a new status, preserving content.
func (s *Store) UpdateStatus(project, lang, filePath string, status DocStatus, errorMsg string) error {
	info, _, err := s.Load(project, lang, filePath)
	if err != nil {
		return err
	}
	info.Status = status
	info.ErrorMessage = errorMsg

	dir := s.DocDir(project, lang, filePath)
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal doc info: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, infoFileName), data, 0644)
}

// SetPRURL records the pull request opened for a document and flips its
// status to pr_opened.
func (s *Store) SetPRURL(project, lang, filePath, prURL string) error {
	info, _, err := s.Load(project, lang, filePath)
	if err != nil {
		return err
	}
	info.Status = StatusPROpened
	info.PRURL = prURL

	dir := s.DocDir(project, lang, filePath)
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal doc info: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, infoFileName), data, 0644)
}

// Delete removes a cached translation. Used for forced retranslation.
func (s *Store) Delete(project, lang, filePath string) error {
	return os.RemoveAll(s.DocDir(project, lang, filePath))
}

// List returns metadata for every cached document of a project and language,
// newest first.
func (s *Store) List(project, lang string) ([]*DocInfo, error) {
	root := filepath.Join(s.baseDir, project, lang)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var infos []*DocInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name(), infoFileName))
		if err != nil {
			continue
		}
		var info DocInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		infos = append(infos, &info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].TranslatedAt.After(infos[j].TranslatedAt)
	})
	return infos, nil
}
