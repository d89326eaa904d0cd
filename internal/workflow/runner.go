// Package workflow wires the translation pipeline together: coverage
// reports, document translation, pull-request creation, toctree updates,
// and LLM reviews.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"doc-translator/internal/config"
	"doc-translator/internal/github"
	"doc-translator/internal/logger"
	"doc-translator/internal/results"
	"doc-translator/internal/retriever"
	"doc-translator/internal/reviewer"
	"doc-translator/internal/toctree"
	"doc-translator/internal/translator"
	"doc-translator/internal/types"
)

// RepoHost is the slice of the GitHub client the workflow needs.
type RepoHost interface {
	ValidateToken(ctx context.Context) error
	ListTree(ctx context.Context, owner, repo, branch string) ([]string, error)
	ListOpenPullRequests(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
	GetBranchSHA(ctx context.Context, owner, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, owner, repo, branch, sha string) error
	PutFile(ctx context.Context, owner, repo, branch, path, commitMsg string, content []byte) error
	OpenPullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*github.PullRequest, error)
	PostReview(ctx context.Context, owner, repo string, number int, event, body string, comments []github.ReviewComment) error
	PullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	RawContent(ctx context.Context, owner, repo, branch, path string) (string, error)
}

// Translator produces a completion for a prompt and reports tokens used.
type Translator interface {
	Translate(ctx context.Context, prompt string) (string, int, error)
}

// ReviewModel runs an LLM review of a translated document.
type ReviewModel interface {
	Run(ctx context.Context, original, translated, diff string, prNumber int, prURL string) (*reviewer.Review, error)
}

// Runner executes the pipeline for one project.
type Runner struct {
	host       RepoHost
	translator Translator
	store      *results.Store
	cfg        *config.Config
	project    *config.ProjectConfig
}

// NewRunner assembles a Runner.
func NewRunner(host RepoHost, t Translator, store *results.Store, cfg *config.Config, project *config.ProjectConfig) *Runner {
	return &Runner{host: host, translator: t, store: store, cfg: cfg, project: project}
}

// Report builds the coverage report for a target language and returns it
// with the first topK untranslated file paths.
func (r *Runner) Report(ctx context.Context, lang string, topK int) (string, []string, error) {
	files, err := r.host.ListTree(ctx, r.project.Owner, r.project.Repo, r.project.Branch)
	if err != nil {
		return "", nil, err
	}
	summary := retriever.Summarize(files, r.project, lang)
	report, firstMissing := retriever.Report(summary, topK)
	return report, firstMissing, nil
}

// InProgress lists source files that already have an open translation PR.
func (r *Runner) InProgress(ctx context.Context, lang string) ([]string, []string, error) {
	files, err := r.host.ListTree(ctx, r.project.Owner, r.project.Repo, r.project.Branch)
	if err != nil {
		return nil, nil, err
	}
	prs, err := r.host.ListOpenPullRequests(ctx, r.project.Owner, r.project.Repo)
	if err != nil {
		return nil, nil, err
	}
	paths, urls := retriever.InProgress(prs, files, r.project, lang)
	return paths, urls, nil
}

// TranslateDocument translates one source file. A cached translation is
// reused unless force is set.
func (r *Runner) TranslateDocument(ctx context.Context, lang, filePath, instruction string, force bool) (*types.TranslationResult, error) {
	if !types.IsSupportedLanguage(lang) {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "unsupported target language", lang, nil)
	}

	if force {
		if err := r.store.Delete(r.project.Name, lang, filePath); err != nil {
			logger.Warn("failed to drop cached translation", logger.Err(err))
		}
	} else if r.store.Exists(r.project.Name, lang, filePath) {
		info, content, err := r.store.Load(r.project.Name, lang, filePath)
		if err == nil {
			logger.Info("reusing cached translation", logger.String("file", filePath))
			return &types.TranslationResult{
				FilePath:          filePath,
				Language:          lang,
				TranslatedContent: content,
				TokensUsed:        info.TokensUsed,
			}, nil
		}
		logger.Warn("cached translation unreadable, retranslating", logger.Err(err))
	}

	content, err := r.host.RawContent(ctx, r.project.Owner, r.project.Repo, r.project.Branch, filePath)
	if err != nil {
		return nil, err
	}

	toTranslate := translator.Preprocess(content)
	prompt := translator.BuildPrompt(r.project.Name, lang, toTranslate, instruction)

	logger.Info("translating document",
		logger.String("file", filePath), logger.String("lang", lang))
	raw, tokens, err := r.translator.Translate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	translated, err := translator.FillScaffold(content, toTranslate, translator.StripFence(raw))
	if err != nil {
		return nil, err
	}

	info := &results.DocInfo{
		Project:      r.project.Name,
		Lang:         lang,
		FilePath:     filePath,
		TranslatedAt: time.Now(),
		TokensUsed:   tokens,
		Status:       results.StatusTranslated,
	}
	if err := r.store.Save(info, translated); err != nil {
		logger.Warn("failed to cache translation", logger.Err(err))
	}

	return &types.TranslationResult{
		FilePath:          filePath,
		Language:          lang,
		OriginalContent:   content,
		TranslatedContent: translated,
		TokensUsed:        tokens,
	}, nil
}

// BranchName derives the working branch for a file, e.g.
// "ko-perf-infer-gpu-one.md" for docs/source/en/perf_infer_gpu_one.md.
func BranchName(lang, filePath string) string {
	return lang + "-" + strings.ReplaceAll(path.Base(filePath), "_", "-")
}

// CommitMessage derives the commit message for a translated file.
func CommitMessage(lang, filePath string) string {
	return fmt.Sprintf("docs: %s: %s", lang, path.Base(filePath))
}

// CreatePR pushes a cached translation to the fork and opens a draft pull
// request against the upstream repository. Failures after the file commit
// yield a partial_success result so the pushed work is not lost.
func (r *Runner) CreatePR(ctx context.Context, lang, filePath string) (*types.PRResult, error) {
	_, translated, err := r.store.Load(r.project.Name, lang, filePath)
	if err != nil || translated == "" {
		return nil, types.NewAppErrorWithDetails(types.ErrFileNotFound,
			"no cached translation, run translate first", filePath, err)
	}

	branch := BranchName(lang, filePath)
	result := &types.PRResult{Branch: branch, FilePath: filePath}

	// Fail before any push when the token cannot authenticate.
	if err := r.host.ValidateToken(ctx); err != nil {
		result.Status = types.PRStatusError
		result.Message = fmt.Sprintf("token validation failed: %v", err)
		return result, err
	}

	sha, err := r.host.GetBranchSHA(ctx, r.cfg.GitHubOwner, r.cfg.GitHubRepo, r.project.Branch)
	if err != nil {
		result.Status = types.PRStatusError
		result.Message = fmt.Sprintf("failed to resolve fork base branch: %v", err)
		return result, err
	}

	err = r.host.CreateBranch(ctx, r.cfg.GitHubOwner, r.cfg.GitHubRepo, branch, sha)
	if errors.Is(err, github.ErrBranchExists) {
		logger.Warn("branch already exists, continuing", logger.String("branch", branch))
	} else if err != nil {
		result.Status = types.PRStatusError
		result.Message = fmt.Sprintf("branch creation failed: %v", err)
		return result, err
	}

	targetPath := r.project.TargetDocPath(filePath, lang)
	err = r.host.PutFile(ctx, r.cfg.GitHubOwner, r.cfg.GitHubRepo, branch,
		targetPath, CommitMessage(lang, filePath), []byte(translated))
	if err != nil {
		result.Status = types.PRStatusError
		result.Message = fmt.Sprintf("file commit failed: %v", err)
		return result, err
	}

	title, body := r.prContent(lang, filePath, targetPath)
	head := r.cfg.GitHubOwner + ":" + branch
	pr, err := r.host.OpenPullRequest(ctx, r.project.Owner, r.project.Repo, title, body, head, r.project.Branch)
	if err != nil {
		// The branch and commit exist, so the run can be finished by hand.
		result.Status = types.PRStatusPartialSuccess
		result.Message = fmt.Sprintf("file committed to %s but PR creation failed: %v", branch, err)
		return result, nil
	}

	result.Status = types.PRStatusSuccess
	result.PRURL = pr.HTMLURL
	result.Message = "pull request opened"

	if err := r.store.SetPRURL(r.project.Name, lang, filePath, pr.HTMLURL); err != nil {
		logger.Warn("failed to record PR URL", logger.Err(err))
	}
	return result, nil
}

// prContent builds the default PR title and body.
func (r *Runner) prContent(lang, filePath, targetPath string) (string, string) {
	langName := types.LanguageDisplayName(lang)
	title := fmt.Sprintf("🌐 [i18n-%s] Translated `%s` to %s",
		strings.ToUpper(lang), path.Base(filePath), langName)

	var tracking string
	if issue, ok := r.project.TrackingIssues[lang]; ok {
		tracking = fmt.Sprintf("\nPart of https://github.com/%s/issues/%s\n", r.project.FullName(), issue)
	}
	if r.project.ReferencePRURL != "" {
		tracking += fmt.Sprintf("\nFor the conventions used here, see %s\n", r.project.ReferencePRURL)
	}

	body := fmt.Sprintf(`# What does this PR do?

Translated the `+"`%s`"+` file of the documentation to %s 😄
Thank you in advance for your review!
%s
## Before reviewing
- [x] Check for missing / redundant translations
- [x] Grammar check
- [x] Review or add new terms to the glossary
- [x] Check inline TOC (e.g. `+"`[[lowercased-header]]`"+`)
- [x] Check live preview for gotchas

## Who can review?

%s translation reviewers and documentation maintainers, may you please review this PR?
`, filePath, langName, tracking, langName)

	return title, body
}

// UpdateTocTree inserts the translated document into the target language's
// _toctree.yml on the working branch as a separate commit.
func (r *Runner) UpdateTocTree(ctx context.Context, lang, filePath string) error {
	branch := BranchName(lang, filePath)

	sourceYAML, err := r.host.RawContent(ctx, r.project.Owner, r.project.Repo, r.project.Branch,
		r.project.SourceDocsPath()+"/_toctree.yml")
	if err != nil {
		return err
	}
	sourceTree, err := toctree.Parse([]byte(sourceYAML))
	if err != nil {
		return err
	}

	targetTocPath := r.project.DocsPath + "/" + lang + "/_toctree.yml"
	var targetTree []*toctree.Node
	targetYAML, err := r.host.RawContent(ctx, r.project.Owner, r.project.Repo, r.project.Branch, targetTocPath)
	if err == nil {
		targetTree, err = toctree.Parse([]byte(targetYAML))
		if err != nil {
			return err
		}
	} else if types.IsCode(err, types.ErrFileNotFound) {
		logger.Warn("target toctree missing, starting empty", logger.String("lang", lang))
	} else {
		return err
	}

	local := strings.TrimSuffix(strings.TrimPrefix(filePath, r.project.SourceDocsPath()+"/"), ".md")
	merged, err := toctree.MergeEntry(sourceTree, targetTree, local, r.translateTitle(ctx, lang))
	if err != nil {
		return err
	}

	data, err := toctree.Serialize(merged)
	if err != nil {
		return err
	}

	commitMsg := fmt.Sprintf("docs: update %s documentation table of contents", types.LanguageDisplayName(lang))
	return r.host.PutFile(ctx, r.cfg.GitHubOwner, r.cfg.GitHubRepo, branch, targetTocPath, commitMsg, data)
}

// translateTitle adapts the document translator into a toctree title
// translator.
func (r *Runner) translateTitle(ctx context.Context, lang string) toctree.TitleTranslator {
	langName := types.LanguageDisplayName(lang)
	return func(title string) (string, error) {
		prompt := fmt.Sprintf("Translate the following English documentation title to %s. "+
			"Return only the translated title, nothing else.\n\nEnglish title: %s\n\n%s title:",
			langName, title, langName)
		translated, _, err := r.translator.Translate(ctx, prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(translated), nil
	}
}

// ReviewPR reviews the translated file on a PR branch against its source
// and posts the verdict as a GitHub review on the upstream PR.
func (r *Runner) ReviewPR(ctx context.Context, model ReviewModel, lang, filePath string, prNumber int) (*reviewer.Review, error) {
	original, err := r.host.RawContent(ctx, r.project.Owner, r.project.Repo, r.project.Branch, filePath)
	if err != nil {
		return nil, err
	}

	branch := BranchName(lang, filePath)
	targetPath := r.project.TargetDocPath(filePath, lang)
	translated, err := r.host.RawContent(ctx, r.cfg.GitHubOwner, r.cfg.GitHubRepo, branch, targetPath)
	if err != nil {
		return nil, err
	}

	diff, err := r.host.PullRequestDiff(ctx, r.project.Owner, r.project.Repo, prNumber)
	if err != nil {
		logger.Warn("failed to fetch PR diff, reviewing without it", logger.Err(err))
		diff = ""
	}

	prURL := fmt.Sprintf("https://github.com/%s/pull/%d", r.project.FullName(), prNumber)
	review, err := model.Run(ctx, original, translated, diff, prNumber, prURL)
	if err != nil {
		return nil, err
	}

	event := reviewer.EventFromVerdict(review.Verdict)
	comments := reviewer.BuildReviewComments(targetPath, review.Comments)
	if err := r.host.PostReview(ctx, r.project.Owner, r.project.Repo, prNumber,
		event, reviewer.SummaryForBody(review.Summary), comments); err != nil {
		return review, err
	}
	return review, nil
}
