// Command doc-translator translates HuggingFace-style documentation trees
// and shepherds the results through GitHub pull requests.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"doc-translator/internal/config"
	"doc-translator/internal/github"
	"doc-translator/internal/llm"
	"doc-translator/internal/logger"
	"doc-translator/internal/results"
	"doc-translator/internal/reviewer"
	"doc-translator/internal/workflow"
)

const version = "0.2.0"

// CLI defines the command-line interface.
var CLI struct {
	Config  string `name:"config" help:"Path to the config file" type:"path"`
	Verbose bool   `name:"verbose" short:"v" help:"Enable debug logging"`

	Report    ReportCmd    `cmd:"" help:"Show translation coverage for a language"`
	Translate TranslateCmd `cmd:"" help:"Translate a documentation file"`
	PR        PRCmd        `cmd:"" help:"Open a pull request for a cached translation"`
	Review    ReviewCmd    `cmd:"" help:"Run an LLM review of a translation PR"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// appContext carries the assembled dependencies into command Run methods.
type appContext struct {
	cfg   *config.Config
	store *results.Store
}

func (a *appContext) runner(project string) (*workflow.Runner, error) {
	projectCfg, err := config.GetProjectConfig(project)
	if err != nil {
		return nil, err
	}
	settings, err := a.cfg.ResolveLLM()
	if err != nil {
		return nil, err
	}
	engine := llm.NewEngine(settings)
	host := github.NewClient(a.cfg.GitHubToken)
	return workflow.NewRunner(host, engine, a.store, a.cfg, projectCfg), nil
}

// ReportCmd prints the coverage table and the next files to translate.
type ReportCmd struct {
	Project string `name:"project" default:"transformers" help:"Project to analyze"`
	Lang    string `name:"lang" required:"" help:"Target language code, e.g. ko"`
	TopK    int    `name:"top-k" default:"10" help:"How many missing files to list"`
}

func (c *ReportCmd) Run(app *appContext) error {
	runner, err := app.runner(c.Project)
	if err != nil {
		return err
	}
	ctx := context.Background()

	report, missing, err := runner.Report(ctx, c.Lang, c.TopK)
	if err != nil {
		return err
	}
	fmt.Println(report)

	if len(missing) > 0 {
		fmt.Println("Next files to translate:")
		for _, file := range missing {
			fmt.Printf("  %s\n", file)
		}
	}

	inProgress, urls, err := runner.InProgress(ctx, c.Lang)
	if err != nil {
		logger.Warn("could not list in-progress translations", logger.Err(err))
		return nil
	}
	if len(inProgress) > 0 {
		fmt.Println("\nAlready being translated in open PRs:")
		for i, file := range inProgress {
			fmt.Printf("  %s (%s)\n", file, urls[i])
		}
	}
	return nil
}

// TranslateCmd translates one file and caches the result.
type TranslateCmd struct {
	Project     string `name:"project" default:"transformers" help:"Project the file belongs to"`
	Lang        string `name:"lang" required:"" help:"Target language code, e.g. ko"`
	File        string `name:"file" required:"" help:"Repository path of the source file"`
	Instruction string `name:"instruction" help:"Additional instruction passed to the model"`
	Force       bool   `name:"force" help:"Retranslate even when a cached result exists"`
}

func (c *TranslateCmd) Run(app *appContext) error {
	runner, err := app.runner(c.Project)
	if err != nil {
		return err
	}

	result, err := runner.TranslateDocument(context.Background(), c.Lang, c.File, c.Instruction, c.Force)
	if err != nil {
		return err
	}

	fmt.Printf("Translated %s (%d tokens used)\n", result.FilePath, result.TokensUsed)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println(result.TranslatedContent)
	return nil
}

// PRCmd pushes a cached translation and opens the draft pull request.
type PRCmd struct {
	Project string `name:"project" default:"transformers" help:"Project the file belongs to"`
	Lang    string `name:"lang" required:"" help:"Target language code, e.g. ko"`
	File    string `name:"file" required:"" help:"Repository path of the source file"`
	TocTree bool   `name:"toctree" default:"true" negatable:"" help:"Also update the target _toctree.yml"`
}

func (c *PRCmd) Run(app *appContext) error {
	if app.cfg.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required to open pull requests")
	}
	runner, err := app.runner(c.Project)
	if err != nil {
		return err
	}
	ctx := context.Background()

	result, err := runner.CreatePR(ctx, c.Lang, c.File)
	if err != nil {
		return err
	}
	fmt.Printf("Status: %s\n%s\n", result.Status, result.Message)
	if result.PRURL != "" {
		fmt.Printf("PR: %s\n", result.PRURL)
	}

	if c.TocTree {
		if err := runner.UpdateTocTree(ctx, c.Lang, c.File); err != nil {
			logger.Warn("toctree update failed", logger.Err(err))
			fmt.Printf("Warning: toctree update failed: %v\n", err)
		}
	}
	return nil
}

// ReviewCmd reviews the translated file on a PR branch and posts the review.
type ReviewCmd struct {
	Project string `name:"project" default:"transformers" help:"Project the file belongs to"`
	Lang    string `name:"lang" required:"" help:"Target language code, e.g. ko"`
	File    string `name:"file" required:"" help:"Repository path of the source file"`
	PR      int    `name:"pr" required:"" help:"Upstream pull request number"`
}

func (c *ReviewCmd) Run(app *appContext) error {
	runner, err := app.runner(c.Project)
	if err != nil {
		return err
	}
	settings, err := app.cfg.ResolveLLM()
	if err != nil {
		return err
	}
	ctx := context.Background()

	model, err := reviewer.New(ctx, settings)
	if err != nil {
		return err
	}

	review, err := runner.ReviewPR(ctx, model, c.Lang, c.File, c.PR)
	if err != nil {
		return err
	}
	fmt.Printf("Verdict: %s\n%s\n", review.Verdict, review.Summary)
	for _, comment := range review.Comments {
		fmt.Printf("  L%d: %s\n", comment.Line, comment.Issue)
	}
	return nil
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *appContext) error {
	fmt.Printf("doc-translator %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("doc-translator"),
		kong.Description("Structure-preserving documentation translator with GitHub PR automation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := logger.LevelInfo
	if CLI.Verbose {
		level = logger.LevelDebug
	}
	if err := logger.Init(&logger.Config{Level: level}); err != nil {
		ctx.FatalIfErrorf(err)
	}
	defer logger.Close()

	manager, err := config.NewManager(CLI.Config)
	if err != nil {
		ctx.FatalIfErrorf(err)
	}
	if err := manager.Load(); err != nil {
		ctx.FatalIfErrorf(err)
	}
	cfg := manager.Get()

	store, err := results.NewStore(cfg.ResultsDir)
	if err != nil {
		ctx.FatalIfErrorf(err)
	}

	err = ctx.Run(&appContext{cfg: cfg, store: store})
	ctx.FatalIfErrorf(err)
}
