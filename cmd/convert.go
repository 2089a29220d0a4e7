// Package cmd — convert command.
// This is the main command that orchestrates a run:
// source → crawl → segment → sink → render → write.
//
// It handles flag validation, config layering, renderer selection and the
// optional clone of a GitHub wiki repository.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/gaurav-prasanna/wikipipe/core/link"
	"github.com/gaurav-prasanna/wikipipe/core/output"
	"github.com/gaurav-prasanna/wikipipe/core/source"
	"github.com/gaurav-prasanna/wikipipe/pipeline"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagHTML           bool
	flagPDF            bool
	flagJSON           bool
	flagMarkdown       bool
	flagRoot           string
	flagOutputDir      string
	flagName           string
	flagTitle          string
	flagAuthor         string
	flagRepo           string
	flagLowercaseLinks bool
	flagStrictExternal bool
	flagFetchTimeout   time.Duration
	flagNormalizeHTML  bool
	flagFrontMatter    bool
	flagLogLevel       string
)

var convertCmd = &cobra.Command{
	Use:   "convert [wiki_dir]",
	Short: "Convert a wiki into a single HTML, PDF, JSON or Markdown document",
	Long: `Convert reads the wiki's root page, follows every intra-wiki link breadth
first, and writes all reachable pages as one document. Remote images are
downloaded into <output_dir>/img.

Examples:
  wikipipe convert ./MyProject.wiki --pdf --title "My Project"
  wikipipe convert ./MyProject.wiki --html --output_dir ./out
  wikipipe convert ./MyProject.wiki --markdown --name handbook
  wikipipe convert --repo octocat/Hello-World --json
  wikipipe convert ./docs --root Index.md --config wikipipe.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagHTML, "html", false, "Output a single HTML document (default)")
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output a single PDF document")
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output a JSON outline of the wiki")
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output a single merged Markdown document")

	// Source flags.
	convertCmd.Flags().StringVar(&flagRoot, "root", "", "Root page of the wiki (default Home.md)")
	convertCmd.Flags().StringVar(&flagRepo, "repo", "", "Clone the wiki of a GitHub repository (<user>/<project>)")

	// Document flags.
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	convertCmd.Flags().StringVar(&flagName, "name", "", "Output file name without extension (default: title)")
	convertCmd.Flags().StringVar(&flagTitle, "title", "", "Document title")
	convertCmd.Flags().StringVar(&flagAuthor, "author", "", "Document author")

	// Conversion flags.
	convertCmd.Flags().BoolVar(&flagLowercaseLinks, "lowercase_links", false, "Lowercase page names when resolving links")
	convertCmd.Flags().BoolVar(&flagStrictExternal, "strict_external", false, "Treat every target starting with \"http\" as external")
	convertCmd.Flags().DurationVar(&flagFetchTimeout, "fetch_timeout", 30*time.Second, "Timeout for each image download")
	convertCmd.Flags().BoolVar(&flagNormalizeHTML, "normalize_html", true, "Convert raw HTML lines to Markdown before parsing")
	convertCmd.Flags().BoolVar(&flagFrontMatter, "strip_front_matter", false, "Drop YAML/TOML front matter at the top of each page")
	convertCmd.Flags().StringVar(&flagLogLevel, "log_level", "", "Log level: debug, info, warn or error")
}

func runConvert(cmd *cobra.Command, args []string) error {
	// --- Validate flags ---
	format, err := validateFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(func(c *config.Config) {
		applyFlags(cmd, c)
		if format != "" {
			c.Format = format
		}
	})
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Resolve the wiki directory.
	contentRoot := ""
	if flagRepo != "" {
		dir, err := os.MkdirTemp("", "wikipipe-*")
		if err != nil {
			return fmt.Errorf("creating clone directory: %w", err)
		}
		defer os.RemoveAll(dir)

		fmt.Fprintf(os.Stdout, "Cloning wiki of %s...\n", flagRepo)
		if err := source.CloneWiki(ctx, flagRepo, dir); err != nil {
			return err
		}
		contentRoot = dir
		if cfg.Title == "" {
			cfg.Title = link.TitleFromFilename(flagRepo)
		}
	} else {
		contentRoot = args[0]
		if fi, err := os.Stat(contentRoot); err != nil || !fi.IsDir() {
			return fmt.Errorf("wiki directory %s not found", contentRoot)
		}
	}

	// Select renderer.
	renderer, err := pipeline.NewRenderer(cfg.Format)
	if err != nil {
		return err
	}

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	job := pipeline.Job{
		Config:      cfg,
		ContentRoot: contentRoot,
		AssetDir:    writer.OutputDir,
	}
	res, err := pipeline.Run(ctx, job, renderer, log)
	if err != nil {
		return err
	}

	path, err := writer.WriteDocument(cfg.Name(), res.Document, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Converted %d pages\n", len(res.Pages))
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// validateFlags checks that at most one output format is chosen and that the
// wiki is named either by directory or by --repo. It returns the selected
// format, or "" to keep the configured one.
func validateFlags(args []string) (string, error) {
	if flagRepo != "" && len(args) > 0 {
		return "", fmt.Errorf("--repo and a wiki directory are mutually exclusive")
	}
	if flagRepo == "" && len(args) == 0 {
		return "", fmt.Errorf("a wiki directory or --repo <user>/<project> is required")
	}
	if flagRepo != "" && strings.Count(flagRepo, "/") != 1 {
		return "", fmt.Errorf("invalid --repo %q (want <user>/<project>)", flagRepo)
	}

	// Count output formats.
	var formats []string
	if flagHTML {
		formats = append(formats, config.FormatHTML)
	}
	if flagPDF {
		formats = append(formats, config.FormatPDF)
	}
	if flagJSON {
		formats = append(formats, config.FormatJSON)
	}
	if flagMarkdown {
		formats = append(formats, config.FormatMarkdown)
	}
	if len(formats) > 1 {
		return "", fmt.Errorf("only one output format allowed per run (got %d)", len(formats))
	}
	if len(formats) == 0 {
		return "", nil
	}
	return formats[0], nil
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("root") {
		c.RootPage = flagRoot
	}
	if f.Changed("output_dir") {
		c.OutputDir = flagOutputDir
	}
	if f.Changed("name") {
		c.OutputName = flagName
	}
	if f.Changed("title") {
		c.Title = flagTitle
	}
	if f.Changed("author") {
		c.Author = flagAuthor
	}
	if f.Changed("lowercase_links") {
		c.LowercaseLinks = flagLowercaseLinks
	}
	if f.Changed("strict_external") {
		c.StrictExternal = flagStrictExternal
	}
	if f.Changed("fetch_timeout") {
		c.FetchTimeout = flagFetchTimeout
	}
	if f.Changed("normalize_html") {
		c.NormalizeHTML = flagNormalizeHTML
	}
	if f.Changed("strip_front_matter") {
		c.FrontMatter = flagFrontMatter
	}
	if f.Changed("log_level") {
		c.LogLevel = flagLogLevel
	}
}
