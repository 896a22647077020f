package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/wordpaste/internal/clipboard"
	"github.com/jmylchreest/wordpaste/internal/logger"
	"github.com/jmylchreest/wordpaste/internal/output"
	"github.com/jmylchreest/wordpaste/pkg/cleaner"
	"github.com/jmylchreest/wordpaste/pkg/wordfilter"
)

// cleanReport is written by --report.
type cleanReport struct {
	Input   string             `json:"input" yaml:"input"`
	Payload *clipboard.Payload `json:"payload" yaml:"payload"`
	Format  string             `json:"format" yaml:"format"`
	Result  *wordfilter.Result `json:"result" yaml:"result"`
}

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Normalize a word-processor paste",
	Long: `Classify a saved paste and, when it is word-processor content, rewrite it
into clean HTML. Other content is passed through untouched unless --force
is given. The result can be rendered as HTML, Markdown or plain text.

Examples:
  # Clean a Word paste from a file
  wordpaste clean paste.html -o clean.html

  # Keep colours and font sizes, drop every blank paragraph
  wordpaste clean --retain-styles --blank-paragraphs remove paste.html

  # Clean anything, render Markdown, print a summary
  wordpaste clean --force --format markdown --stats < page.html

  # Strict preset with a JSON report of what happened on stderr
  wordpaste clean --preset strict --report json paste.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	// Filter flags
	cleanCmd.Flags().Bool("force", false, "normalize even when the paste is not word content")
	cleanCmd.Flags().String("preset", "default", "base configuration: default, strict, faithful")
	cleanCmd.Flags().Bool("retain-styles", false, "keep safe inline styles (colour, background, font size)")
	cleanCmd.Flags().Bool("no-lists", false, "leave list paragraphs as paragraphs")
	cleanCmd.Flags().String("blank-paragraphs", "", "blank paragraph policy: collapse, remove, keep")
	cleanCmd.Flags().String("source", "", "paste source: internal, external")
	cleanCmd.Flags().String("mode", "", "paste mode: html, text")
	cleanCmd.Flags().Int("max-depth", 0, "deepest element nesting to process")

	// Output flags
	cleanCmd.Flags().String("format", "html", "output format: html, markdown, text")
	cleanCmd.Flags().Bool("pretty", false, "indent HTML output")
	cleanCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cleanCmd.Flags().Bool("stats", false, "print a summary to stderr")
	cleanCmd.Flags().String("report", "", "write a report to stderr: json, yaml")

	_ = viper.BindPFlag("filter.retain_styles", cleanCmd.Flags().Lookup("retain-styles"))
	_ = viper.BindPFlag("filter.blank_paragraphs", cleanCmd.Flags().Lookup("blank-paragraphs"))
	_ = viper.BindPFlag("filter.source", cleanCmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("filter.mode", cleanCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("filter.max_depth", cleanCmd.Flags().Lookup("max-depth"))
}

func runClean(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	preset, _ := cmd.Flags().GetString("preset")
	noLists, _ := cmd.Flags().GetBool("no-lists")
	formatStr, _ := cmd.Flags().GetString("format")
	pretty, _ := cmd.Flags().GetBool("pretty")
	outputFile, _ := cmd.Flags().GetString("output")
	showStats, _ := cmd.Flags().GetBool("stats")
	reportStr, _ := cmd.Flags().GetString("report")

	stderr := cmd.ErrOrStderr()

	render, err := renderer(formatStr, pretty)
	if err != nil {
		return err
	}

	var reportFormat output.Format
	if reportStr != "" {
		if reportFormat, err = output.ParseFormat(reportStr); err != nil {
			return err
		}
	}

	cfg, err := filterConfig(viper.GetViper(), preset)
	if err != nil {
		return err
	}
	if noLists {
		cfg.ListsAsStructure = false
	}

	path := inputs(args)[0]
	payload, err := clipboard.NewReader(0).ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", inputName(path), err)
	}

	filter := wordfilter.New(cfg)
	content := payload.Content()

	var result *wordfilter.Result
	if force {
		result = filter.NormalizeWithStats(content)
		result.Verdict = filter.Classify(content)
	} else {
		result = filter.Process(content)
	}
	if !result.Normalized {
		logInfo(stderr, "%s: not word content, passed through (use --force to normalize anyway)", inputName(path))
	}

	out, err := render.Clean(result.Content)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", formatStr, err)
	}
	logger.Debug("rendered", "renderer", render.Name(), "bytes", len(out))

	if err := writeOutput(cmd.OutOrStdout(), outputFile, out); err != nil {
		return err
	}

	if showStats {
		printStats(stderr, inputName(path), result)
	}
	for _, w := range result.Warnings {
		logger.Warn("filter warning", "phase", w.Phase, "message", w.Message, "context", w.Context)
	}

	if reportStr != "" {
		w, err := output.NewWriter(stderr, reportFormat)
		if err != nil {
			return err
		}
		if err := w.Write(cleanReport{
			Input:   inputName(path),
			Payload: payload,
			Format:  formatStr,
			Result:  result,
		}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return w.Close()
	}
	return nil
}

// renderer returns the cleaner that turns filter output into the requested format.
func renderer(format string, pretty bool) (cleaner.Cleaner, error) {
	switch format {
	case "html":
		if pretty {
			return cleaner.NewChain(cleaner.NewNoop(), cleaner.NewPretty()), nil
		}
		return cleaner.NewNoop(), nil
	case "markdown", "md":
		return cleaner.NewMarkdown(), nil
	case "text", "txt":
		return cleaner.NewText(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (use html, markdown or text)", format)
	}
}

func writeOutput(stdout io.Writer, path, content string) error {
	if content != "" && content[len(content)-1] != '\n' {
		content += "\n"
	}
	if path == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	//#nosec G306 -- output is user content, not a secret
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("output written", "path", path, "size", humanize.Bytes(uint64(len(content))))
	return nil
}

func printStats(w io.Writer, name string, r *wordfilter.Result) {
	s := r.Stats
	logInfo(w, "%s: word=%v score=%.2f signals=%v", name, r.Verdict.IsWord, r.Verdict.Score, r.Verdict.Signals)
	logInfo(w, "  size: %s -> %s (%.1f%% reduction)",
		humanize.Bytes(uint64(s.InputBytes)),
		humanize.Bytes(uint64(s.OutputBytes)),
		s.ReductionPercent(),
	)
	if !r.Normalized {
		return
	}
	logInfo(w, "  removed: %s elements, %s attributes, %s comments",
		humanize.Comma(int64(s.TotalElementsRemoved())),
		humanize.Comma(int64(s.AttributesRemoved)),
		humanize.Comma(int64(s.CommentsRemoved)),
	)
	logInfo(w, "  lists: %d (%d items), tables collapsed: %d, blank paragraphs removed: %d",
		s.ListsBuilt, s.ListItems, s.TablesCollapsed, s.BlankParagraphs)
	logInfo(w, "  took %s", s.TotalDuration)
}
