package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/wordpaste/internal/clipboard"
	"github.com/jmylchreest/wordpaste/internal/logger"
	"github.com/jmylchreest/wordpaste/internal/output"
	"github.com/jmylchreest/wordpaste/pkg/wordfilter"
)

// detectReport is one line of detect output.
type detectReport struct {
	Input   string             `json:"input" yaml:"input"`
	Payload *clipboard.Payload `json:"payload" yaml:"payload"`
	Verdict wordfilter.Verdict `json:"verdict" yaml:"verdict"`
}

var detectCmd = &cobra.Command{
	Use:   "detect [file...]",
	Short: "Report whether pastes are word-processor content",
	Long: `Run the classifier over one or more saved pastes and report the signals
found, the weak-signal score and the verdict. Reads stdin when no file
is given.

Examples:
  wordpaste detect paste.html
  wordpaste detect --format yaml a.html b.cfhtml
  wordpaste detect --threshold 0.5 --format jsonl pastes/*.html`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("format", "f", "json", "report format: json, jsonl, yaml")
	detectCmd.Flags().Bool("pretty", true, "indent JSON output")
}

func runDetect(cmd *cobra.Command, args []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	pretty, _ := cmd.Flags().GetBool("pretty")

	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	cfg, err := filterConfig(viper.GetViper(), "default")
	if err != nil {
		return err
	}
	filter := wordfilter.New(cfg)
	reader := clipboard.NewReader(0)

	w, err := output.NewWriter(cmd.OutOrStdout(), format, output.WithPretty(pretty))
	if err != nil {
		return err
	}

	var failed int
	for _, path := range inputs(args) {
		payload, err := reader.ReadFile(path)
		if err != nil {
			logError(cmd.ErrOrStderr(), "%s: %v", inputName(path), err)
			failed++
			continue
		}

		verdict := filter.Classify(payload.Content())
		logger.Debug("classified", "input", inputName(path), "score", verdict.Score, "word", verdict.IsWord)

		if err := w.Write(detectReport{
			Input:   inputName(path),
			Payload: payload,
			Verdict: verdict,
		}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d input(s) could not be read", failed)
	}
	return nil
}
