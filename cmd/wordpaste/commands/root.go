// Package commands implements the CLI commands for wordpaste.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/wordpaste/internal/logger"
	"github.com/jmylchreest/wordpaste/pkg/wordfilter"
)

var rootCmd = &cobra.Command{
	Use:   "wordpaste",
	Short: "Detect and clean word-processor HTML from pastes",
	Long: `Wordpaste recognises HTML copied out of Microsoft Word, Word Online and
Google Docs, and rewrites it into small, editor-safe HTML.

Input is a saved paste: a plain HTML file, a Windows CF_HTML clipboard
dump, or stdin. Output is HTML, Markdown or plain text.

Examples:
  # Is this paste from Word?
  wordpaste detect paste.html

  # Clean a paste, keeping colours and font sizes
  wordpaste clean --retain-styles paste.html -o clean.html

  # Clean stdin to Markdown and show what was removed
  xclip -o -t text/html | wordpaste clean --format markdown --stats`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Options{
			Debug:  viper.GetBool("debug"),
			Quiet:  viper.GetBool("quiet"),
			JSON:   viper.GetBool("log_json"),
			Level:  viper.GetString("log_level"),
			Output: cmd.ErrOrStderr(),
		})
	},
}

// filterKeys are the keys of the filter: config section. Each can also be
// set as WORDPASTE_FILTER_<KEY>.
var filterKeys = []string{
	"source",
	"mode",
	"retain_styles",
	"lists_as_structure",
	"map_class_roles",
	"collapse_layout_tables",
	"drop_local_images",
	"blank_paragraphs",
	"max_depth",
	"classifier_threshold",
	"rules_file",
	"debug",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.wordpaste.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.String("log-level", "", "log level: debug, info, warn, error (overrides --debug and --quiet)")
	flags.Float64("threshold", 0, "weak-signal score needed to treat a paste as word content (default 0.8)")
	flags.String("rules", "", "YAML file with extra style and class rules")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("filter.classifier_threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("filter.rules_file", flags.Lookup("rules"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".wordpaste")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("WORDPASTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	for _, key := range filterKeys {
		_ = viper.BindEnv("filter." + key)
	}

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("config file loaded", "path", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// presets maps --preset names to configs.
var presets = map[string]func() *wordfilter.Config{
	"default":  wordfilter.DefaultConfig,
	"strict":   wordfilter.PresetStrict,
	"faithful": wordfilter.PresetFaithful,
}

// filterConfig builds the filter config: the preset, overlaid with every
// filter key set in v by flag, environment or config file, in viper's order
// of precedence.
func filterConfig(v *viper.Viper, preset string) (*wordfilter.Config, error) {
	newConfig, ok := presets[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (use default, strict or faithful)", preset)
	}
	cfg := newConfig()

	settings := make(map[string]any)
	for _, key := range filterKeys {
		if v.IsSet("filter." + key) {
			settings[key] = v.Get("filter." + key)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(settings); err != nil {
		return nil, fmt.Errorf("invalid filter settings: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RulesFile != "" {
		if _, err := wordfilter.LoadRulesFile(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// inputs returns the paths to read; stdin when none are given.
func inputs(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

// inputName is the report name for a path.
func inputName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

// logError prints an error message.
func logError(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "Error: "+format+"\n", args...)
}

// logInfo prints an info message unless quiet mode is on.
func logInfo(w io.Writer, format string, args ...any) {
	if !viper.GetBool("quiet") {
		_, _ = fmt.Fprintf(w, format+"\n", args...)
	}
}
