package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wordpaste/internal/output"
	"github.com/jmylchreest/wordpaste/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		info := version.Get()

		if asJSON {
			w, err := output.NewWriter(cmd.OutOrStdout(), output.FormatJSON)
			if err != nil {
				return err
			}
			if err := w.Write(info); err != nil {
				return err
			}
			return w.Close()
		}

		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Full())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print version information as JSON")
	rootCmd.Version = version.Get().String()
}
