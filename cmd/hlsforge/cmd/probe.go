package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// probeCmd represents the probe command.
var probeCmd = &cobra.Command{
	Use:   "probe <input>",
	Short: "Analyze an input file or URL",
	Long:  "Probe an input and print its stream analysis as JSON: video, audio and subtitle streams, HDR flags, and duration.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(cmd.Context())
		if err != nil {
			return err
		}

		analysis, err := s.prober.Analyze(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("probing %s: %w", args[0], err)
		}

		data, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
