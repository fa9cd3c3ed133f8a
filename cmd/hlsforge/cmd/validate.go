package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Validate an existing HLS output tree against its source",
	Long: `Re-probe the source input, re-plan the output layout it implies, and
run the validation gate against the files already on disk: playlist grammar,
segment presence and size, and re-probed duration variance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(cmd.Context())
		if err != nil {
			return err
		}

		job, err := jobFromFlags(args[0], s)
		if err != nil {
			return err
		}

		plan, err := s.engine.PlanJob(cmd.Context(), job)
		if err != nil {
			return err
		}

		result := s.gate.Validate(cmd.Context(), job, plan.Structure, plan.Analysis.Duration)
		for _, warning := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
		}
		if !result.Valid {
			return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
		}

		fmt.Println("validation passed")
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&planProfilePath, "profile", "", "encoder profile JSON file")
	validateCmd.Flags().StringVarP(&planOutputDir, "output", "o", "", "output directory (default from config)")
	validateCmd.Flags().StringVar(&planBaseName, "name", "out", "base name for playlists and segments")
	validateCmd.Flags().StringVar(&planMode, "mode", "separate_streams", "output mode (combined, separate_streams)")
	rootCmd.AddCommand(validateCmd)
}
