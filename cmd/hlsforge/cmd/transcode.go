package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hlsforge/internal/engine"
)

var transcodeCleanupOnFail bool

// transcodeCmd represents the transcode command.
var transcodeCmd = &cobra.Command{
	Use:   "transcode <input>",
	Short: "Transcode an input into an HLS output tree",
	Long: `Probe the input, plan the rendition layout, run FFmpeg, write the
media and master playlists, and validate the result.`,
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

		result, err := s.engine.Transcode(cmd.Context(), job, engine.NewExecRunner())
		if err != nil {
			if transcodeCleanupOnFail {
				if plan, planErr := s.engine.PlanJob(cmd.Context(), job); planErr == nil {
					if cleanErr := s.engine.Cleanup(plan.Structure); cleanErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "cleanup: %v\n", cleanErr)
					}
				}
			}
			return err
		}

		for _, warning := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
		}
		if !result.Valid {
			for _, e := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
			}
			return fmt.Errorf("output validation failed with %d error(s)", len(result.Errors))
		}

		fmt.Printf("transcode complete: %s\n", job.OutputDir)
		return nil
	},
}

func init() {
	transcodeCmd.Flags().StringVar(&planProfilePath, "profile", "", "encoder profile JSON file")
	transcodeCmd.Flags().StringVarP(&planOutputDir, "output", "o", "", "output directory (default from config)")
	transcodeCmd.Flags().StringVar(&planBaseName, "name", "out", "base name for playlists and segments")
	transcodeCmd.Flags().StringVar(&planMode, "mode", "separate_streams", "output mode (combined, separate_streams)")
	transcodeCmd.Flags().BoolVar(&transcodeCleanupOnFail, "cleanup-on-fail", false, "remove partial outputs when the transcode fails")
	rootCmd.AddCommand(transcodeCmd)
}
