package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hlsforge/internal/models"
)

var (
	planProfilePath string
	planOutputDir   string
	planBaseName    string
	planMode        string
	planShowCommand bool
)

// planCmd represents the plan command.
var planCmd = &cobra.Command{
	Use:   "plan <input>",
	Short: "Plan the output structure and transcoder command for an input",
	Long: `Probe the input, plan the rendition folder layout under the output
directory, and synthesize the FFmpeg command that would produce it.
Nothing is encoded; the planned structure is printed as JSON.`,
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

		data, err := json.MarshalIndent(plan.Structure, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

		for _, action := range plan.Actions {
			fmt.Printf("post-action: %s (%s)\n", action.Name, action.Type)
		}
		if planShowCommand {
			fmt.Println(plan.Command.String())
		}
		return nil
	},
}

// jobFromFlags builds the job the plan/transcode commands share.
func jobFromFlags(input string, s *stack) (*models.Job, error) {
	profile, err := loadProfile(planProfilePath)
	if err != nil {
		return nil, err
	}

	outputDir := planOutputDir
	if outputDir == "" {
		outputDir = s.cfg.Storage.OutputDir
	}

	job := models.NewJob(input, outputDir, planBaseName, profile)
	job.Spec.Version = s.cfg.HLS.Version
	job.Spec.TargetDuration = s.cfg.HLS.TargetDuration
	job.Spec.SegmentDuration = s.cfg.HLS.SegmentDuration

	mode := models.OutputMode(planMode)
	if !mode.IsValid() {
		return nil, models.ConfigurationError{Field: "mode", Message: fmt.Sprintf("unknown output mode %q", planMode)}
	}
	job.Mode = mode
	return job, nil
}

// loadProfile reads an encoder profile JSON document.
func loadProfile(path string) (models.EncoderProfile, error) {
	var profile models.EncoderProfile

	if path == "" {
		return profile, models.ConfigurationError{Field: "profile", Message: "a profile file is required (--profile)"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("reading profile %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return profile, nil
}

func init() {
	planCmd.Flags().StringVar(&planProfilePath, "profile", "", "encoder profile JSON file")
	planCmd.Flags().StringVarP(&planOutputDir, "output", "o", "", "output directory (default from config)")
	planCmd.Flags().StringVar(&planBaseName, "name", "out", "base name for playlists and segments")
	planCmd.Flags().StringVar(&planMode, "mode", string(models.OutputModeSeparateStreams), "output mode (combined, separate_streams)")
	planCmd.Flags().BoolVar(&planShowCommand, "show-command", false, "print the synthesized ffmpeg command line")
	rootCmd.AddCommand(planCmd)
}
