// Package cmd implements the CLI commands for hlsforge.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/hlsforge/internal/config"
	"github.com/jmylchreest/hlsforge/internal/observability"
	"github.com/jmylchreest/hlsforge/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "hlsforge",
	Short:   "HLS transcode planning, packaging and validation engine",
	Version: version.Short(),
	Long: `hlsforge turns a stream analysis and an encoder profile into an FFmpeg
invocation and a validated HLS output package: per-rendition folders,
media playlists, and a master playlist.

It resolves codecs against detected hardware accelerators, synthesizes
combined or separate-stream commands, and gates output behind file,
content, and playlist validation before it is published.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// These flags are not bound to viper; Changed() overrides preserve the
	// priority CLI flag > env var > config > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hlsforge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (text, json)")

	rootCmd.PersistentFlags().String("ffmpeg-path", "", "path to the ffmpeg binary (default: discover)")
	rootCmd.PersistentFlags().String("ffprobe-path", "", "path to the ffprobe binary (default: discover)")
	mustBindPFlag("ffmpeg.ffmpeg_path", rootCmd.PersistentFlags().Lookup("ffmpeg-path"))
	mustBindPFlag("ffmpeg.ffprobe_path", rootCmd.PersistentFlags().Lookup("ffprobe-path"))
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/hlsforge")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hlsforge")
	}

	viper.SetEnvPrefix("HLSFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the default slog logger from config plus flags.
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	logCfg := config.LoggingConfig{
		Level:  strings.ToLower(level),
		Format: strings.ToLower(format),
	}
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	observability.SetDefault(logger)
	return nil
}

// loadConfig builds the validated runtime configuration. Binary path flags
// bound to the global viper override whatever the config file says.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if path := viper.GetString("ffmpeg.ffmpeg_path"); path != "" {
		cfg.FFmpeg.FFmpegPath = path
	}
	if path := viper.GetString("ffmpeg.ffprobe_path"); path != "" {
		cfg.FFmpeg.FFprobePath = path
	}
	return cfg, nil
}
