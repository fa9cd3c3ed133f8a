// Package config provides configuration management for hlsforge using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultProbeTimeout       = 30 * time.Second
	defaultCapabilityCacheTTL = 5 * time.Minute
	defaultMinOutputSize      = 1024 // 1KB - below this the output validator warns
	defaultHLSVersion         = 3
	defaultTargetDuration     = 10
	defaultSegmentDuration    = 6
	defaultLiveSegmentSecs    = 2
	defaultLivePlaylistSize   = 6
	defaultLiveSpeedFloor     = 0.9
)

// Config holds all configuration for the application.
type Config struct {
	FFmpeg  FFmpegConfig  `mapstructure:"ffmpeg"`
	Storage StorageConfig `mapstructure:"storage"`
	HLS     HLSConfig     `mapstructure:"hls"`
	Live    LiveConfig    `mapstructure:"live"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FFmpegConfig holds transcoder binary configuration.
type FFmpegConfig struct {
	// FFmpegPath overrides binary discovery. Empty = env var -> ./ffmpeg -> PATH.
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	// ProbeTimeout bounds a single ffprobe invocation.
	ProbeTimeout Duration `mapstructure:"probe_timeout"`
	// CapabilityCacheTTL bounds how long the encoder list is cached.
	CapabilityCacheTTL Duration `mapstructure:"capability_cache_ttl"`
	// HWAccelPreference forces a specific accelerator ("auto" selects by priority).
	HWAccelPreference string `mapstructure:"hwaccel_preference"`
}

// StorageConfig holds output file storage configuration.
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	TempDir   string `mapstructure:"temp_dir"`
	// MinOutputSize is the size below which the output validator emits a warning.
	// Supports human-readable values like "1KB", "5MB", or raw byte counts.
	MinOutputSize ByteSize `mapstructure:"min_output_size"`
}

// HLSConfig holds HLS packaging defaults.
type HLSConfig struct {
	Version         int `mapstructure:"version"`
	TargetDuration  int `mapstructure:"target_duration"`
	SegmentDuration int `mapstructure:"segment_duration"`
}

// LiveConfig holds live-transcoding overrides applied by the live rule.
type LiveConfig struct {
	SegmentDuration int `mapstructure:"segment_duration"`
	PlaylistSize    int `mapstructure:"playlist_size"`
	// SpeedFloor is the encode speed (1.0 = realtime) below which operators are warned.
	SpeedFloor float64 `mapstructure:"speed_floor"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with HLSFORGE_ and use underscores for
// nesting. Example: HLSFORGE_FFMPEG_PROBE_TIMEOUT=10s.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hlsforge")
		v.AddConfigPath("$HOME/.hlsforge")
	}

	v.SetEnvPrefix("HLSFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// The Duration and ByteSize wrappers decode through TextUnmarshaler;
	// viper's default hooks only cover time.Duration and slices.
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// FFmpeg defaults
	v.SetDefault("ffmpeg.ffmpeg_path", "")
	v.SetDefault("ffmpeg.ffprobe_path", "")
	v.SetDefault("ffmpeg.probe_timeout", defaultProbeTimeout)
	v.SetDefault("ffmpeg.capability_cache_ttl", defaultCapabilityCacheTTL)
	v.SetDefault("ffmpeg.hwaccel_preference", "auto")

	// Storage defaults
	v.SetDefault("storage.output_dir", "./output")
	v.SetDefault("storage.temp_dir", "./tmp")
	v.SetDefault("storage.min_output_size", defaultMinOutputSize)

	// HLS defaults
	v.SetDefault("hls.version", defaultHLSVersion)
	v.SetDefault("hls.target_duration", defaultTargetDuration)
	v.SetDefault("hls.segment_duration", defaultSegmentDuration)

	// Live defaults
	v.SetDefault("live.segment_duration", defaultLiveSegmentSecs)
	v.SetDefault("live.playlist_size", defaultLivePlaylistSize)
	v.SetDefault("live.speed_floor", defaultLiveSpeedFloor)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}

	if c.HLS.Version < 1 {
		return fmt.Errorf("hls.version must be at least 1")
	}
	if c.HLS.TargetDuration < 1 {
		return fmt.Errorf("hls.target_duration must be at least 1")
	}
	if c.HLS.SegmentDuration < 1 {
		return fmt.Errorf("hls.segment_duration must be at least 1")
	}
	if c.HLS.SegmentDuration > c.HLS.TargetDuration {
		return fmt.Errorf("hls.segment_duration must not exceed hls.target_duration")
	}

	if c.Live.SegmentDuration < 1 {
		return fmt.Errorf("live.segment_duration must be at least 1")
	}
	if c.Live.SpeedFloor <= 0 {
		return fmt.Errorf("live.speed_floor must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// TempPath returns a path under the configured temp directory.
func (c *StorageConfig) TempPath(name string) string {
	return filepath.Join(c.TempDir, name)
}
