package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	AudioDir string `toml:"audio_dir"`
	APIBind  string `toml:"api_bind"`
}

// Auth contains bearer-token verification settings for the gate API.
type Auth struct {
	SigningSecret   string `toml:"signing_secret"`
	Issuer          string `toml:"issuer"`
	Audience        string `toml:"audience"`
	TokenTTLMinutes int    `toml:"token_ttl_minutes"`
}

// Tools contains external binary names and subprocess execution bounds.
type Tools struct {
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	FFprobeBinary          string `toml:"ffprobe_binary"`
	AnalysisTimeoutSeconds int    `toml:"analysis_timeout_seconds"`
	EncodeTimeoutSeconds   int    `toml:"encode_timeout_seconds"`
}

// Gate contains the hard-fail thresholds applied to measured submissions and
// the staleness window for stuck-item recovery. These are deployment policy
// values, not pipeline structure.
type Gate struct {
	MaxTruePeakDBTP     float64 `toml:"max_true_peak_dbtp"`
	MaxIntegratedLUFS   float64 `toml:"max_integrated_lufs"`
	MaxClippedSamples   int64   `toml:"max_clipped_samples"`
	MinLoudnessRangeLU  float64 `toml:"min_loudness_range_lu"`
	MinCrestFactorDB    float64 `toml:"min_crest_factor_db"`
	SilenceNoiseFloorDB float64 `toml:"silence_noise_floor_db"`
	MinSilenceSeconds   float64 `toml:"min_silence_seconds"`
	StaleProcessingSecs int     `toml:"stale_processing_seconds"`
}

// Simulation contains codec distortion simulation bitrates and risk bands.
type Simulation struct {
	AACBitrateKbps         int     `toml:"aac_bitrate_kbps"`
	MP3BitrateKbps         int     `toml:"mp3_bitrate_kbps"`
	OversHighThreshold     int     `toml:"overs_high_threshold"`
	OversModerateThreshold int     `toml:"overs_moderate_threshold"`
	HeadroomHighDB         float64 `toml:"headroom_high_db"`
	HeadroomModerateDB     float64 `toml:"headroom_moderate_db"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mastergate.
//
// Configuration sections by subsystem:
//   - Paths: data/log/audio directories and API bind address
//   - Auth: JWT verification for the gate API
//   - Tools: ffmpeg/ffprobe binaries and subprocess timeouts
//   - Gate: hard-fail thresholds and recovery staleness
//   - Simulation: lossy codec bitrates and distortion risk bands
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Auth       Auth       `toml:"auth"`
	Tools      Tools      `toml:"tools"`
	Gate       Gate       `toml:"gate"`
	Simulation Simulation `toml:"simulation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mastergate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mastergate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// EnsureDirectories creates required directories for service operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.AudioDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for measurement and re-encoding.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		return "ffmpeg"
	}
	return c.Tools.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for stream inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Tools.FFprobeBinary) == "" {
		return "ffprobe"
	}
	return c.Tools.FFprobeBinary
}

// AnalysisTimeout bounds one measurement subprocess invocation.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Tools.AnalysisTimeoutSeconds) * time.Second
}

// EncodeTimeout bounds one codec simulation re-encode invocation.
func (c *Config) EncodeTimeout() time.Duration {
	return time.Duration(c.Tools.EncodeTimeoutSeconds) * time.Second
}

// StaleProcessingAfter is the age beyond which a processing item is considered
// abandoned by a crashed worker and becomes eligible for recovery.
func (c *Config) StaleProcessingAfter() time.Duration {
	return time.Duration(c.Gate.StaleProcessingSecs) * time.Second
}

// TokenTTL returns the lifetime for development tokens issued by the CLI.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
