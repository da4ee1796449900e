package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeAuth() {
	if strings.TrimSpace(c.Auth.SigningSecret) == "" {
		if secret, ok := os.LookupEnv("MASTERGATE_SIGNING_SECRET"); ok {
			c.Auth.SigningSecret = strings.TrimSpace(secret)
		}
	}
	if strings.TrimSpace(c.Auth.Issuer) == "" {
		c.Auth.Issuer = defaultAuthIssuer
	}
	if strings.TrimSpace(c.Auth.Audience) == "" {
		c.Auth.Audience = defaultAuthAudience
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		c.Auth.TokenTTLMinutes = defaultTokenTTLMinutes
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.AnalysisTimeoutSeconds <= 0 {
		c.Tools.AnalysisTimeoutSeconds = defaultAnalysisTimeoutSeconds
	}
	if c.Tools.EncodeTimeoutSeconds <= 0 {
		c.Tools.EncodeTimeoutSeconds = defaultEncodeTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
