// Package config loads, validates, and normalizes mastergate configuration.
//
// Configuration is TOML sourced from ~/.config/mastergate/config.toml (or an
// explicit path), layered over built-in defaults. Gating thresholds, codec
// simulation bitrates, risk bands, and the stuck-item staleness window are all
// deployment policy and live here rather than in pipeline code.
package config
