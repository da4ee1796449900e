// Package analysis measures submitted audio with ffmpeg and parses the
// filter diagnostics into a structured metrics bundle. Extraction is
// line-oriented and per-metric: a malformed diagnostic line degrades one
// metric to NaN instead of aborting the whole measurement.
package analysis
