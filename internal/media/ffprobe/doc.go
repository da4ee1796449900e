// Package ffprobe wraps invocation and parsing of the ffprobe utility for
// inspecting submitted audio containers.
package ffprobe
