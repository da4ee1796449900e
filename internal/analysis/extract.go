package analysis

import (
	"math"
	"strconv"
	"strings"
)

// The measurement subprocess emits a semi-structured diagnostic stream:
// ebur128 frame lines and a summary block, astats per-channel statistics,
// silencedetect interval markers, and aphasemeter metadata prints. Each
// extractor below is an independent pure function over that text; a metric
// whose lines are absent or malformed yields NaN (or an empty slice) so that
// one bad line never poisons the rest of the bundle.

func extractIntegratedLoudness(output string) float64 {
	return extractSummaryValue(output, "I:", "LUFS")
}

func extractLoudnessRange(output string) float64 {
	return extractSummaryValue(output, "LRA:", "LU")
}

// extractTruePeak reads the ebur128 summary true-peak line, which reports the
// reconstructed inter-sample peak over the whole program.
func extractTruePeak(output string) float64 {
	inTruePeak := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if strings.HasPrefix(trimmed, "True peak:") {
			inTruePeak = true
			continue
		}
		if !inTruePeak {
			continue
		}
		if strings.HasPrefix(trimmed, "Peak:") {
			return parseLabeledFloat(trimmed, "Peak:", "dBFS")
		}
		if trimmed == "" || strings.HasSuffix(trimmed, ":") {
			inTruePeak = false
		}
	}
	return math.NaN()
}

// extractPeakEvents scans the ebur128 frame log for frames whose momentary
// true peak crossed the ceiling. Frame lines look like:
//
//	t: 12.4  TARGET:-23 LUFS  M: -9.1 S: -10.2 I: -11.0 LUFS  LRA: 2.1 LU  FTPK: -0.3 -0.4 dBFS  TPK: -0.1 -0.2 dBFS
func extractPeakEvents(output string, ceilingDBTP float64) []PeakEvent {
	var events []PeakEvent
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if !strings.HasPrefix(trimmed, "t:") || !strings.Contains(trimmed, "FTPK:") {
			continue
		}
		at := parseLabeledFloat(trimmed, "t:", "")
		if math.IsNaN(at) {
			continue
		}
		peak := maxChannelValue(trimmed, "FTPK:")
		if math.IsNaN(peak) || peak <= ceilingDBTP {
			continue
		}
		events = append(events, PeakEvent{TimeSeconds: at, LevelDBTP: peak})
	}
	return events
}

// extractSilenceSegments pairs silencedetect start/end markers. A dangling
// start (silence running to end of program) is dropped rather than guessed.
func extractSilenceSegments(output string) []SilenceSegment {
	var segments []SilenceSegment
	start := math.NaN()
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		switch {
		case strings.HasPrefix(trimmed, "silence_start:"):
			start = parseLabeledFloat(trimmed, "silence_start:", "")
		case strings.HasPrefix(trimmed, "silence_end:"):
			if math.IsNaN(start) {
				continue
			}
			end := parseLabeledFloat(trimmed, "silence_end:", "")
			if !math.IsNaN(end) && end > start {
				segments = append(segments, SilenceSegment{StartSeconds: start, EndSeconds: end})
			}
			start = math.NaN()
		}
	}
	return segments
}

// extractPhaseSeries pairs ametadata pts_time prints with the aphasemeter
// correlation value that follows each one.
func extractPhaseSeries(output string) []PhasePoint {
	var series []PhasePoint
	at := math.NaN()
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if idx := strings.Index(trimmed, "pts_time:"); idx >= 0 {
			at = firstFloat(trimmed[idx+len("pts_time:"):])
			continue
		}
		if strings.HasPrefix(trimmed, "lavfi.aphasemeter.phase=") {
			value := firstFloat(strings.TrimPrefix(trimmed, "lavfi.aphasemeter.phase="))
			if !math.IsNaN(at) && !math.IsNaN(value) {
				series = append(series, PhasePoint{TimeSeconds: at, Correlation: value})
			}
			at = math.NaN()
		}
	}
	return series
}

func extractDCOffset(output string) float64 {
	worst := math.NaN()
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if !strings.HasPrefix(trimmed, "DC offset:") {
			continue
		}
		value := parseLabeledFloat(trimmed, "DC offset:", "")
		if math.IsNaN(value) {
			continue
		}
		magnitude := math.Abs(value)
		if math.IsNaN(worst) || magnitude > worst {
			worst = magnitude
		}
	}
	return worst
}

// extractClippedSamples reads the astats peak-sample counts. The largest
// per-channel count is taken: flat-topped program material reports its
// clipped run length here.
func extractClippedSamples(output string) int64 {
	var worst int64 = -1
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if !strings.HasPrefix(trimmed, "Peak count:") {
			continue
		}
		value := parseLabeledFloat(trimmed, "Peak count:", "")
		if math.IsNaN(value) || value < 0 {
			continue
		}
		if count := int64(value); count > worst {
			worst = count
		}
	}
	if worst < 0 {
		return 0
	}
	return worst
}

// extractCrestFactor reads astats crest-factor lines and keeps the smallest
// channel value, since the least dynamic channel drives the gating rule.
func extractCrestFactor(output string) float64 {
	worst := math.NaN()
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if !strings.HasPrefix(trimmed, "Crest factor:") {
			continue
		}
		value := parseLabeledFloat(trimmed, "Crest factor:", "")
		if math.IsNaN(value) {
			continue
		}
		if math.IsNaN(worst) || value < worst {
			worst = value
		}
	}
	return worst
}

// stripLogPrefix removes the "[Parsed_xxx @ 0x...]" prefix ffmpeg puts on
// filter log lines.
func stripLogPrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return trimmed
	}
	end := strings.Index(trimmed, "]")
	if end < 0 {
		return trimmed
	}
	return trimmed[end+1:]
}

// extractSummaryValue finds "<label> <number> <unit>" within the ebur128
// summary block, skipping frame-log lines that carry the same label.
func extractSummaryValue(output, label, unit string) float64 {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(stripLogPrefix(line))
		if !strings.HasPrefix(trimmed, label) {
			continue
		}
		if strings.Contains(trimmed, "t:") || strings.Contains(trimmed, "TARGET:") {
			continue
		}
		if value := parseLabeledFloat(trimmed, label, unit); !math.IsNaN(value) {
			return value
		}
	}
	return math.NaN()
}

// parseLabeledFloat parses the first number after label, optionally checking
// the trailing unit token.
func parseLabeledFloat(line, label, unit string) float64 {
	idx := strings.Index(line, label)
	if idx < 0 {
		return math.NaN()
	}
	rest := strings.TrimSpace(line[idx+len(label):])
	if unit != "" && !strings.Contains(rest, unit) {
		return math.NaN()
	}
	return firstFloat(rest)
}

// maxChannelValue parses the per-channel numbers after label (e.g. "FTPK:
// -0.3 -0.4 dBFS") and returns the loudest one.
func maxChannelValue(line, label string) float64 {
	idx := strings.Index(line, label)
	if idx < 0 {
		return math.NaN()
	}
	worst := math.NaN()
	for _, field := range strings.Fields(line[idx+len(label):]) {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			break
		}
		if math.IsNaN(worst) || value > worst {
			worst = value
		}
	}
	return worst
}

func firstFloat(text string) float64 {
	for _, field := range strings.Fields(text) {
		if value, err := strconv.ParseFloat(strings.TrimSuffix(field, ","), 64); err == nil {
			return value
		}
	}
	return math.NaN()
}
