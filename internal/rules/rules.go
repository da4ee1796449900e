package rules

import (
	"fmt"
	"math"
	"strings"

	"mastergate/internal/analysis"
	"mastergate/internal/config"
)

// Reason is one violated gating rule: the metric, the threshold it crossed,
// and the measured value.
type Reason struct {
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Measured  float64 `json:"measured"`
	Message   string  `json:"message"`
}

// Evaluate maps a metrics bundle onto the ordered list of hard-fail reasons.
// Empty list means the submission passes. Every rule is applied
// unconditionally so a submission accumulates all simultaneous violations;
// the function is pure and touches no persistence state.
func Evaluate(bundle analysis.Bundle, gate config.Gate) []Reason {
	var reasons []Reason

	if bundle.EffectiveTruePeak > gate.MaxTruePeakDBTP {
		reasons = append(reasons, Reason{
			Metric:    "true_peak",
			Threshold: gate.MaxTruePeakDBTP,
			Measured:  bundle.EffectiveTruePeak,
			Message:   fmt.Sprintf("true peak %.1f dBTP exceeds the %.1f dBTP ceiling", bundle.EffectiveTruePeak, gate.MaxTruePeakDBTP),
		})
	}

	if bundle.IntegratedLUFS > gate.MaxIntegratedLUFS {
		reasons = append(reasons, Reason{
			Metric:    "integrated_loudness",
			Threshold: gate.MaxIntegratedLUFS,
			Measured:  bundle.IntegratedLUFS,
			Message:   fmt.Sprintf("integrated loudness %.1f LUFS is hotter than the %.1f LUFS maximum", bundle.IntegratedLUFS, gate.MaxIntegratedLUFS),
		})
	}

	if bundle.ClippedSamples > gate.MaxClippedSamples {
		reasons = append(reasons, Reason{
			Metric:    "clipped_samples",
			Threshold: float64(gate.MaxClippedSamples),
			Measured:  float64(bundle.ClippedSamples),
			Message:   fmt.Sprintf("%d clipped samples exceed the allowed %d", bundle.ClippedSamples, gate.MaxClippedSamples),
		})
	}

	// Range and crest rules skip silently when the metric failed extraction:
	// an absent optional metric must not masquerade as a content judgment.
	if !math.IsNaN(bundle.LoudnessRangeLU) && bundle.LoudnessRangeLU < gate.MinLoudnessRangeLU {
		reasons = append(reasons, Reason{
			Metric:    "loudness_range",
			Threshold: gate.MinLoudnessRangeLU,
			Measured:  bundle.LoudnessRangeLU,
			Message:   fmt.Sprintf("loudness range %.1f LU is below the %.1f LU minimum", bundle.LoudnessRangeLU, gate.MinLoudnessRangeLU),
		})
	}

	if !math.IsNaN(bundle.CrestFactorDB) && bundle.CrestFactorDB < gate.MinCrestFactorDB {
		reasons = append(reasons, Reason{
			Metric:    "crest_factor",
			Threshold: gate.MinCrestFactorDB,
			Measured:  bundle.CrestFactorDB,
			Message:   fmt.Sprintf("crest factor %.1f dB is below the %.1f dB minimum", bundle.CrestFactorDB, gate.MinCrestFactorDB),
		})
	}

	return reasons
}

// Summarize joins the violated rules into the human-readable rejection reason
// disclosed to the submitter.
func Summarize(reasons []Reason) string {
	if len(reasons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, reason.Message)
	}
	return strings.Join(parts, "; ")
}
