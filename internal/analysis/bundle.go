package analysis

import (
	"encoding/json"
	"math"
)

// Bundle is the measured acoustic profile of one submission. It is computed
// once per submission and immutable after persistence.
type Bundle struct {
	DurationSeconds   float64 `json:"duration_seconds"`
	SampleRateHz      int     `json:"sample_rate_hz"`
	Channels          int     `json:"channels"`
	IntegratedLUFS    float64 `json:"integrated_lufs"`
	TruePeakDBTP      float64 `json:"true_peak_dbtp"`
	EffectiveTruePeak float64 `json:"effective_true_peak_dbtp"`
	LoudnessRangeLU   float64 `json:"loudness_range_lu"`
	ClippedSamples    int64   `json:"clipped_samples"`
	CrestFactorDB     float64 `json:"crest_factor_db"`
	DCOffset          float64 `json:"dc_offset"`
	PunchFactor       float64 `json:"punch_factor"`

	SilenceSegments []SilenceSegment `json:"silence_segments,omitempty"`
	PhaseSeries     []PhasePoint     `json:"phase_series,omitempty"`
	PeakEvents      []PeakEvent      `json:"peak_events,omitempty"`
}

// SilenceSegment is one detected silent interval.
type SilenceSegment struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// PhasePoint is one stereo phase-correlation sample.
type PhasePoint struct {
	TimeSeconds float64 `json:"time_seconds"`
	Correlation float64 `json:"correlation"`
}

// PeakEvent is one frame whose true peak crossed the configured ceiling.
type PeakEvent struct {
	TimeSeconds float64 `json:"time_seconds"`
	LevelDBTP   float64 `json:"level_dbtp"`
}

// Complete reports whether the mandatory fields were successfully extracted.
// Loudness and true peak are required for any rule evaluation; the remaining
// metrics degrade gracefully when absent.
func (b Bundle) Complete() bool {
	return !math.IsNaN(b.IntegratedLUFS) && !math.IsNaN(b.EffectiveTruePeak)
}

// MarshalPayload renders the bundle as the JSON document persisted alongside
// the gating decision. NaN values are not representable in JSON, so optional
// metrics that failed extraction are zeroed before encoding.
func (b Bundle) MarshalPayload() ([]byte, error) {
	sanitized := b
	for _, field := range []*float64{
		&sanitized.IntegratedLUFS,
		&sanitized.TruePeakDBTP,
		&sanitized.EffectiveTruePeak,
		&sanitized.LoudnessRangeLU,
		&sanitized.CrestFactorDB,
		&sanitized.DCOffset,
		&sanitized.PunchFactor,
	} {
		if math.IsNaN(*field) || math.IsInf(*field, 0) {
			*field = 0
		}
	}
	return json.Marshal(sanitized)
}
