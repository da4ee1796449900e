package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mastergate/internal/config"
	"mastergate/internal/logging"
	"mastergate/internal/services"
)

// PeakMeasurer resolves the true peak of an encoded file plus the number of
// frames exceeding a ceiling. Satisfied by analysis.Analyzer.
type PeakMeasurer interface {
	MeasurePeaks(ctx context.Context, sourcePath string, ceilingDBTP float64) (float64, int, error)
}

// ProfileResult captures the predicted distortion for one codec profile.
type ProfileResult struct {
	Profile            string  `json:"profile"`
	BitrateKbps        int     `json:"bitrate_kbps"`
	PostEncodePeakDBTP float64 `json:"post_encode_peak_dbtp"`
	OversCount         int     `json:"overs_count"`
	HeadroomDeltaDB    float64 `json:"headroom_delta_db"`
	Risk               Risk    `json:"risk"`
}

// Result aggregates both codec profiles. Advisory-only: it never feeds the
// hard-fail rules, and a failure to persist it must not affect the decision.
type Result struct {
	Profiles      []ProfileResult `json:"profiles"`
	AggregateRisk Risk            `json:"aggregate_risk"`
	Advisory      string          `json:"advisory"`
}

// MarshalPayload renders the result for best-effort persistence.
func (r Result) MarshalPayload() ([]byte, error) {
	return json.Marshal(r)
}

type codecProfile struct {
	name        string
	codec       string
	extension   string
	bitrateKbps int
}

// Simulator predicts lossy-delivery distortion by re-encoding the submitted
// audio through two reference codec profiles and re-measuring peaks on the
// encoded output.
type Simulator struct {
	cfg      *config.Config
	measurer PeakMeasurer
	logger   *slog.Logger
}

// New constructs a simulator that re-measures encodes with the supplied
// measurer.
func New(cfg *config.Config, measurer PeakMeasurer, logger *slog.Logger) *Simulator {
	return &Simulator{
		cfg:      cfg,
		measurer: measurer,
		logger:   logging.NewComponentLogger(logger, "simulate"),
	}
}

// Simulate runs both codec profiles against the source audio. preEncodePeak
// is the true peak measured on the original program; headroom delta per
// profile is post-encode peak minus this value.
func (s *Simulator) Simulate(ctx context.Context, sourcePath string, preEncodePeakDBTP float64) (Result, error) {
	profiles := []codecProfile{
		{name: "aac", codec: "aac", extension: "m4a", bitrateKbps: s.cfg.Simulation.AACBitrateKbps},
		{name: "mp3", codec: "libmp3lame", extension: "mp3", bitrateKbps: s.cfg.Simulation.MP3BitrateKbps},
	}

	workDir, err := os.MkdirTemp("", "mastergate-sim-")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "simulating", "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	result := Result{AggregateRisk: RiskLow}
	for _, profile := range profiles {
		encoded := filepath.Join(workDir, fmt.Sprintf("sim-%s.%s", profile.name, profile.extension))
		if err := s.encode(ctx, sourcePath, encoded, profile); err != nil {
			return Result{}, err
		}

		peak, overs, err := s.measurer.MeasurePeaks(ctx, encoded, s.cfg.Gate.MaxTruePeakDBTP)
		if err != nil {
			return Result{}, err
		}

		delta := peak - preEncodePeakDBTP
		if math.IsNaN(delta) {
			delta = 0
		}
		profileResult := ProfileResult{
			Profile:            profile.name,
			BitrateKbps:        profile.bitrateKbps,
			PostEncodePeakDBTP: peak,
			OversCount:         overs,
			HeadroomDeltaDB:    delta,
			Risk:               classifyRisk(overs, delta, s.cfg.Simulation),
		}
		result.Profiles = append(result.Profiles, profileResult)
		result.AggregateRisk = result.AggregateRisk.Worse(profileResult.Risk)
	}

	result.Advisory = buildAdvisory(result.Profiles, s.cfg.Gate.MaxTruePeakDBTP)
	s.logger.DebugContext(ctx, "codec simulation complete",
		logging.String("aggregate_risk", string(result.AggregateRisk)))
	return result, nil
}

func (s *Simulator) encode(ctx context.Context, sourcePath, targetPath string, profile codecProfile) error {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.EncodeTimeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.cfg.FFmpegBinary(),
		"-hide_banner", "-nostats", "-y",
		"-i", sourcePath,
		"-c:a", profile.codec,
		"-b:a", fmt.Sprintf("%dk", profile.bitrateKbps),
		targetPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return services.Wrap(services.ErrTimeout, "simulating", "encode", profile.name+" encode timed out", runCtx.Err())
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "codec re-encode failed",
			logging.String("profile", profile.name),
			logging.Error(err))
		return services.Wrap(services.ErrExternalTool, "simulating", "encode", profile.name+" encode failed", err)
	}
	return nil
}

// buildAdvisory emits one human-readable line naming each profile's risk and
// a suggested limiter ceiling. The suggestion only appears when at least one
// profile classifies above low risk; sub-band peak inflation is noise.
func buildAdvisory(profiles []ProfileResult, ceilingDBTP float64) string {
	parts := make([]string, 0, len(profiles))
	worstDelta := 0.0
	worstRisk := RiskLow
	for _, p := range profiles {
		part := fmt.Sprintf("%s %dk: %s risk", p.Profile, p.BitrateKbps, p.Risk)
		if p.OversCount > 0 {
			part = fmt.Sprintf("%s (%d overs)", part, p.OversCount)
		}
		parts = append(parts, part)
		if p.HeadroomDeltaDB > worstDelta {
			worstDelta = p.HeadroomDeltaDB
		}
		worstRisk = worstRisk.Worse(p.Risk)
	}
	advisory := strings.Join(parts, "; ")
	if worstRisk != RiskLow && worstDelta > 0 {
		suggested := ceilingDBTP - worstDelta
		advisory = fmt.Sprintf("%s; suggest limiter ceiling at or below %.1f dBTP", advisory, suggested)
	}
	return advisory
}
