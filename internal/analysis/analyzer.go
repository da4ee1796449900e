package analysis

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strings"
	"time"

	"mastergate/internal/config"
	"mastergate/internal/logging"
	"mastergate/internal/media/ffprobe"
	"mastergate/internal/services"
)

// Analyzer measures a submitted audio file by driving ffprobe for container
// metadata and a single ffmpeg pass whose filter diagnostics are parsed into
// a Bundle.
type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs an analyzer bound to the configured tool binaries.
func New(cfg *config.Config, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "analysis"),
	}
}

// Measure produces the acoustic profile for one audio file. Any subprocess
// failure, timeout, or missing mandatory metric is an infrastructure fault:
// the caller must treat it as a broken pipeline, never as a content judgment.
func (a *Analyzer) Measure(ctx context.Context, sourcePath string) (Bundle, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return Bundle{}, services.Wrap(services.ErrValidation, "measuring", "inspect", "empty source path", nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.cfg.AnalysisTimeout())
	defer cancel()

	probe, err := ffprobe.Inspect(probeCtx, a.cfg.FFprobeBinary(), sourcePath)
	if err != nil {
		return Bundle{}, services.Wrap(services.ErrExternalTool, "measuring", "inspect", "ffprobe failed", err)
	}
	if probe.AudioStreamCount() == 0 {
		a.logger.DebugContext(ctx, "container carries no audio stream",
			logging.String("source", sourcePath),
			logging.String("probe_json", string(probe.RawJSON())))
		return Bundle{}, services.Wrap(services.ErrValidation, "measuring", "inspect", "no audio stream in container", nil)
	}

	started := time.Now()
	diagnostics, err := a.runMeasurement(ctx, sourcePath)
	if err != nil {
		return Bundle{}, err
	}

	bundle := a.parse(probe, diagnostics)
	if !bundle.Complete() {
		a.logger.ErrorContext(ctx, "mandatory loudness metrics missing from diagnostics",
			logging.String("source", sourcePath))
		return Bundle{}, services.Wrap(services.ErrExternalTool, "measuring", "parse", "mandatory loudness metrics missing", nil)
	}

	a.logger.DebugContext(ctx, "measurement complete",
		logging.Float64("integrated_lufs", bundle.IntegratedLUFS),
		logging.Float64("true_peak_dbtp", bundle.EffectiveTruePeak),
		logging.Int64("clipped_samples", bundle.ClippedSamples),
		logging.Duration("elapsed", time.Since(started)))
	return bundle, nil
}

// MeasurePeaks runs a reduced analysis pass resolving the program's
// reconstructed true peak and the number of frames exceeding the given
// ceiling. The codec simulator uses it against decoded re-encodes.
func (a *Analyzer) MeasurePeaks(ctx context.Context, sourcePath string, ceilingDBTP float64) (float64, int, error) {
	diagnostics, err := a.runFilter(ctx, sourcePath, "ebur128=peak=true")
	if err != nil {
		return math.NaN(), 0, err
	}
	events := extractPeakEvents(diagnostics, ceilingDBTP)
	peak := extractTruePeak(diagnostics)
	for _, event := range events {
		if math.IsNaN(peak) || event.LevelDBTP > peak {
			peak = event.LevelDBTP
		}
	}
	if math.IsNaN(peak) {
		return math.NaN(), 0, services.Wrap(services.ErrExternalTool, "simulating", "true_peak", "true peak missing from diagnostics", nil)
	}
	return peak, len(events), nil
}

func (a *Analyzer) runMeasurement(ctx context.Context, sourcePath string) (string, error) {
	filter := fmt.Sprintf(
		"astats=metadata=0,ebur128=peak=true,silencedetect=noise=%.1fdB:d=%.2f,aphasemeter=video=0,ametadata=mode=print:key=lavfi.aphasemeter.phase",
		a.cfg.Gate.SilenceNoiseFloorDB,
		a.cfg.Gate.MinSilenceSeconds,
	)
	return a.runFilter(ctx, sourcePath, filter)
}

// runFilter executes one null-muxed ffmpeg pass and returns the stderr
// diagnostic stream the filters wrote.
func (a *Analyzer) runFilter(ctx context.Context, sourcePath, filter string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.cfg.AnalysisTimeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.cfg.FFmpegBinary(),
		"-hide_banner", "-nostats",
		"-i", sourcePath,
		"-af", filter,
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = &stderr

	err := cmd.Run()
	diagnostics := stderr.String()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", services.Wrap(services.ErrTimeout, "measuring", "ffmpeg", "analysis timed out", runCtx.Err())
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "ffmpeg analysis failed",
			logging.String("source", sourcePath),
			logging.Error(err))
		return "", services.Wrap(services.ErrExternalTool, "measuring", "ffmpeg", "analysis subprocess failed", err)
	}
	return diagnostics, nil
}

func (a *Analyzer) parse(probe ffprobe.Result, diagnostics string) Bundle {
	bundle := Bundle{
		DurationSeconds:   probe.DurationSeconds(),
		SampleRateHz:      probe.SampleRateHz(),
		Channels:          probe.ChannelCount(),
		IntegratedLUFS:    extractIntegratedLoudness(diagnostics),
		TruePeakDBTP:      extractTruePeak(diagnostics),
		LoudnessRangeLU:   extractLoudnessRange(diagnostics),
		ClippedSamples:    extractClippedSamples(diagnostics),
		CrestFactorDB:     extractCrestFactor(diagnostics),
		DCOffset:          extractDCOffset(diagnostics),
		SilenceSegments:   extractSilenceSegments(diagnostics),
		PhaseSeries:       extractPhaseSeries(diagnostics),
		PeakEvents:        extractPeakEvents(diagnostics, a.cfg.Gate.MaxTruePeakDBTP),
		EffectiveTruePeak: math.NaN(),
	}
	if math.IsNaN(bundle.DurationSeconds) {
		bundle.DurationSeconds = 0
	}

	// The effective value used for rule evaluation is the worst of the
	// program summary peak and any individual frame event.
	effective := bundle.TruePeakDBTP
	for _, event := range bundle.PeakEvents {
		if math.IsNaN(effective) || event.LevelDBTP > effective {
			effective = event.LevelDBTP
		}
	}
	bundle.EffectiveTruePeak = effective
	bundle.PunchFactor = punchFactor(bundle.CrestFactorDB)
	return bundle
}

// punchFactor maps crest factor onto a coarse 0..1 transient indicator.
// Heavily limited program sits near 0; unprocessed dynamic material near 1.
func punchFactor(crestDB float64) float64 {
	if math.IsNaN(crestDB) {
		return 0
	}
	scaled := (crestDB - 3.0) / 12.0
	return math.Max(0, math.Min(1, scaled))
}
