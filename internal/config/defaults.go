package config

const (
	defaultDataDir  = "~/.local/share/mastergate/data"
	defaultLogDir   = "~/.local/share/mastergate/logs"
	defaultAudioDir = "~/.local/share/mastergate/audio"
	defaultAPIBind  = "127.0.0.1:8492"

	defaultAuthIssuer      = "mastergate"
	defaultAuthAudience    = "mastergate-api"
	defaultTokenTTLMinutes = 30

	defaultAnalysisTimeoutSeconds = 300
	defaultEncodeTimeoutSeconds   = 300

	defaultMaxTruePeakDBTP     = -1.0
	defaultMaxIntegratedLUFS   = -14.0
	defaultMaxClippedSamples   = 0
	defaultMinLoudnessRangeLU  = 1.0
	defaultMinCrestFactorDB    = 3.0
	defaultSilenceNoiseFloorDB = -60.0
	defaultMinSilenceSeconds   = 2.0
	defaultStaleProcessingSecs = 600

	defaultAACBitrateKbps         = 128
	defaultMP3BitrateKbps         = 128
	defaultOversHighThreshold     = 10
	defaultOversModerateThreshold = 2
	defaultHeadroomHighDB         = 1.0
	defaultHeadroomModerateDB     = 0.3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			AudioDir: defaultAudioDir,
			APIBind:  defaultAPIBind,
		},
		Auth: Auth{
			Issuer:          defaultAuthIssuer,
			Audience:        defaultAuthAudience,
			TokenTTLMinutes: defaultTokenTTLMinutes,
		},
		Tools: Tools{
			FFmpegBinary:           "ffmpeg",
			FFprobeBinary:          "ffprobe",
			AnalysisTimeoutSeconds: defaultAnalysisTimeoutSeconds,
			EncodeTimeoutSeconds:   defaultEncodeTimeoutSeconds,
		},
		Gate: Gate{
			MaxTruePeakDBTP:     defaultMaxTruePeakDBTP,
			MaxIntegratedLUFS:   defaultMaxIntegratedLUFS,
			MaxClippedSamples:   defaultMaxClippedSamples,
			MinLoudnessRangeLU:  defaultMinLoudnessRangeLU,
			MinCrestFactorDB:    defaultMinCrestFactorDB,
			SilenceNoiseFloorDB: defaultSilenceNoiseFloorDB,
			MinSilenceSeconds:   defaultMinSilenceSeconds,
			StaleProcessingSecs: defaultStaleProcessingSecs,
		},
		Simulation: Simulation{
			AACBitrateKbps:         defaultAACBitrateKbps,
			MP3BitrateKbps:         defaultMP3BitrateKbps,
			OversHighThreshold:     defaultOversHighThreshold,
			OversModerateThreshold: defaultOversModerateThreshold,
			HeadroomHighDB:         defaultHeadroomHighDB,
			HeadroomModerateDB:     defaultHeadroomModerateDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
