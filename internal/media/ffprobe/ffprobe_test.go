package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", SampleRate: "48000", Channels: 2},
			{CodecType: "audio", SampleRate: "44100", Channels: 1},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.SampleRateHz() != 48000 {
		t.Fatalf("unexpected sample rate: %d", result.SampleRateHz())
	}
	if result.ChannelCount() != 2 {
		t.Fatalf("unexpected channel count: %d", result.ChannelCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersWithoutAudio(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.AudioStreamCount() != 0 {
		t.Fatalf("expected no audio streams, got %d", result.AudioStreamCount())
	}
	if _, ok := result.PrimaryAudioStream(); ok {
		t.Fatal("expected no primary audio stream")
	}
	if result.SampleRateHz() != 0 || result.ChannelCount() != 0 {
		t.Fatal("expected zero audio metadata without audio streams")
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
