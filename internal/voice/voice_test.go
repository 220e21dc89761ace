package voice_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"reelcast/internal/services"
	"reelcast/internal/services/elevenlabs"
	"reelcast/internal/voice"
)

type stubSynth struct {
	configured bool
	calls      int
	voiceIDs   []string
	settings   []elevenlabs.VoiceSettings
	audio      []byte
	err        error
}

func (s *stubSynth) Configured() bool { return s.configured }

func (s *stubSynth) Synthesize(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) ([]byte, error) {
	s.calls++
	s.voiceIDs = append(s.voiceIDs, voiceID)
	s.settings = append(s.settings, settings)
	return s.audio, s.err
}

func (s *stubSynth) Stream(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) (io.ReadCloser, error) {
	s.calls++
	return io.NopCloser(strings.NewReader("streamed")), nil
}

func (s *stubSynth) ListVoices(ctx context.Context) ([]elevenlabs.Voice, error) {
	return []elevenlabs.Voice{{VoiceID: "v1", Name: "One"}}, nil
}

func (s *stubSynth) GetVoice(ctx context.Context, id string) (elevenlabs.Voice, error) {
	return elevenlabs.Voice{VoiceID: id}, nil
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, audio []byte, contentType string) (string, error) {
	p.keys = append(p.keys, key)
	return "https://bucket/" + key + ".mp3", nil
}

func TestGenerateReturnsDataURLAndEstimatedDuration(t *testing.T) {
	synth := &stubSynth{configured: true, audio: []byte("ID3-bytes")}
	stage := voice.NewStage(synth, voice.Options{DefaultVoiceID: "default-voice", Settings: elevenlabs.DefaultVoiceSettings(), OutputFormat: "mp3_44100_128"})

	text := strings.TrimSpace(strings.Repeat("word ", 300))
	res, err := stage.Generate(context.Background(), text, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString([]byte("ID3-bytes"))
	if res.AudioURL != want {
		t.Fatalf("unexpected audio url %q", res.AudioURL)
	}
	if res.DurationSeconds != 120 {
		t.Fatalf("expected 120s estimate for 300 words, got %d", res.DurationSeconds)
	}
	if res.VoiceID != "default-voice" || synth.voiceIDs[0] != "default-voice" {
		t.Fatalf("expected fallback to default voice, got %+v", res)
	}
	if synth.settings[0] != elevenlabs.DefaultVoiceSettings() {
		t.Fatalf("unexpected settings %+v", synth.settings[0])
	}
}

func TestExplicitVoiceOverridesDefault(t *testing.T) {
	synth := &stubSynth{configured: true, audio: []byte("a")}
	stage := voice.NewStage(synth, voice.Options{DefaultVoiceID: "default-voice"})
	if _, err := stage.Generate(context.Background(), "hi", "cloned"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if synth.voiceIDs[0] != "cloned" {
		t.Fatalf("expected explicit voice, got %q", synth.voiceIDs[0])
	}
}

func TestConfigurationErrorsBeforeNetwork(t *testing.T) {
	noVoice := &stubSynth{configured: true}
	if _, err := voice.NewStage(noVoice, voice.Options{}).Generate(context.Background(), "hi", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing voice, got %v", err)
	}
	noKey := &stubSynth{configured: false}
	if _, err := voice.NewStage(noKey, voice.Options{DefaultVoiceID: "v"}).Generate(context.Background(), "hi", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing key, got %v", err)
	}
	if noVoice.calls+noKey.calls != 0 {
		t.Fatal("no provider call expected")
	}
}

func TestProviderFailureCalledOnce(t *testing.T) {
	boom := &services.UpstreamError{Provider: "elevenlabs", StatusCode: 422, Body: "text too long"}
	synth := &stubSynth{configured: true, err: boom}
	_, err := voice.NewStage(synth, voice.Options{DefaultVoiceID: "v"}).Generate(context.Background(), "hi", "")
	if !errors.Is(err, services.ErrUpstream) || !strings.Contains(err.Error(), "text too long") {
		t.Fatalf("expected upstream error with body, got %v", err)
	}
	if synth.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", synth.calls)
	}
}

func TestPublisherReceivesProjectKey(t *testing.T) {
	synth := &stubSynth{configured: true, audio: []byte("a")}
	pub := &recordingPublisher{}
	stage := voice.NewStage(synth, voice.Options{DefaultVoiceID: "v", Publisher: pub})
	ctx := services.WithProjectID(context.Background(), "proj_7")
	res, err := stage.Generate(ctx, "hi", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.AudioURL != "https://bucket/proj_7.mp3" || pub.keys[0] != "proj_7" {
		t.Fatalf("unexpected publish: %+v %v", res, pub.keys)
	}
}

func TestStreamAndContentType(t *testing.T) {
	synth := &stubSynth{configured: true}
	stage := voice.NewStage(synth, voice.Options{DefaultVoiceID: "v", OutputFormat: "pcm_24000"})
	body, contentType, err := stage.Stream(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "streamed" || contentType != "audio/pcm" {
		t.Fatalf("unexpected stream %q %q", data, contentType)
	}
}

func TestVoiceListing(t *testing.T) {
	stage := voice.NewStage(&stubSynth{configured: true}, voice.Options{})
	voices, err := stage.ListVoices(context.Background())
	if err != nil || len(voices) != 1 {
		t.Fatalf("ListVoices = %v, %v", voices, err)
	}
	if _, err := voice.NewStage(&stubSynth{}, voice.Options{}).ListVoices(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
