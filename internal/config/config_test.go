package config

import (
	"testing"
	"time"
)

func TestDefaultReadsEnvironment(t *testing.T) {
	t.Setenv("INTERVIEW_API_URL", "https://coach.example.com")
	t.Setenv("INTERVIEW_API_TOKEN", "abc")
	t.Setenv("INTERVIEW_DEBUG", "true")
	t.Setenv("INTERVIEW_HTTP_TIMEOUT", "5s")
	t.Setenv("INTERVIEW_EMOTION_INTERVAL", "not-a-duration")

	cfg := Default()

	if cfg.APIBaseURL != "https://coach.example.com" || cfg.Token != "abc" {
		t.Fatalf("unexpected backend settings %+v", cfg)
	}
	if !cfg.Debug {
		t.Errorf("expected debug from environment")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.EmotionEvery != 3*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.EmotionEvery)
	}
	if cfg.QuestionReveal != QuestionRevealInterval || cfg.FeedbackReveal != FeedbackRevealInterval {
		t.Errorf("unexpected reveal intervals %v %v", cfg.QuestionReveal, cfg.FeedbackReveal)
	}
}

func TestDefaultFallbacks(t *testing.T) {
	t.Setenv("INTERVIEW_API_URL", "")
	t.Setenv("INTERVIEW_DEBUG", "maybe")

	cfg := Default()

	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Debug {
		t.Errorf("unparseable bool should fall back to false")
	}
	if cfg.TokenFile == "" {
		t.Errorf("expected a default token file")
	}
}

func TestDefaultRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("INTERVIEW_EMOTION_INTERVAL", "0s")
	t.Setenv("INTERVIEW_HTTP_TIMEOUT", "-5s")

	cfg := Default()

	if cfg.EmotionEvery != 3*time.Second {
		t.Errorf("zero interval should fall back to default, got %v", cfg.EmotionEvery)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("negative timeout should fall back to default, got %v", cfg.HTTPTimeout)
	}
}
