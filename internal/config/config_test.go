package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("logging defaults = %q/%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.StateDBPath != "cartiq.db" {
		t.Errorf("StateDBPath = %q", cfg.StateDBPath)
	}
	if cfg.PageSize != 15 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.Currency != "INR" {
		t.Errorf("Currency = %q", cfg.Currency)
	}
	if cfg.Events.QueueSize != 256 || cfg.Events.RPS != 0 || cfg.Events.Burst != 10 {
		t.Errorf("Events = %+v", cfg.Events)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "cartiq" || cfg.OTEL.SampleRatio != 1.0 {
		t.Errorf("OTEL = %+v", cfg.OTEL)
	}
}

func TestLoadOverridesAndNormalization(t *testing.T) {
	t.Setenv("CARTIQ_API_URL", "https://shop.example.com/")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("EVENT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://shop.example.com" {
		t.Errorf("APIURL = %q; want trailing slash stripped", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warning normalized to warn", cfg.LogLevel)
	}
	if !cfg.LogPretty {
		t.Error("LogPretty = false")
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.Currency != "USD" {
		t.Errorf("Currency = %q; want uppercased", cfg.Currency)
	}
	if cfg.Events.RPS != 2.5 {
		t.Errorf("Events.RPS = %v", cfg.Events.RPS)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		key, val, wantSub string
	}{
		{"LOG_LEVEL", "loud", "LOG_LEVEL"},
		{"CARTIQ_API_URL", "shop.example.com", "CARTIQ_API_URL"},
		{"HTTP_TIMEOUT", "-1s", "HTTP_TIMEOUT"},
		{"PAGE_SIZE", "0", "PAGE_SIZE"},
		{"CURRENCY", "RUPEES", "CURRENCY"},
		{"EVENT_QUEUE_SIZE", "0", "EVENT_QUEUE_SIZE"},
		{"EVENT_RPS", "-1", "EVENT_RPS"},
		{"EVENT_BURST", "0", "EVENT_BURST"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("Load() error = %v; want mention of %s", err, tc.wantSub)
			}
		})
	}
}

func TestMustLoadPanics(t *testing.T) {
	t.Setenv("LOG_LEVEL", "bogus")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad did not panic on invalid config")
		}
	}()
	MustLoad()
}
