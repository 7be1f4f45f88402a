package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/island/config"
)

func durationFlag(d time.Duration) *time.Duration { return &d }

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name        string
		duration    *time.Duration
		interval    time.Duration
		wantDur     time.Duration
		wantIvl     time.Duration
		wantTimeout time.Duration
	}{
		{"no overrides", nil, 0, 10 * time.Second, time.Second, 500 * time.Millisecond},
		{"run until interrupted", durationFlag(0), 0, 0, time.Second, 500 * time.Millisecond},
		{"longer interval keeps timeout", durationFlag(3 * time.Second), 2 * time.Second, 3 * time.Second, 2 * time.Second, 500 * time.Millisecond},
		{"shorter interval halves timeout", nil, 200 * time.Millisecond, 10 * time.Second, 200 * time.Millisecond, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("")
			if err != nil {
				t.Fatal(err)
			}
			if err := applyOverrides(cfg, tt.duration, tt.interval, "", ""); err != nil {
				t.Fatalf("applyOverrides error: %v", err)
			}
			if cfg.Schedule.Duration != tt.wantDur {
				t.Errorf("duration = %s, want %s", cfg.Schedule.Duration, tt.wantDur)
			}
			if cfg.Schedule.Interval != tt.wantIvl {
				t.Errorf("interval = %s, want %s", cfg.Schedule.Interval, tt.wantIvl)
			}
			if cfg.Schedule.BehaviorTimeout != tt.wantTimeout {
				t.Errorf("timeout = %s, want %s", cfg.Schedule.BehaviorTimeout, tt.wantTimeout)
			}
		})
	}
}

func TestApplyOverridesRejectsBadFormat(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := applyOverrides(cfg, nil, 0, "xml", ""); err == nil {
		t.Error("expected an error for log format xml")
	}
}

func TestApplyOverridesRejectsNegativeDuration(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := applyOverrides(cfg, durationFlag(-time.Second), 0, "", ""); err == nil {
		t.Error("expected an error for duration -1s")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Format: "json", Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("output is not one JSON line: %q", out)
	}
	if line["msg"] != "shown" {
		t.Errorf("msg = %v, want shown", line["msg"])
	}

	if _, err := newLogger(&buf, config.LogConfig{Format: "text", Level: "loud"}); err == nil {
		t.Error("expected an error for level loud")
	}
}
