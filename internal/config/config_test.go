package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("got %+v, want %+v", cfg, want)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"listen_addr", cfg.ListenAddr, "127.0.0.1:8000"},
		{"template_dir", cfg.TemplateDir, "static/media"},
		{"minions_path", cfg.MinionsPath, "data/bgs/minions.json"},
		{"heroes_path", cfg.HeroesPath, "data/bgs/heroes.json"},
		{"threshold", cfg.Recognition.Threshold, 0.6},
		{"shop_slots", cfg.Recognition.ShopSlots, 7},
		{"normal_interval", cfg.Schedule.NormalInterval, 100 * time.Millisecond},
		{"failure_backoff", cfg.Schedule.FailureBackoff, time.Second},
		{"write_timeout", cfg.Delivery.WriteTimeout, time.Duration(0)},
		{"mcp_stdio", cfg.MCPStdio, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
	if !reflect.DeepEqual(cfg.Recognition.Scales, []float64{0.8, 0.9, 1.0, 1.1, 1.2}) {
		t.Errorf("scales: got %v", cfg.Recognition.Scales)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen_addr: 0.0.0.0:9000
log_level: debug
log_format: json
frame_dir: /tmp/frames
mcp_stdio: true
recognition:
  threshold: 0.75
  shop_slots: 6
  scales: [1.0, 0.9]
schedule:
  normal_interval: 250ms
  failure_backoff: 3s
delivery:
  write_timeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" || cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("top-level: got %+v", cfg)
	}
	if !cfg.MCPStdio || cfg.FrameDir != "/tmp/frames" {
		t.Errorf("mcp_stdio/frame_dir: got %v/%s", cfg.MCPStdio, cfg.FrameDir)
	}
	if cfg.Recognition.Threshold != 0.75 || cfg.Recognition.ShopSlots != 6 {
		t.Errorf("recognition: got %+v", cfg.Recognition)
	}
	if !reflect.DeepEqual(cfg.Recognition.Scales, []float64{1.0, 0.9}) {
		t.Errorf("scales: got %v", cfg.Recognition.Scales)
	}
	if cfg.Schedule.NormalInterval != 250*time.Millisecond || cfg.Schedule.FailureBackoff != 3*time.Second {
		t.Errorf("schedule: got %+v", cfg.Schedule)
	}
	if cfg.Delivery.WriteTimeout != 2*time.Second {
		t.Errorf("write_timeout: got %v", cfg.Delivery.WriteTimeout)
	}
	// Unset keys keep their defaults.
	if cfg.TemplateDir != "static/media" {
		t.Errorf("template_dir: got %s", cfg.TemplateDir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "listen_addr: 0.0.0.0:9000\nrecognition:\n  shop_slots: 6\n")
	t.Setenv("TAVERN_WATCH_LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("TAVERN_WATCH_RECOGNITION_THRESHOLD", "0.8")
	t.Setenv("TAVERN_WATCH_RECOGNITION_SCALES", "0.5,1.0")
	t.Setenv("TAVERN_WATCH_SCHEDULE_FAILURE_BACKOFF", "5s")
	t.Setenv("TAVERN_WATCH_MCP_STDIO", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:7000" {
		t.Errorf("listen_addr: got %s", cfg.ListenAddr)
	}
	if cfg.Recognition.ShopSlots != 6 {
		t.Errorf("shop_slots from file: got %d", cfg.Recognition.ShopSlots)
	}
	if cfg.Recognition.Threshold != 0.8 {
		t.Errorf("threshold: got %v", cfg.Recognition.Threshold)
	}
	if !reflect.DeepEqual(cfg.Recognition.Scales, []float64{0.5, 1.0}) {
		t.Errorf("scales: got %v", cfg.Recognition.Scales)
	}
	if cfg.Schedule.FailureBackoff != 5*time.Second || !cfg.MCPStdio {
		t.Errorf("backoff/mcp: got %v/%v", cfg.Schedule.FailureBackoff, cfg.MCPStdio)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad yaml", "listen_addr: [", "parse config"},
		{"threshold too high", "recognition:\n  threshold: 1.5\n", "recognition.threshold"},
		{"explicit zero threshold", "recognition:\n  threshold: 0\n", "recognition.threshold"},
		{"zero shop slots", "recognition:\n  shop_slots: 0\n", "shop_slots"},
		{"empty scales", "recognition:\n  scales: []\n", "recognition.scales"},
		{"zero interval", "schedule:\n  normal_interval: 0s\n", "normal_interval"},
		{"negative slots", "recognition:\n  shop_slots: -2\n", "shop_slots"},
		{"negative scale", "recognition:\n  scales: [1.0, -0.5]\n", "recognition.scales[1]"},
		{"negative interval", "schedule:\n  normal_interval: -1s\n", "normal_interval"},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"bad log format", "log_format: xml\n", "log_format"},
		{"negative write timeout", "delivery:\n  write_timeout: -1s\n", "write_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q): got %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"service":"tavern-watch"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
