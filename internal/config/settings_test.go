package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/virtualloop/internal/testutil"
)

func TestEmptySettingsDefaults(t *testing.T) {
	cfg := EmptySettings()

	if cfg.GetListenAddr() != ":5000" {
		t.Errorf("GetListenAddr() = %q, want :5000", cfg.GetListenAddr())
	}
	if cfg.GetDataDir() != "./temp" {
		t.Errorf("GetDataDir() = %q, want ./temp", cfg.GetDataDir())
	}
	if cfg.GetConfigFile() != "lane_config.json" {
		t.Errorf("GetConfigFile() = %q, want lane_config.json", cfg.GetConfigFile())
	}
	if cfg.GetSnapshotDB() != "snapshots.db" {
		t.Errorf("GetSnapshotDB() = %q, want snapshots.db", cfg.GetSnapshotDB())
	}
	if cfg.GetSnapshotKeep() != 50 {
		t.Errorf("GetSnapshotKeep() = %d, want 50", cfg.GetSnapshotKeep())
	}
	if cfg.GetStreamURL() != "" {
		t.Errorf("GetStreamURL() = %q, want empty", cfg.GetStreamURL())
	}
	if cfg.GetBoundary() != "--frame\r\n" {
		t.Errorf("GetBoundary() = %q, want --frame CRLF", cfg.GetBoundary())
	}
	if cfg.GetFrameRate() != 20.0 {
		t.Errorf("GetFrameRate() = %f, want 20.0", cfg.GetFrameRate())
	}
	if cfg.GetReplayLoop() {
		t.Error("GetReplayLoop() = true, want false")
	}
	if cfg.GetStatsWindow() != 300 {
		t.Errorf("GetStatsWindow() = %d, want 300", cfg.GetStatsWindow())
	}
	if cfg.GetBEVSize() != 800 {
		t.Errorf("GetBEVSize() = %d, want 800", cfg.GetBEVSize())
	}
	if cfg.GetBEVExtent() != 60.0 {
		t.Errorf("GetBEVExtent() = %f, want 60.0", cfg.GetBEVExtent())
	}
	if cfg.GetTriggerLocation() != "center" {
		t.Errorf("GetTriggerLocation() = %q, want center", cfg.GetTriggerLocation())
	}
	if cfg.GetEventLogSize() != 100 {
		t.Errorf("GetEventLogSize() = %d, want 100", cfg.GetEventLogSize())
	}
	if cfg.GetLogInterval() != time.Minute {
		t.Errorf("GetLogInterval() = %v, want 1m", cfg.GetLogInterval())
	}
}

func TestLoadSettings(t *testing.T) {
	testJSON := `{
  "listen_addr": ":8080",
  "stream_url": "http://sensor.local/points",
  "frame_rate": 10,
  "replay_loop": true,
  "bev_extent": 40.5,
  "log_interval": "30s",
  "trigger_location": "bottom_center"
}`
	settingsPath := testutil.WriteTempFile(t, "app_config.json", []byte(testJSON))

	cfg, err := LoadSettings(settingsPath)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if cfg.ListenAddr == nil || *cfg.ListenAddr != ":8080" {
		t.Errorf("Expected ListenAddr :8080, got %v", cfg.ListenAddr)
	}
	if cfg.GetStreamURL() != "http://sensor.local/points" {
		t.Errorf("GetStreamURL() = %q", cfg.GetStreamURL())
	}
	if cfg.GetFrameRate() != 10 {
		t.Errorf("GetFrameRate() = %f, want 10", cfg.GetFrameRate())
	}
	if !cfg.GetReplayLoop() {
		t.Error("GetReplayLoop() = false, want true")
	}
	if cfg.GetBEVExtent() != 40.5 {
		t.Errorf("GetBEVExtent() = %f, want 40.5", cfg.GetBEVExtent())
	}
	if cfg.GetLogInterval() != 30*time.Second {
		t.Errorf("GetLogInterval() = %v, want 30s", cfg.GetLogInterval())
	}
	if cfg.GetTriggerLocation() != "bottom_center" {
		t.Errorf("GetTriggerLocation() = %q, want bottom_center", cfg.GetTriggerLocation())
	}

	// Fields absent from the file keep their defaults
	if cfg.GetBoundary() != "--frame\r\n" {
		t.Errorf("GetBoundary() = %q, want protocol default", cfg.GetBoundary())
	}
	if cfg.GetBEVSize() != 800 {
		t.Errorf("GetBEVSize() = %d, want default 800", cfg.GetBEVSize())
	}
}

func TestLoadSettingsRejectsBadFiles(t *testing.T) {
	// Wrong extension
	txtPath := testutil.WriteTempFile(t, "settings.txt", []byte("{}"))
	if _, err := LoadSettings(txtPath); err == nil {
		t.Error("expected error for non-.json extension")
	}

	// Missing file
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	// Malformed JSON
	badPath := testutil.WriteTempFile(t, "bad.json", []byte("{nope"))
	if _, err := LoadSettings(badPath); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  Settings
	}{
		{"zero frame rate", Settings{FrameRate: ptrFloat64(0)}},
		{"negative frame rate", Settings{FrameRate: ptrFloat64(-5)}},
		{"zero stats window", Settings{StatsWindow: ptrInt(0)}},
		{"zero bev size", Settings{BEVSize: ptrInt(0)}},
		{"negative bev extent", Settings{BEVExtent: ptrFloat64(-1)}},
		{"negative snapshot keep", Settings{SnapshotKeep: ptrInt(-1)}},
		{"zero event log size", Settings{EventLogSize: ptrInt(0)}},
		{"bad log interval", Settings{LogInterval: ptrString("soon")}},
		{"bad trigger location", Settings{TriggerLocation: ptrString("left_center")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted %s", tc.name)
			}
		})
	}
}

func TestValidateAcceptsPartialSettings(t *testing.T) {
	cfg := Settings{
		StreamURL:  ptrString("http://sensor.local/points"),
		FrameRate:  ptrFloat64(25),
		ReplayLoop: ptrBool(true),
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestGetLogIntervalFallsBackOnParseError(t *testing.T) {
	cfg := Settings{LogInterval: ptrString("")}
	if cfg.GetLogInterval() != time.Minute {
		t.Errorf("empty log_interval should fall back to 1m, got %v", cfg.GetLogInterval())
	}
}
