// Package config loads the daemon settings file. The schema uses pointer
// fields so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings is the root settings schema. All fields are optional in the JSON
// file; command line flags may override individual values after loading.
type Settings struct {
	// HTTP server
	ListenAddr *string `json:"listen_addr,omitempty"`

	// Persistence
	DataDir      *string `json:"data_dir,omitempty"`
	ConfigFile   *string `json:"config_file,omitempty"`
	SnapshotDB   *string `json:"snapshot_db,omitempty"`
	SnapshotKeep *int    `json:"snapshot_keep,omitempty"`

	// Point cloud stream
	StreamURL   *string  `json:"stream_url,omitempty"`
	Boundary    *string  `json:"boundary,omitempty"`
	FrameRate   *float64 `json:"frame_rate,omitempty"`
	ReplayLoop  *bool    `json:"replay_loop,omitempty"`
	RecordPath  *string  `json:"record_path,omitempty"`
	SerialPort  *string  `json:"serial_port,omitempty"`
	StatsWindow *int     `json:"stats_window,omitempty"`

	// Rendering
	BEVSize   *int     `json:"bev_size,omitempty"`
	BEVExtent *float64 `json:"bev_extent,omitempty"`

	// Analysis
	TriggerLocation *string `json:"trigger_location,omitempty"`
	EventLogSize    *int    `json:"event_log_size,omitempty"`

	// Operations
	LogInterval *string `json:"log_interval,omitempty"` // duration string like "1m"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySettings returns a Settings with all fields set to nil, so every
// accessor falls back to its default.
func EmptySettings() *Settings {
	return &Settings{}
}

// LoadSettings loads Settings from a JSON file. The file is validated to
// have a .json extension and to be under the max file size. Fields omitted
// from the JSON keep their defaults, so partial files are safe.
func LoadSettings(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("settings file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	cfg := EmptySettings()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// Validate checks that the settings values are usable.
func (c *Settings) Validate() error {
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}
	if c.StatsWindow != nil && *c.StatsWindow < 1 {
		return fmt.Errorf("stats_window must be at least 1, got %d", *c.StatsWindow)
	}
	if c.BEVSize != nil && *c.BEVSize < 1 {
		return fmt.Errorf("bev_size must be at least 1, got %d", *c.BEVSize)
	}
	if c.BEVExtent != nil && *c.BEVExtent <= 0 {
		return fmt.Errorf("bev_extent must be positive, got %f", *c.BEVExtent)
	}
	if c.SnapshotKeep != nil && *c.SnapshotKeep < 0 {
		return fmt.Errorf("snapshot_keep must not be negative, got %d", *c.SnapshotKeep)
	}
	if c.EventLogSize != nil && *c.EventLogSize < 1 {
		return fmt.Errorf("event_log_size must be at least 1, got %d", *c.EventLogSize)
	}
	if c.LogInterval != nil && *c.LogInterval != "" {
		if _, err := time.ParseDuration(*c.LogInterval); err != nil {
			return fmt.Errorf("invalid log_interval '%s': %w", *c.LogInterval, err)
		}
	}
	if c.TriggerLocation != nil && *c.TriggerLocation != "" {
		switch *c.TriggerLocation {
		case "center", "top_center", "bottom_center":
		default:
			return fmt.Errorf("invalid trigger_location %q (want center, top_center or bottom_center)", *c.TriggerLocation)
		}
	}
	return nil
}

// GetListenAddr returns the listen address or the default.
func (c *Settings) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":5000" // default, matches the original backend port
	}
	return *c.ListenAddr
}

// GetDataDir returns the working data directory or the default.
func (c *Settings) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "./temp" // default
	}
	return *c.DataDir
}

// GetConfigFile returns the annotation config file name or the default.
// The name is resolved inside the data directory.
func (c *Settings) GetConfigFile() string {
	if c.ConfigFile == nil || *c.ConfigFile == "" {
		return "lane_config.json" // default
	}
	return *c.ConfigFile
}

// GetSnapshotDB returns the snapshot database path or the default.
func (c *Settings) GetSnapshotDB() string {
	if c.SnapshotDB == nil || *c.SnapshotDB == "" {
		return "snapshots.db" // default
	}
	return *c.SnapshotDB
}

// GetSnapshotKeep returns how many snapshots to retain or the default.
func (c *Settings) GetSnapshotKeep() int {
	if c.SnapshotKeep == nil {
		return 50 // default
	}
	return *c.SnapshotKeep
}

// GetStreamURL returns the point cloud stream URL. Empty means no source is
// configured at startup.
func (c *Settings) GetStreamURL() string {
	if c.StreamURL == nil {
		return ""
	}
	return *c.StreamURL
}

// GetBoundary returns the multipart boundary marker or the default.
func (c *Settings) GetBoundary() string {
	if c.Boundary == nil || *c.Boundary == "" {
		return "--frame\r\n" // default, the stream protocol marker
	}
	return *c.Boundary
}

// GetFrameRate returns the replay frame rate or the default.
func (c *Settings) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 20.0 // default
	}
	return *c.FrameRate
}

// GetReplayLoop reports whether file replay should loop or the default.
func (c *Settings) GetReplayLoop() bool {
	if c.ReplayLoop == nil {
		return false // default: play a recording once
	}
	return *c.ReplayLoop
}

// GetRecordPath returns the recording target path. Empty means recording is
// disabled.
func (c *Settings) GetRecordPath() string {
	if c.RecordPath == nil {
		return ""
	}
	return *c.RecordPath
}

// GetSerialPort returns the serial port name. Empty means no serial source.
func (c *Settings) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

// GetStatsWindow returns the frame stats window size or the default.
func (c *Settings) GetStatsWindow() int {
	if c.StatsWindow == nil {
		return 300 // default
	}
	return *c.StatsWindow
}

// GetBEVSize returns the BEV canvas size in pixels or the default.
func (c *Settings) GetBEVSize() int {
	if c.BEVSize == nil {
		return 800 // default
	}
	return *c.BEVSize
}

// GetBEVExtent returns the BEV world half-extent in meters or the default.
func (c *Settings) GetBEVExtent() float64 {
	if c.BEVExtent == nil {
		return 60.0 // default
	}
	return *c.BEVExtent
}

// GetTriggerLocation returns the lane location mode name or the default.
func (c *Settings) GetTriggerLocation() string {
	if c.TriggerLocation == nil || *c.TriggerLocation == "" {
		return "center" // default
	}
	return *c.TriggerLocation
}

// GetEventLogSize returns the analysis event ring size or the default.
func (c *Settings) GetEventLogSize() int {
	if c.EventLogSize == nil {
		return 100 // default
	}
	return *c.EventLogSize
}

// GetLogInterval parses and returns the LogInterval as a time.Duration.
func (c *Settings) GetLogInterval() time.Duration {
	if c.LogInterval == nil || *c.LogInterval == "" {
		return time.Minute // default
	}
	d, err := time.ParseDuration(*c.LogInterval)
	if err != nil {
		return time.Minute // default on parse error
	}
	return d
}
