package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/virtualloop/internal/analysis"
	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/api"
	"github.com/banshee-data/virtualloop/internal/config"
	"github.com/banshee-data/virtualloop/internal/configstore"
	"github.com/banshee-data/virtualloop/internal/fsutil"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
	"github.com/banshee-data/virtualloop/internal/render"
	"github.com/banshee-data/virtualloop/internal/version"
)

var (
	settingsPath = flag.String("config", "", "path to the daemon settings JSON file (default: app_config.json if present)")
	listen       = flag.String("listen", "", "HTTP listen address (overrides settings)")
	dataDir      = flag.String("data-dir", "", "working directory for configs and recordings (overrides settings)")
	dbPath       = flag.String("db", "", "snapshot history database file, resolved in the data directory (overrides settings)")
	streamURL    = flag.String("stream-url", "", "point stream URL to connect at startup (overrides settings)")
	serialPort   = flag.String("serial", "", "serial port to stream from instead of HTTP (overrides settings)")
	replayFile   = flag.String("replay", "", "recorded stream to replay instead of a live source")
	replayLoop   = flag.Bool("replay-loop", false, "restart the replay at EOF (overrides settings)")
	recordPath   = flag.String("record", "", "write the decoded stream to this recording (overrides settings)")
	logInterval  = flag.Duration("log-interval", 0, "stream statistics logging interval (overrides settings)")
	devMode      = flag.Bool("dev", false, "Run in dev mode")
)

// defaultSettingsPath is probed when no -config flag is given; a missing
// file there just means built-in defaults.
const defaultSettingsPath = "app_config.json"

// formatWithCommas formats a number with thousands separators
func formatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}

func loadSettings() *config.Settings {
	if *settingsPath != "" {
		s, err := config.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		log.Printf("Loaded settings from %s", *settingsPath)
		return s
	}

	if !fsutil.Exists(defaultSettingsPath) {
		return config.EmptySettings()
	}
	s, err := config.LoadSettings(defaultSettingsPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", defaultSettingsPath, err)
	}
	log.Printf("Loaded settings from %s", defaultSettingsPath)
	return s
}

// applyFlagOverrides copies explicitly-set flags over the file-provided
// settings. Flags left at their defaults never mask file values.
func applyFlagOverrides(s *config.Settings) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			s.ListenAddr = listen
		case "data-dir":
			s.DataDir = dataDir
		case "db":
			s.SnapshotDB = dbPath
		case "stream-url":
			s.StreamURL = streamURL
		case "serial":
			s.SerialPort = serialPort
		case "replay-loop":
			s.ReplayLoop = replayLoop
		case "record":
			s.RecordPath = recordPath
		case "log-interval":
			v := logInterval.String()
			s.LogInterval = &v
		}
	})
	if err := s.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
}

// restoreConfig seeds the editor and matcher at boot: the active config file
// wins; with no file yet, the newest history snapshot is tried before
// starting empty.
func restoreConfig(editor *annotation.Editor, matcher *analysis.TriggerMatcher, files *configstore.FileStore, snapshots *configstore.Store) {
	doc, err := files.Load()
	switch {
	case err == nil:
		log.Printf("Loaded annotation config from %s", files.Path())
	case errors.Is(err, configstore.ErrNotFound):
		doc, err = snapshots.RestoreLatest()
		if errors.Is(err, configstore.ErrNotFound) {
			log.Print("No annotation config yet; starting empty")
			return
		}
		if err != nil {
			log.Fatalf("Failed to restore config from history: %v", err)
		}
		log.Print("Restored annotation config from the newest history snapshot")
	default:
		log.Fatalf("Failed to load annotation config: %v", err)
	}

	editor.Deserialize(doc)
	matcher.SetAnnotations(editor.Serialize())
}

// selectSource picks the boot-time stream source: dev mode wins, then an
// explicit replay, then a serial port, then a stream URL. With none of those
// the decoder stays idle until /api/stream/start.
func selectSource(s *config.Settings) (pointcloud.Source, string) {
	if *devMode {
		gen := pointcloud.NewSyntheticGenerator(0)
		src := pointcloud.NewSyntheticSource(gen, s.GetFrameRate())
		return src, "synthetic generator (dev mode)"
	}
	if *replayFile != "" {
		src := pointcloud.NewFileSource(pointcloud.FileSourceConfig{
			Path:     *replayFile,
			Boundary: s.GetBoundary(),
			FPS:      s.GetFrameRate(),
			Loop:     s.GetReplayLoop(),
		})
		return src, fmt.Sprintf("recording %s", *replayFile)
	}
	if port := s.GetSerialPort(); port != "" {
		src := pointcloud.NewSerialSource(pointcloud.SerialSourceConfig{Port: port})
		return src, fmt.Sprintf("serial port %s", port)
	}
	if url := s.GetStreamURL(); url != "" {
		return pointcloud.NewHTTPSource(url), url
	}
	return nil, ""
}

func logStreamStats(snap pointcloud.IntervalSnapshot) {
	secs := snap.Duration.Seconds()
	if secs <= 0 {
		return
	}
	kbPerSec := float64(snap.Bytes) / secs / 1024
	framesPerSec := float64(snap.Frames) / secs
	pointsPerSec := int64(float64(snap.Points) / secs)

	logMsg := fmt.Sprintf("Stream stats (/sec): %.1f KB, %.1f frames, %s points",
		kbPerSec, framesPerSec, formatWithCommas(pointsPerSec))
	if snap.DroppedSections > 0 {
		logMsg += fmt.Sprintf(", %d sections dropped", snap.DroppedSections)
	}
	if snap.DiscardedBytes > 0 {
		logMsg += fmt.Sprintf(", %d bytes discarded", snap.DiscardedBytes)
	}
	log.Print(logMsg)
}

// Main
func main() {
	flag.Parse()

	log.Printf("virtualloop %s starting", version.String())

	settings := loadSettings()
	applyFlagOverrides(settings)

	workDir := settings.GetDataDir()
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %s: %v", workDir, err)
	}

	files, err := configstore.NewFileStore(workDir, settings.GetConfigFile())
	if err != nil {
		log.Fatalf("Failed to open config store: %v", err)
	}
	snapshots, err := configstore.Open(filepath.Join(workDir, settings.GetSnapshotDB()))
	if err != nil {
		log.Fatalf("Failed to open snapshot database: %v", err)
	}
	defer snapshots.Close()

	location, err := analysis.ParseLocationMode(settings.GetTriggerLocation())
	if err != nil {
		log.Fatalf("Invalid trigger location: %v", err)
	}

	editor := annotation.NewEditor()
	matcher := analysis.NewTriggerMatcher(analysis.MatcherConfig{
		Location:     location,
		EventLogSize: settings.GetEventLogSize(),
	})
	restoreConfig(editor, matcher, files, snapshots)

	holder := render.NewFrameHolder()
	fanout := render.NewFanout()
	fanout.Add(holder.HandleFrame)

	var recorder *pointcloud.Recorder
	if path := settings.GetRecordPath(); path != "" {
		recorder, err = pointcloud.NewRecorder(path)
		if err != nil {
			log.Fatalf("Failed to open recording %s: %v", path, err)
		}
		fanout.Add(recorder.HandleFrame)
		log.Printf("Recording decoded frames to %s", path)
	}

	stats := pointcloud.NewStreamStats(settings.GetStatsWindow())
	decoder := pointcloud.NewStreamDecoder(pointcloud.DecoderConfig{
		Boundary: settings.GetBoundary(),
		Sink:     fanout.HandleFrame,
		Stats:    stats,
	})

	var cleanupOnce sync.Once
	cleanup := func() error {
		var err error
		cleanupOnce.Do(func() {
			if recorder == nil {
				return
			}
			log.Printf("Closing recording %s after %d frames", recorder.Path(), recorder.Frames())
			err = recorder.Close()
		})
		return err
	}

	srv := api.NewServer(api.Config{
		Editor:       editor,
		Files:        files,
		Snapshots:    snapshots,
		SnapshotKeep: settings.GetSnapshotKeep(),
		Decoder:      decoder,
		Holder:       holder,
		BEV:          render.NewBEVRenderer(settings.GetBEVSize(), settings.GetBEVExtent()),
		Matcher:      matcher,
		Cleanup:      cleanup,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if src, desc := selectSource(settings); src != nil {
		if err := decoder.Start(ctx, src); err != nil {
			log.Fatalf("Failed to start stream: %v", err)
		}
		log.Printf("Streaming from %s", desc)
	} else {
		log.Print("No stream source configured; waiting for /api/stream/start")
	}

	var wg sync.WaitGroup

	// Periodic stream statistics
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(settings.GetLogInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := stats.GetAndReset()
				if snap.Frames == 0 && snap.Bytes == 0 {
					continue
				}
				logStreamStats(snap)
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := srv.ServeMux()
		snapshots.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    settings.GetListenAddr(),
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Starting HTTP server on %s", settings.GetListenAddr())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	decoder.Stop()
	if err := cleanup(); err != nil {
		log.Printf("Failed to close recording: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
