// Command replay-server serves a recorded point stream over HTTP.
//
// This tool loads a multipart recording and streams it from /points, so a
// daemon or viewer can connect with -stream-url and play back the capture.
//
// Usage:
//
//	go run ./cmd/tools/replay-server [flags]
//
// Flags:
//
//	-addr   Listen address (default: localhost:8090)
//	-log    Path to the recording to replay (required)
//	-fps    Playback frame rate (default: 20)
//	-loop   Loop playback when reaching end (default: false)
package main

import (
	"bytes"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

func main() {
	addr := flag.String("addr", "localhost:8090", "Listen address")
	logPath := flag.String("log", "", "Path to the recording to replay (required)")
	fps := flag.Float64("fps", 20, "Playback frame rate")
	loop := flag.Bool("loop", false, "Loop playback when reaching end")
	flag.Parse()

	if *logPath == "" {
		log.Fatal("Error: -log flag is required")
	}

	log.Printf("Starting replay server on %s", *addr)
	log.Printf("Log file: %s", *logPath)

	data, err := os.ReadFile(*logPath)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	sections := bytes.Count(data, []byte(pointcloud.DefaultBoundary))
	if sections == 0 {
		log.Fatalf("No %q sections in %s", pointcloud.DefaultBoundary, *logPath)
	}
	log.Printf("Log info: %d frames, %d bytes, %.2f seconds at %.1f fps",
		sections, len(data), float64(sections) / *fps, *fps)

	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Cache-Control", "no-store")

		log.Printf("client %s connected", r.RemoteAddr)
		defer log.Printf("client %s disconnected", r.RemoteAddr)

		src := pointcloud.NewFileSource(pointcloud.FileSourceConfig{
			Path: *logPath,
			FPS:  *fps,
			Loop: *loop,
		})
		err := src.Stream(r.Context(), func(section []byte) {
			w.Write(section)
			flusher.Flush()
		})
		if err != nil && r.Context().Err() == nil {
			log.Printf("replay to %s failed: %v", r.RemoteAddr, err)
		}
	})

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	log.Printf("Server ready, waiting for connections...")
	log.Printf("Connect a daemon with -stream-url http://%s/points to start replay", *addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("Shutting down...")
	server.Close()
}
