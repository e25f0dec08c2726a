//go:build pcap
// +build pcap

// Command pcap-replay feeds UDP payloads from a packet capture through the
// stream decoder and reports what the capture contains. With -o it also
// writes the decoded frames back out as a multipart recording, turning a
// network capture into a file the daemon can replay directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

func main() {
	pcapFile := flag.String("pcap", "", "Path to PCAP file (required)")
	udpPort := flag.Int("port", 2368, "UDP port carrying the point stream")
	output := flag.String("o", "", "Write decoded frames to this recording (optional)")
	flag.Parse()

	if *pcapFile == "" {
		fmt.Fprintln(os.Stderr, "Error: PCAP file is required")
		flag.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(*pcapFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: PCAP file not found: %s\n", *pcapFile)
		os.Exit(1)
	}

	var rec *pointcloud.Recorder
	if *output != "" {
		var err error
		rec, err = pointcloud.NewRecorder(*output)
		if err != nil {
			log.Fatalf("Failed to create recording: %v", err)
		}
	}

	stats := pointcloud.NewStreamStats(0)
	decoder := pointcloud.NewStreamDecoder(pointcloud.DecoderConfig{
		Stats: stats,
		Sink: func(f *pointcloud.Frame) {
			if rec != nil {
				rec.HandleFrame(f)
			}
		},
	})

	startTime := time.Now()
	if err := pointcloud.ReadPCAPFile(context.Background(), *pcapFile, *udpPort, decoder.Feed); err != nil {
		log.Fatalf("Failed to read PCAP: %v", err)
	}
	// A lone trailing marker closes out the capture's final frame.
	decoder.Feed([]byte(pointcloud.DefaultBoundary))

	printSummary(*pcapFile, stats.Summarize(), time.Since(startTime))

	if rec != nil {
		// Write errors are deferred to Close, so check it before claiming success.
		if err := rec.Close(); err != nil {
			log.Fatalf("Failed to finalise recording: %v", err)
		}
		fmt.Printf("Recording: %s (%d frames)\n", rec.Path(), rec.Frames())
	}
}

func printSummary(path string, sum pointcloud.Summary, elapsed time.Duration) {
	fmt.Println("\n========== PCAP Replay Summary ==========")
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Processing time: %d ms\n", elapsed.Milliseconds())
	fmt.Println()
	fmt.Printf("Frames: %d\n", sum.TotalFrames)
	fmt.Printf("Points: %d\n", sum.TotalPoints)
	fmt.Printf("Payload bytes: %d\n", sum.TotalBytes)
	if sum.WindowFrames > 0 {
		fmt.Printf("Points per frame: mean=%.0f p50=%.0f p90=%.0f p99=%.0f (n=%d)\n",
			sum.MeanPoints, sum.P50Points, sum.P90Points, sum.P99Points, sum.WindowFrames)
	}
	if sum.DroppedSections > 0 || sum.DiscardedBytes > 0 || sum.TruncatedBytes > 0 {
		fmt.Printf("Defects: %d sections dropped, %d bytes discarded, %d bytes truncated\n",
			sum.DroppedSections, sum.DiscardedBytes, sum.TruncatedBytes)
	}
	fmt.Println("=========================================")
}
