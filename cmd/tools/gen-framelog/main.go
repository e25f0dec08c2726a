// Command gen-framelog generates sample multipart recordings for testing replay.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

func main() {
	output := flag.String("o", "sample.framelog", "output path")
	frames := flag.Int("n", 100, "number of frames")
	seed := flag.Int64("seed", 1, "generator seed (0 for time-based)")
	flag.Parse()

	rec, err := pointcloud.NewRecorder(*output)
	if err != nil {
		log.Fatalf("Failed to create recording: %v", err)
	}

	gen := pointcloud.NewSyntheticGenerator(*seed)
	for i := 0; i < *frames; i++ {
		rec.HandleFrame(gen.NextFrame())
		if (i+1)%10 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	// Write errors are deferred to Close, so check it before claiming success.
	if err := rec.Close(); err != nil {
		log.Fatalf("Failed to finalise recording: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}
