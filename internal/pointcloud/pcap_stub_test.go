//go:build !pcap
// +build !pcap

package pointcloud

import (
	"context"
	"strings"
	"testing"
)

func TestReadPCAPFileStub(t *testing.T) {
	err := ReadPCAPFile(context.Background(), "capture.pcap", 2368, func([]byte) {})
	if err == nil {
		t.Fatal("expected error from stub implementation")
	}
	if !strings.Contains(err.Error(), "PCAP support not enabled") {
		t.Errorf("unexpected stub error: %v", err)
	}
}
