//go:build !pcap
// +build !pcap

package main

import "log"

func main() {
	log.Fatal("PCAP support not enabled: rebuild with -tags=pcap to enable PCAP file reading")
}
