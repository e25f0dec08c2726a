package httputil

import (
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestMockHTTPClientQueuedResponses(t *testing.T) {
	client := NewMockHTTPClient()
	client.AddResponse(http.StatusOK, "--frame\r\n\r\n\r\n")
	client.AddResponse(http.StatusNotFound, "gone")

	resp, err := client.Get("http://camera.local/points")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "--frame\r\n\r\n\r\n" {
		t.Errorf("first response: %d %q", resp.StatusCode, body)
	}

	resp, err = client.Get("http://camera.local/points")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second response status = %d", resp.StatusCode)
	}

	if client.RequestCount() != 2 {
		t.Errorf("recorded %d requests, want 2", client.RequestCount())
	}
}

func TestMockHTTPClientErrorResponse(t *testing.T) {
	client := NewMockHTTPClient()
	client.AddErrorResponse(errors.New("connection refused"))

	if _, err := client.Get("http://camera.local/points"); err == nil {
		t.Fatal("expected queued error")
	}
}

func TestMockHTTPClientDefaultError(t *testing.T) {
	client := NewMockHTTPClient()
	client.DefaultError = errors.New("network down")

	if _, err := client.Get("http://anything"); err == nil {
		t.Fatal("expected default error")
	}
}

func TestMockHTTPClientReset(t *testing.T) {
	client := NewMockHTTPClient()
	client.AddResponse(http.StatusOK, "x")
	if _, err := client.Get("http://a"); err != nil {
		t.Fatal(err)
	}

	client.Reset()
	if client.RequestCount() != 0 {
		t.Errorf("requests not cleared: %d", client.RequestCount())
	}
}

func TestNewStandardClientNilFallsBack(t *testing.T) {
	c := NewStandardClient(nil)
	if c.Client != http.DefaultClient {
		t.Error("nil should fall back to http.DefaultClient")
	}
}

func TestNewStreamingClientHasNoBodyTimeout(t *testing.T) {
	c := NewStreamingClient()
	if c.Client.Timeout != 0 {
		t.Errorf("streaming client must not set an overall timeout, got %v", c.Client.Timeout)
	}
	if c.Client.Transport == nil {
		t.Error("streaming client should configure its transport")
	}
}
