package mpd_test

import (
	"testing"
	"time"

	"github.com/edumarques81/liveradio/internal/infra/mpd"
)

func TestNewClient(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	if client == nil {
		t.Error("NewClient should return a non-nil client")
	}
}

func TestClientConnectFailure(t *testing.T) {
	// Test connection to non-existent server
	client := mpd.NewClient("localhost", 16600, "") // Wrong port

	err := client.Connect()
	if err == nil {
		t.Error("Connect should fail for non-existent server")
		client.Close()
	}
}

func TestClientPingWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 16600, "")

	err := client.Ping()
	if err == nil {
		t.Error("Ping should fail when not connected")
	}
}

func TestClientCommandsWithoutServer(t *testing.T) {
	client := mpd.NewClient("localhost", 16600, "")

	if _, err := client.State(); err == nil {
		t.Error("State should fail when MPD is unreachable")
	}
	if err := client.Replace("http://localhost/media/current"); err == nil {
		t.Error("Replace should fail when MPD is unreachable")
	}
	if err := client.Play(-1); err == nil {
		t.Error("Play should fail when MPD is unreachable")
	}
	if err := client.Pause(true); err == nil {
		t.Error("Pause should fail when MPD is unreachable")
	}
	if err := client.SeekCur(time.Second); err == nil {
		t.Error("SeekCur should fail when MPD is unreachable")
	}
	if _, err := client.Elapsed(); err == nil {
		t.Error("Elapsed should fail when MPD is unreachable")
	}
}

func TestClientCloseWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 16600, "")

	if err := client.Close(); err != nil {
		t.Errorf("Close should not fail when never connected: %v", err)
	}
}
