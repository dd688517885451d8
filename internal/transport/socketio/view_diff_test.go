package socketio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/edumarques81/liveradio/internal/domain/player"
	"github.com/edumarques81/liveradio/internal/domain/view"
)

type stubController struct{}

func (stubController) TogglePlayPause()             {}
func (stubController) Resize(float64)               {}
func (stubController) State() (player.State, error) { return player.NewState(), nil }

func (s *Server) lastViewBytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.lastView...)
}

func TestEffectFramesDoNotResendAlbumArt(t *testing.T) {
	surface := view.NewSurface(400)
	server, err := NewServer(stubController{}, surface, 0)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	surface.SetAlbumArt("iVBORw0KGgo=")
	time.Sleep(4 * DebounceWindow)

	before := server.lastViewBytes()
	if !strings.Contains(string(before), "iVBORw0KGgo=") {
		t.Fatalf("expected album art in the view broadcast, got %s", before)
	}

	for i := 0; i < 5; i++ {
		surface.ReplaceBars([]view.Bar{{Width: 10, Height: float64(20 + i)}})
		surface.SetGlow("0 0 10px 2px rgba(1,2,3,0.60)")
	}
	time.Sleep(4 * DebounceWindow)

	if after := server.lastViewBytes(); !bytes.Equal(before, after) {
		t.Errorf("effect frames should not resend the full view, last view now %s", after)
	}
}

func TestIsViewSame(t *testing.T) {
	s := &Server{}
	surface := view.NewSurface(400)

	if s.isViewSame(surface.ToJSON()) {
		t.Error("first snapshot should never be considered a repeat")
	}
	if !s.isViewSame(surface.ToJSON()) {
		t.Error("unchanged surface should be considered the same")
	}

	surface.SetProgress(42)
	if s.isViewSame(surface.ToJSON()) {
		t.Error("progress change should trigger a broadcast")
	}

	surface.SetGlow("0 0 10px 2px rgba(1,2,3,0.6)")
	if s.isViewSame(surface.ToJSON()) {
		t.Error("effect frame should trigger a broadcast")
	}
}

func TestGetFloatFromMap(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]interface{}
		want float64
	}{
		{"nil map", nil, -1},
		{"missing key", map[string]interface{}{}, -1},
		{"float64", map[string]interface{}{"width": 812.5}, 812.5},
		{"int", map[string]interface{}{"width": 640}, 640},
		{"int64", map[string]interface{}{"width": int64(1024)}, 1024},
		{"string", map[string]interface{}{"width": "800"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getFloatFromMap(tt.m, "width", -1); got != tt.want {
				t.Errorf("getFloatFromMap() = %v, want %v", got, tt.want)
			}
		})
	}
}
