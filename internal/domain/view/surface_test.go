package view_test

import (
	"sync/atomic"
	"testing"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

func TestNewSurface(t *testing.T) {
	s := view.NewSurface(400)
	snap := s.Snapshot()

	if snap.PlayLabel != view.LabelPlay {
		t.Errorf("expected label %q, got %q", view.LabelPlay, snap.PlayLabel)
	}
	if snap.Rotating() {
		t.Error("album art should not rotate while idle")
	}
	if snap.ContainerWidth != 400 {
		t.Errorf("expected container width 400, got %v", snap.ContainerWidth)
	}
}

func TestSurfaceSetPlaying(t *testing.T) {
	s := view.NewSurface(400)

	s.SetPlaying(true)
	snap := s.Snapshot()
	if snap.PlayLabel != view.LabelPause {
		t.Errorf("expected label %q, got %q", view.LabelPause, snap.PlayLabel)
	}
	if !snap.Rotating() {
		t.Error("album art should rotate while playing")
	}

	s.SetPlaying(false)
	snap = s.Snapshot()
	if snap.PlayLabel != view.LabelPlay {
		t.Errorf("expected label %q, got %q", view.LabelPlay, snap.PlayLabel)
	}
	if snap.Rotating() {
		t.Error("rotation class should be removed when paused")
	}
}

func TestSurfaceSetTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"regular title", "Night Drive", "Night Drive"},
		{"empty title falls back", "", view.DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := view.NewSurface(400)
			s.SetTitle(tt.title)
			if got := s.Snapshot().Title; got != tt.expected {
				t.Errorf("expected title %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSurfaceBackgrounds(t *testing.T) {
	s := view.NewSurface(400)
	s.SetPageBackground(3)
	s.SetAlbumArt("AAAA")

	snap := s.Snapshot()
	if want := `url("/static/images/background/image-3.jpg")`; snap.PageBackground != want {
		t.Errorf("expected page background %q, got %q", want, snap.PageBackground)
	}
	if want := "url(data:image/png;base64,AAAA)"; snap.AlbumArt != want {
		t.Errorf("expected album art %q, got %q", want, snap.AlbumArt)
	}
}

func TestSurfaceProgressClamped(t *testing.T) {
	s := view.NewSurface(400)

	s.SetProgress(150)
	if got := s.Snapshot().Progress; got != 100 {
		t.Errorf("expected progress clamped to 100, got %v", got)
	}
	s.SetProgress(-4)
	if got := s.Snapshot().Progress; got != 0 {
		t.Errorf("expected progress clamped to 0, got %v", got)
	}
}

func TestSurfaceOnChange(t *testing.T) {
	var player, effect int32
	s := view.NewSurface(400)
	s.OnChange(func(kind string) {
		switch kind {
		case view.ChangePlayer:
			atomic.AddInt32(&player, 1)
		case view.ChangeEffect:
			atomic.AddInt32(&effect, 1)
		}
	})

	s.SetTitle("a")
	s.SetPlaying(true)
	s.ReplaceBars([]view.Bar{{Width: 10}})
	s.SetGlow("none")

	// unchanged progress does not notify
	s.SetProgress(0)

	if got := atomic.LoadInt32(&player); got != 2 {
		t.Errorf("expected 2 player changes, got %d", got)
	}
	if got := atomic.LoadInt32(&effect); got != 2 {
		t.Errorf("expected 2 effect changes, got %d", got)
	}
}

func TestSurfaceBarsAreCopied(t *testing.T) {
	s := view.NewSurface(400)
	bars := []view.Bar{{Height: 5}}
	s.ReplaceBars(bars)

	bars[0].Height = 99
	if got := s.Bars()[0].Height; got != 5 {
		t.Errorf("surface should keep its own copy of bars, got height %v", got)
	}
}

func TestSurfaceToJSON(t *testing.T) {
	s := view.NewSurface(400)
	s.SetTitle("Song")

	m := s.ToJSON()
	for _, key := range []string{"title", "playLabel", "artClasses", "albumArt", "pageBackground", "progress", "bars", "glow"} {
		if _, ok := m[key]; !ok {
			t.Errorf("ToJSON missing key %q", key)
		}
	}
	if m["title"] != "Song" {
		t.Errorf("expected title Song, got %v", m["title"])
	}
}

func TestSurfaceEffectJSONLeavesOutAlbumArt(t *testing.T) {
	s := view.NewSurface(400)
	s.SetAlbumArt("iVBORw0KGgo=")
	s.SetGlow("0 0 10px 2px rgba(1,2,3,0.60)")
	s.ReplaceBars([]view.Bar{{Width: 10, Height: 30}})

	m := s.EffectJSON()
	if len(m) != 2 {
		t.Errorf("expected only bars and glow, got keys %v", m)
	}
	if _, ok := m["albumArt"]; ok {
		t.Error("effect frame should not carry album art")
	}
	if m["glow"] != "0 0 10px 2px rgba(1,2,3,0.60)" {
		t.Errorf("unexpected glow %v", m["glow"])
	}
	if bars, _ := m["bars"].([]view.Bar); len(bars) != 1 {
		t.Errorf("expected 1 bar, got %v", m["bars"])
	}
}
