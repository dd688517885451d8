package player_test

import (
	"testing"
	"time"

	"github.com/edumarques81/liveradio/internal/audio"
	"github.com/edumarques81/liveradio/internal/domain/player"
	"github.com/edumarques81/liveradio/internal/domain/view"
)

type mockMedia struct {
	plays, pauses int
}

func (m *mockMedia) Load(src audio.Source, done func(audio.Metadata, error)) {
	done(audio.Metadata{}, nil)
}
func (m *mockMedia) Play() error                  { m.plays++; return nil }
func (m *mockMedia) Pause() error                 { m.pauses++; return nil }
func (m *mockMedia) Seek(pos time.Duration) error { return nil }
func (m *mockMedia) Position() time.Duration      { return 0 }
func (m *mockMedia) Duration() time.Duration      { return 0 }
func (m *mockMedia) Close() error                 { return nil }

type mockEffect struct {
	starts, stops int
}

func (e *mockEffect) Start()               { e.starts++ }
func (e *mockEffect) Stop()                { e.stops++ }
func (e *mockEffect) Resize(width float64) {}

func newController() (*player.Controller, *mockMedia, *mockEffect, *view.Surface) {
	media := &mockMedia{}
	effect := &mockEffect{}
	surface := view.NewSurface(400)
	return player.NewController(media, effect, surface), media, effect, surface
}

func TestNewState(t *testing.T) {
	state := player.NewState()

	if state.Playing {
		t.Error("expected new state to be paused")
	}
	if state.SongLoaded {
		t.Error("expected no song loaded")
	}
	if state.SongIndex != player.NoSong {
		t.Errorf("expected song index %d, got %d", player.NoSong, state.SongIndex)
	}
	if state.Status() != player.StatusPause {
		t.Errorf("expected status %q, got %q", player.StatusPause, state.Status())
	}
}

func TestToggleWithoutSongIsNoop(t *testing.T) {
	c, media, effect, surface := newController()
	before := c.State()

	if c.Toggle() {
		t.Error("Toggle should report no transition while unloaded")
	}
	if c.State() != before {
		t.Errorf("state changed: before %+v after %+v", before, c.State())
	}
	if media.plays != 0 || effect.starts != 0 {
		t.Error("media and effect must not start while unloaded")
	}
	if surface.Snapshot().PlayLabel != view.LabelPlay {
		t.Error("play label should not change")
	}
}

func TestTogglePlayPause(t *testing.T) {
	c, media, effect, surface := newController()
	var syncs int
	c.OnPlay(func() { syncs++ })
	c.Loaded()

	if !c.Toggle() {
		t.Fatal("Toggle should transition once loaded")
	}
	if !c.State().Playing {
		t.Error("expected playing")
	}
	if media.plays != 1 || effect.starts != 1 || syncs != 1 {
		t.Errorf("expected 1 play/start/sync, got %d/%d/%d", media.plays, effect.starts, syncs)
	}
	snap := surface.Snapshot()
	if snap.PlayLabel != view.LabelPause || !snap.Rotating() {
		t.Errorf("expected pause label and rotation, got %+v", snap)
	}

	c.Toggle()
	if c.State().Playing {
		t.Error("expected paused")
	}
	if media.pauses != 1 || effect.stops != 1 {
		t.Errorf("expected 1 pause/stop, got %d/%d", media.pauses, effect.stops)
	}
	if syncs != 1 {
		t.Errorf("pausing must not synchronize, got %d syncs", syncs)
	}
	snap = surface.Snapshot()
	if snap.PlayLabel != view.LabelPlay || snap.Rotating() {
		t.Errorf("expected play label without rotation, got %+v", snap)
	}
}

func TestObserveStatus(t *testing.T) {
	c, _, _, surface := newController()

	if !c.ObserveStatus(2, 4821) {
		t.Error("first status should be a song change")
	}
	if c.ObserveStatus(3, 4821) {
		t.Error("same song index should not be a change")
	}
	if c.State().BackgroundIndex != 3 {
		t.Errorf("background index should always apply, got %d", c.State().BackgroundIndex)
	}
	if want := `url("/static/images/background/image-3.jpg")`; surface.Snapshot().PageBackground != want {
		t.Errorf("expected page background %q, got %q", want, surface.Snapshot().PageBackground)
	}
	if !c.ObserveStatus(3, 1234) {
		t.Error("new song index should be a change")
	}
	if c.State().SongIndex != 1234 {
		t.Errorf("expected cached song index 1234, got %d", c.State().SongIndex)
	}
}

func TestLoadedWhilePlayingRestartsPlayback(t *testing.T) {
	c, media, _, _ := newController()
	var syncs int
	c.OnPlay(func() { syncs++ })

	c.Loaded()
	c.Toggle()

	c.BeginLoad()
	if c.State().SongLoaded {
		t.Error("BeginLoad should mark the song unloaded")
	}
	if c.Toggle() {
		t.Error("Toggle during reload should be ignored")
	}

	c.Loaded()
	if !c.State().Playing {
		t.Error("playback should resume after reload")
	}
	if syncs != 2 {
		t.Errorf("reload should synchronize again, got %d syncs", syncs)
	}
	if media.plays != 2 {
		t.Errorf("expected 2 plays, got %d", media.plays)
	}
}

func TestLoadedWhilePausedStaysPaused(t *testing.T) {
	c, media, _, _ := newController()

	c.Loaded()
	if c.State().Playing {
		t.Error("loading while paused must not start playback")
	}
	if media.plays != 0 {
		t.Errorf("expected no plays, got %d", media.plays)
	}
}

func TestStateToJSON(t *testing.T) {
	s := player.State{Playing: true, SongLoaded: true, SongIndex: 7, BackgroundIndex: 2}
	m := s.ToJSON()

	if m["status"] != player.StatusPlay {
		t.Errorf("expected status play, got %v", m["status"])
	}
	if m["songIndex"] != 7 || m["backgroundIndex"] != 2 {
		t.Errorf("unexpected indexes in %v", m)
	}
}
