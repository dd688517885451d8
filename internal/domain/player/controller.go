package player

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/audio"
	"github.com/edumarques81/liveradio/internal/domain/effects"
	"github.com/edumarques81/liveradio/internal/domain/view"
)

// Controller owns the playback state machine: Paused(loaded) and Playing.
//
// A Controller is not safe for concurrent use; it is driven from a single
// event loop goroutine.
type Controller struct {
	state   State
	media   audio.Media
	effect  effects.Effect
	surface *view.Surface
	logger  zerolog.Logger

	// onPlay runs on every Paused to Playing transition.
	onPlay func()
}

// NewController creates a paused controller with no song loaded.
func NewController(media audio.Media, effect effects.Effect, surface *view.Surface) *Controller {
	return &Controller{
		state:   NewState(),
		media:   media,
		effect:  effect,
		surface: surface,
		logger:  log.Logger,
	}
}

// SetLogger replaces the controller logger.
func (c *Controller) SetLogger(l zerolog.Logger) {
	c.logger = l
}

// OnPlay registers the hook run when playback starts (position synchronization).
func (c *Controller) OnPlay(fn func()) {
	c.onPlay = fn
}

// State returns a copy of the playback state.
func (c *Controller) State() State {
	return c.state
}

// Toggle flips between paused and playing. It is a no-op while no song is
// loaded and reports whether a transition happened.
func (c *Controller) Toggle() bool {
	if !c.state.SongLoaded {
		c.logger.Debug().Msg("Toggle ignored, song not loaded")
		return false
	}

	if !c.state.Playing {
		if c.onPlay != nil {
			c.onPlay()
		}
		if err := c.media.Play(); err != nil {
			c.logger.Error().Err(err).Msg("Play failed")
		}
		c.effect.Start()
		c.surface.SetPlaying(true)
		c.state.Playing = true
		c.logger.Info().Int("song", c.state.SongIndex).Msg("Play")
	} else {
		if err := c.media.Pause(); err != nil {
			c.logger.Error().Err(err).Msg("Pause failed")
		}
		c.effect.Stop()
		c.surface.SetPlaying(false)
		c.state.Playing = false
		c.logger.Info().Int("song", c.state.SongIndex).Msg("Pause")
	}
	return true
}

// ObserveStatus applies a station status. The background index is applied
// unconditionally; it reports whether the song index changed.
func (c *Controller) ObserveStatus(backgroundIndex, songIndex int) (songChanged bool) {
	c.state.BackgroundIndex = backgroundIndex
	c.surface.SetPageBackground(backgroundIndex)

	if songIndex == c.state.SongIndex {
		return false
	}
	c.logger.Info().
		Int("from", c.state.SongIndex).
		Int("to", songIndex).
		Msg("Song index changed")
	c.state.SongIndex = songIndex
	return true
}

// BeginLoad marks the song unloaded while a new source is being prepared.
func (c *Controller) BeginLoad() {
	c.state.SongLoaded = false
}

// Loaded marks the song loaded. If playback was active it is restarted with a
// pause/play cycle so the play hook runs against the new track.
func (c *Controller) Loaded() {
	c.state.SongLoaded = true
	if c.state.Playing {
		c.state.Playing = false
		c.Toggle()
	}
}

// Stop pauses playback if playing. Used on shutdown.
func (c *Controller) Stop() {
	if c.state.Playing {
		c.Toggle()
	}
	c.effect.Stop()
}
