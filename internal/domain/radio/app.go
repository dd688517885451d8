// Package radio runs the live radio client: it polls the station, loads songs
// into the player, synchronizes the play position and keeps the surface in
// step with playback.
//
// All state is owned by a single event loop goroutine started by App.Run.
// Station requests run in their own goroutines and post their continuations
// back onto the loop, so handlers never run concurrently with each other.
package radio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/audio"
	"github.com/edumarques81/liveradio/internal/domain/effects"
	"github.com/edumarques81/liveradio/internal/domain/player"
	"github.com/edumarques81/liveradio/internal/domain/view"
	"github.com/edumarques81/liveradio/internal/infra/stationapi"
)

// Default intervals.
const (
	DefaultPollInterval     = 2000 * time.Millisecond
	DefaultProgressInterval = 250 * time.Millisecond
)

// ErrStopped is returned by App methods after the event loop exited.
var ErrStopped = errors.New("radio stopped")

// Station is the subset of the station API the client consumes.
type Station interface {
	FetchStatus(ctx context.Context) (stationapi.Status, error)
	FetchSong(ctx context.Context) (stationapi.Song, error)
	FetchPosition(ctx context.Context) (stationapi.Position, error)
}

// Config holds App settings. Zero values select defaults.
type Config struct {
	PollInterval     time.Duration
	ProgressInterval time.Duration
	Now              func() time.Time
	Logger           *zerolog.Logger
}

// App is the application context: one per running player.
type App struct {
	station Station
	media   audio.Media
	effect  effects.Effect
	surface *view.Surface
	ctrl    *player.Controller

	pollInterval     time.Duration
	progressInterval time.Duration
	now              func() time.Time
	logger           zerolog.Logger

	events  chan func()
	quit    chan struct{}
	runOnce sync.Once
	ctx     context.Context

	// loop-owned
	pending      int
	pollInFlight bool
	songGen      uint64
	syncGen      uint64
	loads        int
}

// New wires an App. The effect must draw onto surface.
func New(station Station, media audio.Media, effect effects.Effect, surface *view.Surface, cfg Config) *App {
	a := &App{
		station:          station,
		media:            media,
		effect:           effect,
		surface:          surface,
		pollInterval:     cfg.PollInterval,
		progressInterval: cfg.ProgressInterval,
		now:              cfg.Now,
		logger:           log.Logger,
		events:           make(chan func(), 64),
		quit:             make(chan struct{}),
	}
	if a.pollInterval <= 0 {
		a.pollInterval = DefaultPollInterval
	}
	if a.progressInterval <= 0 {
		a.progressInterval = DefaultProgressInterval
	}
	if a.now == nil {
		a.now = time.Now
	}
	if cfg.Logger != nil {
		a.logger = *cfg.Logger
	}

	a.ctrl = player.NewController(media, effect, surface)
	a.ctrl.SetLogger(a.logger)
	a.ctrl.OnPlay(a.syncPosition)
	return a
}

// Surface returns the surface the App renders to.
func (a *App) Surface() *view.Surface {
	return a.surface
}

// Run drives the event loop until ctx is cancelled. It may only be called once.
func (a *App) Run(ctx context.Context) error {
	ran := false
	a.runOnce.Do(func() { ran = true })
	if !ran {
		return errors.New("radio already running")
	}

	a.ctx = ctx
	defer close(a.quit)

	pollTicker := time.NewTicker(a.pollInterval)
	defer pollTicker.Stop()
	progressTicker := time.NewTicker(a.progressInterval)
	defer progressTicker.Stop()

	a.effect.Stop()
	a.logger.Info().
		Dur("poll_interval", a.pollInterval).
		Msg("Live radio started")

	a.poll()

	for {
		select {
		case <-ctx.Done():
			a.ctrl.Stop()
			a.logger.Info().Msg("Live radio stopped")
			return ctx.Err()
		case <-pollTicker.C:
			a.poll()
		case <-progressTicker.C:
			a.updateProgress()
		case fn := <-a.events:
			fn()
		}
	}
}

// post queues fn onto the loop. It is dropped once the loop exited.
func (a *App) post(fn func()) {
	select {
	case a.events <- fn:
	case <-a.quit:
	}
}

// Do runs fn on the event loop and waits for it to finish.
func (a *App) Do(fn func()) error {
	done := make(chan struct{})
	select {
	case a.events <- func() { fn(); close(done) }:
	case <-a.quit:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-a.quit:
		return ErrStopped
	}
}

// TogglePlayPause is the play control click handler.
func (a *App) TogglePlayPause() {
	a.post(func() { a.ctrl.Toggle() })
}

// Resize is the viewport resize handler.
func (a *App) Resize(width float64) {
	if width <= 0 {
		return
	}
	a.post(func() { a.effect.Resize(width) })
}

// State returns a copy of the playback state.
func (a *App) State() (player.State, error) {
	var s player.State
	err := a.Do(func() { s = a.ctrl.State() })
	return s, err
}

// fetch runs req off the loop and posts its continuation back.
func (a *App) fetch(req func(ctx context.Context) func()) {
	a.pending++
	ctx := a.ctx
	go func() {
		cont := req(ctx)
		a.post(func() {
			a.pending--
			cont()
		})
	}()
}

// poll fetches the station status.
func (a *App) poll() {
	if a.pollInFlight {
		a.logger.Debug().Msg("Poll skipped, previous request in flight")
		return
	}
	a.pollInFlight = true
	a.fetch(func(ctx context.Context) func() {
		status, err := a.station.FetchStatus(ctx)
		return func() { a.applyStatus(status, err) }
	})
}

func (a *App) applyStatus(status stationapi.Status, err error) {
	a.pollInFlight = false
	if err != nil {
		if errors.Is(err, stationapi.ErrPayload) {
			a.logger.Warn().Err(err).Msg("Status payload discarded")
		} else {
			a.logger.Error().Err(err).Msg("Status fetch failed")
		}
		return
	}

	if a.ctrl.ObserveStatus(status.BackgroundIndex, status.SongIndex) {
		a.loadSong()
	}
}

// loadSong fetches the current song. A response for a superseded request is dropped.
func (a *App) loadSong() {
	a.songGen++
	gen := a.songGen
	a.loads++
	a.fetch(func(ctx context.Context) func() {
		song, err := a.station.FetchSong(ctx)
		return func() { a.applySong(gen, song, err) }
	})
}

func (a *App) applySong(gen uint64, song stationapi.Song, err error) {
	if gen != a.songGen {
		a.logger.Debug().Uint64("gen", gen).Msg("Stale song response dropped")
		return
	}
	if err != nil {
		if errors.Is(err, stationapi.ErrPayload) {
			a.logger.Warn().Err(err).Msg("Song payload discarded")
		} else {
			a.logger.Error().Err(err).Msg("Song fetch failed")
		}
		return
	}

	a.surface.SetTitle(song.Title)
	a.surface.SetAlbumArt(song.ImageBase64)
	a.surface.SetProgress(0)
	a.ctrl.BeginLoad()

	a.pending++
	a.media.Load(audio.Source{Data: song.Audio, MIME: "audio/mp3"}, func(meta audio.Metadata, err error) {
		a.post(func() {
			a.pending--
			a.applyLoaded(gen, song.Title, meta, err)
		})
	})
}

func (a *App) applyLoaded(gen uint64, title string, meta audio.Metadata, err error) {
	if gen != a.songGen {
		a.logger.Debug().Uint64("gen", gen).Msg("Stale media load dropped")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("title", title).Msg("Media load failed")
		return
	}
	a.logger.Info().
		Str("title", title).
		Dur("duration", meta.Duration).
		Str("format", meta.Format.String()).
		Msg("Song loaded")
	a.ctrl.Loaded()
}

// syncPosition seeks the media to the station clock. It runs on every
// Paused to Playing transition.
func (a *App) syncPosition() {
	a.syncGen++
	gen := a.syncGen
	songGen := a.songGen
	a.fetch(func(ctx context.Context) func() {
		pos, err := a.station.FetchPosition(ctx)
		return func() { a.applyPosition(gen, songGen, pos, err) }
	})
}

func (a *App) applyPosition(gen, songGen uint64, pos stationapi.Position, err error) {
	if gen != a.syncGen || songGen != a.songGen || !a.ctrl.State().Playing {
		a.logger.Debug().Msg("Stale position response dropped")
		return
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("Position sync skipped")
		return
	}

	target := SyncPosition(a.now(), pos.Offset, pos.Modulus)
	if err := a.media.Seek(target); err != nil {
		a.logger.Error().Err(err).Dur("target", target).Msg("Seek failed")
		return
	}
	a.logger.Debug().Dur("target", target).Msg("Position synchronized")
}

// updateProgress refreshes the time slider while playing.
func (a *App) updateProgress() {
	state := a.ctrl.State()
	if !state.Playing || !state.SongLoaded {
		return
	}
	duration := a.media.Duration()
	if duration <= 0 {
		return
	}
	a.surface.SetProgress(float64(a.media.Position()) / float64(duration) * 100)
}
