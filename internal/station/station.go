package station

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/liveradio/internal/infra/store"
)

// Modulus is the period, in seconds, of the clock clients synchronize against.
const Modulus = 100000

// Song ids are drawn from this range.
const (
	MinSongID = 1111
	MaxSongID = 9999
)

// Variable keys published to the store.
const (
	KeyStatus    = "bi-si"
	KeyStartData = "song-start-data"
	KeySongPath  = "song-path"
)

// Status is the background index and song id pair clients poll.
type Status struct {
	BackgroundIndex int `json:"bi"`
	SongIndex       int `json:"si"`
}

// StartData is the station clock reading taken when the current song started.
type StartData struct {
	T   float64 `json:"t"`
	Mod float64 `json:"mod"`
}

// SongPath locates the current song document.
type SongPath struct {
	Path string `json:"path"`
}

// NowPlaying describes the current song.
type NowPlaying struct {
	File            string `json:"file"`
	Title           string `json:"title"`
	SongID          int    `json:"songId"`
	BackgroundIndex int    `json:"backgroundIndex"`
	Elapsed         int    `json:"elapsed"`
	Duration        int    `json:"duration"`
	Running         bool   `json:"running"`
}

// Vars is where the station publishes its variables.
type Vars interface {
	Get(key string, dest interface{}) (bool, error)
	Set(key string, value interface{}) error
	RecordPlay(p store.Play) error
}

// Options configures a Station. Zero values select defaults.
type Options struct {
	Tick time.Duration
	Now  func() time.Time
	Rand *rand.Rand
}

// Station rotates through the library one song at a time, advancing when the
// current song's duration has elapsed.
type Station struct {
	lib  *Library
	bg   *Backgrounds
	vars Vars
	tick time.Duration
	now  func() time.Time
	rnd  *rand.Rand

	mu        sync.Mutex
	playIndex int
	current   string
	title     string
	duration  int
	elapsed   int
	songID    int
	bgIndex   int

	emptyWarned bool

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped station. The song id published by a previous run is
// read back so the first song after a restart is announced with a new id.
func New(lib *Library, bg *Backgrounds, vars Vars, opts Options) *Station {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Station{
		lib:  lib,
		bg:   bg,
		vars: vars,
		tick: opts.Tick,
		now:  opts.Now,
		rnd:  opts.Rand,
	}

	var last Status
	found, err := vars.Get(KeyStatus, &last)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Previous station status unavailable")
	case found:
		s.songID = last.SongIndex
		log.Debug().Int("si", last.SongIndex).Msg("Previous song id restored")
	}
	return s
}

// Start loads the first song of the library and starts the rotation loop.
func (s *Station) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn().Msg("Station already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.elapsed = 0
	s.loadLocked(false)

	go s.loop(ctx, s.done)
	log.Info().Dur("tick", s.tick).Msg("Station started")
}

// Stop halts the rotation loop and waits for it to exit.
func (s *Station) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	log.Info().Msg("Station stopped")
}

// Restart stops the loop and starts again from the first song.
func (s *Station) Restart() {
	s.Stop()
	s.Start()
}

// NowPlaying returns the current song.
func (s *Station) NowPlaying() NowPlaying {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NowPlaying{
		File:            s.current,
		Title:           s.title,
		SongID:          s.songID,
		BackgroundIndex: s.bgIndex,
		Elapsed:         s.elapsed,
		Duration:        s.duration,
		Running:         s.running,
	}
}

func (s *Station) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

// step advances the station clock by one tick.
func (s *Station) step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		// library was empty; pick up songs uploaded since
		s.loadLocked(false)
		return
	}

	if s.elapsed >= s.duration {
		s.loadLocked(true)
		s.elapsed = 0
	}
	s.elapsed++
}

// loadLocked selects the next song (or the first one) and publishes it.
// Songs that cannot be read are skipped.
func (s *Station) loadLocked(next bool) {
	if err := s.lib.Refresh(); err != nil {
		log.Error().Err(err).Msg("Library scan failed")
	}
	songs := s.lib.Songs()
	if len(songs) == 0 {
		if !s.emptyWarned {
			log.Warn().Str("dir", s.lib.Dir()).Msg("No songs available")
			s.emptyWarned = true
		}
		s.current = ""
		return
	}

	if next {
		s.playIndex = (s.playIndex + 1) % len(songs)
	} else {
		s.playIndex = 0
	}

	for attempt := 0; attempt < len(songs); attempt++ {
		name := songs[s.playIndex]
		song, err := s.lib.Load(name)
		if err == nil {
			s.emptyWarned = false
			s.current = name
			s.title = song.Title
			s.duration = song.Seconds()
			s.publishLocked()
			log.Info().
				Str("file", name).
				Str("title", song.Title).
				Int("duration", s.duration).
				Int("si", s.songID).
				Msg("Now playing")
			return
		}
		log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable song")
		s.playIndex = (s.playIndex + 1) % len(songs)
	}

	log.Error().Int("songs", len(songs)).Msg("No readable songs in library")
	s.current = ""
}

// publishLocked draws a new song id and background and writes the variables
// clients read.
func (s *Station) publishLocked() {
	prev := s.songID
	for s.songID == prev {
		s.songID = s.rnd.Intn(MaxSongID-MinSongID+1) + MinSongID
	}
	s.bgIndex = s.bg.Pick(s.rnd)

	now := s.now()
	path, _ := s.lib.Path(s.current)
	t := math.Mod(float64(now.UnixNano())/float64(time.Second), Modulus)

	if err := s.vars.Set(KeySongPath, SongPath{Path: path}); err != nil {
		log.Error().Err(err).Str("key", KeySongPath).Msg("Publish failed")
	}
	if err := s.vars.Set(KeyStartData, StartData{T: t, Mod: Modulus}); err != nil {
		log.Error().Err(err).Str("key", KeyStartData).Msg("Publish failed")
	}
	if err := s.vars.Set(KeyStatus, Status{BackgroundIndex: s.bgIndex, SongIndex: s.songID}); err != nil {
		log.Error().Err(err).Str("key", KeyStatus).Msg("Publish failed")
	}
	if err := s.vars.RecordPlay(store.Play{File: s.current, SongID: s.songID, StartedAt: now}); err != nil {
		log.Warn().Err(err).Msg("Play history not recorded")
	}
}
