package audio

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock is a silent media backend. It probes the source for its duration and
// tracks the playback position against the wall clock.
type Clock struct {
	mu       sync.Mutex
	probe    func([]byte) (Metadata, error)
	now      func() time.Time
	gen      uint64
	loaded   bool
	playing  bool
	duration time.Duration
	offset   time.Duration // position when playback last started or paused
	started  time.Time
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithProbe replaces the mp3 probe (useful for testing).
func WithProbe(probe func([]byte) (Metadata, error)) ClockOption {
	return func(c *Clock) {
		c.probe = probe
	}
}

// WithNow replaces the time source (useful for testing).
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		c.now = now
	}
}

// NewClock creates a silent media backend.
func NewClock(opts ...ClockOption) *Clock {
	c := &Clock{
		probe: ProbeMP3,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load probes the source in the background and reports its metadata.
func (c *Clock) Load(src Source, done func(Metadata, error)) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loaded = false
	c.playing = false
	c.offset = 0
	c.duration = 0
	c.mu.Unlock()

	go func() {
		meta, err := c.probe(src.Data)

		c.mu.Lock()
		if gen == c.gen && err == nil {
			c.loaded = true
			c.duration = meta.Duration
		}
		c.mu.Unlock()

		if err == nil {
			log.Debug().Dur("duration", meta.Duration).Str("format", meta.Format.String()).Msg("Clock media loaded")
		}
		done(meta, err)
	}()
}

// Play starts advancing the position.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	if !c.playing {
		c.playing = true
		c.started = c.now()
	}
	return nil
}

// Pause freezes the position.
func (c *Clock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		c.offset = c.positionLocked()
		c.playing = false
	}
	return nil
}

// Seek moves the position.
func (c *Clock) Seek(pos time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	c.offset = clampSeek(pos, c.duration)
	c.started = c.now()
	return nil
}

// Position returns the current position.
func (c *Clock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) positionLocked() time.Duration {
	pos := c.offset
	if c.playing {
		pos += c.now().Sub(c.started)
	}
	return clampSeek(pos, c.duration)
}

// Duration returns the loaded source duration.
func (c *Clock) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Close is a no-op.
func (c *Clock) Close() error {
	return nil
}
