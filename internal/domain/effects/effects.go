// Package effects drives the decorative visuals that accompany playback.
//
// Two variants exist: a bar equalizer drawn in the album background container
// and a glow pulse drawn as a box shadow around the album art. Exactly one is
// wired into a running player, chosen at construction time.
package effects

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

// DefaultInterval is the animation tick period.
const DefaultInterval = 500 * time.Millisecond

// Variant names accepted by New.
const (
	VariantBars = "bars"
	VariantGlow = "glow"
)

// Effect is a visual effect bound to playback state.
type Effect interface {
	// Start begins animating. Calling Start on a running effect restarts its timer.
	Start()
	// Stop halts the animation and resets every owned element to its idle appearance.
	Stop()
	// Resize re-initializes elements that depend on the container width.
	Resize(width float64)
}

// Options configure an effect. Zero values select production defaults.
type Options struct {
	Interval time.Duration
	Now      func() time.Time
	Rand     func() float64
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
	return o
}

// New builds the named variant drawing onto surface.
func New(variant string, surface *view.Surface, opts Options) (Effect, error) {
	switch variant {
	case VariantBars, "":
		return NewBars(surface, opts), nil
	case VariantGlow:
		return NewGlow(surface, opts), nil
	default:
		return nil, fmt.Errorf("unknown effect variant %q", variant)
	}
}

// animator runs a tick function on a fixed interval until stopped.
// tick and reset are called with the animator lock held, so a tick can never
// land after Stop has reset the elements.
type animator struct {
	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
	running  bool
}

func (a *animator) start(tick func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.haltLocked()
	stop := make(chan struct{})
	a.stop = stop
	a.running = true

	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				a.mu.Lock()
				select {
				case <-stop:
					a.mu.Unlock()
					return
				default:
				}
				tick()
				a.mu.Unlock()
			}
		}
	}()
}

func (a *animator) halt(reset func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.haltLocked()
	if reset != nil {
		reset()
	}
}

func (a *animator) haltLocked() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.running = false
}

// locked runs fn with the animator lock held.
func (a *animator) locked(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

func (a *animator) isRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
