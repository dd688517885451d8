package socketio

import (
	"sync"
	"time"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

// BroadcastDebouncer collapses rapid surface changes into batched broadcasts.
// Multiple changes within the debounce window result in a single broadcast
// for each affected payload (view, effect frame and/or state).
type BroadcastDebouncer struct {
	window         time.Duration
	viewCallback   func()
	effectCallback func()
	stateCallback  func()

	mu            sync.Mutex
	pendingView   bool
	pendingEffect bool
	pendingState  bool
	timer         *time.Timer
	stopped       bool
}

// NewBroadcastDebouncer creates a debouncer with the given window duration.
// viewCallback is called when the whole surface needs broadcasting.
// effectCallback is called when only effect elements changed.
// stateCallback is called when the playback state needs broadcasting.
func NewBroadcastDebouncer(window time.Duration, viewCallback, effectCallback, stateCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:         window,
		viewCallback:   viewCallback,
		effectCallback: effectCallback,
		stateCallback:  stateCallback,
	}
}

// Trigger records a change of the given kind. Effect frames only refresh the
// effect elements; player changes refresh the view and the state; media
// backend events only the state.
func (d *BroadcastDebouncer) Trigger(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch kind {
	case view.ChangeEffect:
		d.pendingEffect = true
	case view.ChangePlayer:
		d.pendingView = true
		d.pendingState = true
	case "media":
		d.pendingState = true
	default:
		return
	}

	// Reset the timer
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	doView := d.pendingView
	doEffect := d.pendingEffect
	doState := d.pendingState
	d.pendingView = false
	d.pendingEffect = false
	d.pendingState = false
	d.mu.Unlock()

	// a full view already carries the effect elements
	if doView && d.viewCallback != nil {
		d.viewCallback()
	} else if doEffect && d.effectCallback != nil {
		d.effectCallback()
	}
	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingView = false
	d.pendingEffect = false
	d.pendingState = false
}
