package socketio

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

type callCounts struct {
	view   int32
	effect int32
	state  int32
}

func newCountingDebouncer(window time.Duration) (*BroadcastDebouncer, *callCounts) {
	c := &callCounts{}
	d := NewBroadcastDebouncer(window,
		func() { atomic.AddInt32(&c.view, 1) },
		func() { atomic.AddInt32(&c.effect, 1) },
		func() { atomic.AddInt32(&c.state, 1) },
	)
	return d, c
}

func (c *callCounts) check(t *testing.T, view, effect, state int32) {
	t.Helper()
	if got := atomic.LoadInt32(&c.view); got != view {
		t.Errorf("expected %d view callbacks, got %d", view, got)
	}
	if got := atomic.LoadInt32(&c.effect); got != effect {
		t.Errorf("expected %d effect callbacks, got %d", effect, got)
	}
	if got := atomic.LoadInt32(&c.state); got != state {
		t.Errorf("expected %d state callbacks, got %d", state, got)
	}
}

func TestDebouncerRapidEffectFramesCollapseToOne(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// Fire 10 rapid effect frames
	for i := 0; i < 10; i++ {
		d.Trigger(view.ChangeEffect)
	}

	// Wait for debounce window to elapse
	time.Sleep(100 * time.Millisecond)

	// effect frames never resend the whole view
	calls.check(t, 0, 1, 0)
}

func TestDebouncerPlayerChangeTriggersViewAndState(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Trigger(view.ChangePlayer)

	time.Sleep(100 * time.Millisecond)

	calls.check(t, 1, 0, 1)
}

func TestDebouncerMediaEventOnlyRefreshesState(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Trigger("media")

	time.Sleep(100 * time.Millisecond)

	calls.check(t, 0, 0, 1)
}

func TestDebouncerUnknownKindIgnored(t *testing.T) {
	d, calls := newCountingDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Trigger("queue")

	time.Sleep(60 * time.Millisecond)

	calls.check(t, 0, 0, 0)
}

func TestDebouncerMixedEventsWithinWindow(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Trigger(view.ChangeEffect)
	d.Trigger(view.ChangePlayer)
	d.Trigger(view.ChangeEffect)
	d.Trigger("media")

	time.Sleep(100 * time.Millisecond)

	// the full view already carries the effect elements
	calls.check(t, 1, 0, 1)
}

func TestDebouncerSeparateWindowsFireIndependently(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Trigger(view.ChangeEffect)
	time.Sleep(100 * time.Millisecond)

	d.Trigger(view.ChangeEffect)
	time.Sleep(100 * time.Millisecond)

	calls.check(t, 0, 2, 0)
}

func TestDebouncerNilEffectCallback(t *testing.T) {
	var viewCalls int32
	d := NewBroadcastDebouncer(20*time.Millisecond,
		func() { atomic.AddInt32(&viewCalls, 1) },
		nil,
		func() {},
	)
	defer d.Stop()

	d.Trigger(view.ChangeEffect)
	time.Sleep(60 * time.Millisecond)

	if got := atomic.LoadInt32(&viewCalls); got != 0 {
		t.Errorf("expected effect frames to be dropped, got %d view callbacks", got)
	}
}

func TestDebouncerStopPreventsCallbacks(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)

	d.Trigger(view.ChangePlayer)
	d.Stop()

	time.Sleep(100 * time.Millisecond)

	calls.check(t, 0, 0, 0)
}

func TestDebouncerTriggerAfterStopIsIgnored(t *testing.T) {
	d, calls := newCountingDebouncer(50 * time.Millisecond)

	d.Stop()
	d.Trigger(view.ChangePlayer)
	d.Trigger(view.ChangeEffect)

	time.Sleep(100 * time.Millisecond)

	calls.check(t, 0, 0, 0)
}
