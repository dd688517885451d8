package effects

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

func fixedOptions() Options {
	return Options{
		Interval: 5 * time.Millisecond,
		Now:      func() time.Time { return time.UnixMilli(0) },
		Rand:     func() float64 { return 0.5 },
	}
}

func TestBarLayout(t *testing.T) {
	tests := []struct {
		name      string
		width     float64
		wantWidth float64
		wantCount int
	}{
		{"400px container", 400, 10, 26},
		{"narrow container clamps to min", 100, 10, 6},
		{"wide container clamps to max", 1600, 22, 59},
		{"mid container adapts", 600, 15, 30},
		{"zero width", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := BarLayout(tt.width)
			if w != tt.wantWidth {
				t.Errorf("expected bar width %v, got %v", tt.wantWidth, w)
			}
			if c != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, c)
			}
		})
	}
}

func TestBarHeight(t *testing.T) {
	// t=0, i=0: sin(0)=0 so height is 20 + jitter*15
	if got := BarHeight(0, 0, 0); got != 20 {
		t.Errorf("expected 20, got %v", got)
	}
	if got := BarHeight(0, 0, 1); got != 35 {
		t.Errorf("expected 35, got %v", got)
	}
	want := 20 + 25*math.Sin(0.5)
	if got := BarHeight(0, 1, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNewBarsLaysOutIdleBars(t *testing.T) {
	s := view.NewSurface(400)
	NewBars(s, fixedOptions())

	bars := s.Bars()
	if len(bars) != 26 {
		t.Fatalf("expected 26 bars, got %d", len(bars))
	}
	for i, b := range bars {
		if b.Width != 10 {
			t.Errorf("bar %d: expected width 10, got %v", i, b.Width)
		}
	}
}

func TestBarsTickSharesColor(t *testing.T) {
	s := view.NewSurface(400)
	b := NewBars(s, fixedOptions())
	b.tick()

	bars := s.Bars()
	for i, bar := range bars {
		if bar.Color != "hsl(180, 80%, 60%)" {
			t.Errorf("bar %d: expected shared hue color, got %q", i, bar.Color)
		}
		if want := BarHeight(0, i, 0.5); bar.Height != want {
			t.Errorf("bar %d: expected height %v, got %v", i, want, bar.Height)
		}
		if !strings.HasPrefix(bar.Background, "linear-gradient(180deg") {
			t.Errorf("bar %d: unexpected background %q", i, bar.Background)
		}
	}
}

func TestBarsStopResetsEveryBar(t *testing.T) {
	s := view.NewSurface(400)
	b := NewBars(s, fixedOptions())

	b.Start()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && s.Bars()[0].Color == "" {
		time.Sleep(2 * time.Millisecond)
	}
	if !b.anim.isRunning() {
		t.Fatal("bars should be running after Start")
	}

	b.Stop()
	if b.anim.isRunning() {
		t.Error("bars should not be running after Stop")
	}

	// give a stray tick the chance to land
	time.Sleep(20 * time.Millisecond)

	for i, bar := range s.Bars() {
		if bar.Height != idleBarHeight {
			t.Errorf("bar %d: expected idle height %v, got %v", i, idleBarHeight, bar.Height)
		}
		if bar.Color != idleBarColor {
			t.Errorf("bar %d: expected idle color %q, got %q", i, idleBarColor, bar.Color)
		}
	}
}

func TestBarsResize(t *testing.T) {
	s := view.NewSurface(400)
	b := NewBars(s, fixedOptions())

	b.Resize(1600)

	if got := len(s.Bars()); got != 59 {
		t.Errorf("expected 59 bars after resize, got %d", got)
	}
	if got := s.ContainerWidth(); got != 1600 {
		t.Errorf("expected container width 1600, got %v", got)
	}
}

func TestGlowTickHasFiveLayers(t *testing.T) {
	s := view.NewSurface(400)
	g := NewGlow(s, fixedOptions())
	g.tick()

	layers := strings.Split(s.Glow(), ", ")
	if len(layers) != GlowLayers {
		t.Fatalf("expected %d layers, got %d: %q", GlowLayers, len(layers), s.Glow())
	}
	if layers[0] != "0 0 10px 2px rgba(128,128,128,0.50)" {
		t.Errorf("unexpected first layer %q", layers[0])
	}
}

func TestGlowStopZeroesLayers(t *testing.T) {
	s := view.NewSurface(400)
	g := NewGlow(s, fixedOptions())

	g.Start()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && s.Glow() == IdleGlow {
		time.Sleep(2 * time.Millisecond)
	}
	g.Stop()
	time.Sleep(20 * time.Millisecond)

	if s.Glow() != IdleGlow {
		t.Errorf("expected idle glow, got %q", s.Glow())
	}
	for _, layer := range strings.Split(s.Glow(), ", ") {
		if layer != "0 0 0 0 rgba(0,0,0,0)" {
			t.Errorf("layer not transparent: %q", layer)
		}
	}
}

func TestNewVariant(t *testing.T) {
	s := view.NewSurface(400)

	if e, err := New(VariantBars, s, fixedOptions()); err != nil {
		t.Errorf("bars: unexpected error %v", err)
	} else if _, ok := e.(*Bars); !ok {
		t.Errorf("bars: expected *Bars, got %T", e)
	}
	if e, err := New(VariantGlow, s, fixedOptions()); err != nil {
		t.Errorf("glow: unexpected error %v", err)
	} else if _, ok := e.(*Glow); !ok {
		t.Errorf("glow: expected *Glow, got %T", e)
	}
	if _, err := New("sparkles", s, fixedOptions()); err == nil {
		t.Error("expected error for unknown variant")
	}
}
