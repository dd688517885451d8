package effects

import (
	"fmt"
	"math"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

const (
	minBarWidth = 10.0
	maxBarWidth = 22.0
	barSpacing  = 5.0

	idleBarHeight = 5.0
	idleBarColor  = "rgba(255,255,255,0.2)"

	barTransition = "height 0.3s ease, background 0.4s ease"
)

// BarLayout returns the bar width and count for a container width.
// The width adapts to the container (width/40) clamped to [10, 22] px.
func BarLayout(containerWidth float64) (barWidth float64, count int) {
	barWidth = math.Max(minBarWidth, math.Min(maxBarWidth, containerWidth/40))
	count = int(math.Floor(containerWidth / (barWidth + barSpacing)))
	if count < 0 {
		count = 0
	}
	return barWidth, count
}

// BarHeight returns the height percentage of bar i at time t (ms since epoch)
// for a random jitter in [0, 1).
func BarHeight(tMillis float64, i int, jitter float64) float64 {
	wave := math.Sin((tMillis/300 + float64(i)) / 2)
	return 20 + wave*25 + jitter*15
}

func barBackground(color string) string {
	return fmt.Sprintf("linear-gradient(180deg, rgba(255, 255, 255, 0.5), %s)", color)
}

func styledBar(width, height float64, color string) view.Bar {
	return view.Bar{
		Width:      width,
		Height:     height,
		Color:      color,
		Background: barBackground(color),
		Transition: barTransition,
	}
}

// Bars is the equalizer variant.
type Bars struct {
	anim    animator
	surface *view.Surface
	opts    Options

	barWidth float64
	count    int
}

// NewBars creates the bar equalizer and lays out the idle bar set.
func NewBars(surface *view.Surface, opts Options) *Bars {
	opts = opts.withDefaults()
	b := &Bars{
		anim:    animator{interval: opts.Interval},
		surface: surface,
		opts:    opts,
	}
	b.layout(surface.ContainerWidth())
	return b
}

// layout rebuilds the bar set for width. Must hold the animator lock or be
// called before the animator starts.
func (b *Bars) layout(width float64) {
	b.barWidth, b.count = BarLayout(width)
	bars := make([]view.Bar, b.count)
	for i := range bars {
		bars[i] = view.Bar{Width: b.barWidth}
	}
	b.surface.ReplaceBars(bars)
}

// Start animates the bars on every tick.
func (b *Bars) Start() {
	b.anim.start(b.tick)
}

func (b *Bars) tick() {
	hue := int(math.Floor(b.opts.Rand() * 360))
	color := fmt.Sprintf("hsl(%d, 80%%, 60%%)", hue)
	t := float64(b.opts.Now().UnixMilli())

	bars := make([]view.Bar, b.count)
	for i := range bars {
		bars[i] = styledBar(b.barWidth, BarHeight(t, i, b.opts.Rand()), color)
	}
	b.surface.ReplaceBars(bars)
}

// Stop collapses every bar to the idle height and color.
func (b *Bars) Stop() {
	b.anim.halt(b.reset)
}

func (b *Bars) reset() {
	bars := make([]view.Bar, b.count)
	for i := range bars {
		bars[i] = styledBar(b.barWidth, idleBarHeight, idleBarColor)
	}
	b.surface.ReplaceBars(bars)
}

// Resize re-initializes the bar set for a new container width.
// The animation keeps running if it was running.
func (b *Bars) Resize(width float64) {
	b.surface.SetContainerWidth(width)
	b.anim.locked(func() {
		b.layout(width)
	})
}

