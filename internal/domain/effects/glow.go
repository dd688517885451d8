package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/edumarques81/liveradio/internal/domain/view"
)

// GlowLayers is the number of stacked shadow layers.
const GlowLayers = 5

const idleGlowLayer = "0 0 0 0 rgba(0,0,0,0)"

// IdleGlow is the box shadow with every layer transparent.
var IdleGlow = strings.TrimSuffix(strings.Repeat(idleGlowLayer+", ", GlowLayers), ", ")

// Glow is the glow pulse variant.
type Glow struct {
	anim    animator
	surface *view.Surface
	opts    Options
}

// NewGlow creates the glow pulse in its idle appearance.
func NewGlow(surface *view.Surface, opts Options) *Glow {
	opts = opts.withDefaults()
	g := &Glow{
		anim:    animator{interval: opts.Interval},
		surface: surface,
		opts:    opts,
	}
	surface.SetGlow(IdleGlow)
	return g
}

// Start pulses the glow on every tick.
func (g *Glow) Start() {
	g.anim.start(g.tick)
}

func (g *Glow) tick() {
	layers := make([]string, GlowLayers)
	for i := range layers {
		blur := (i + 1) * 10
		r := g.channel()
		gr := g.channel()
		b := g.channel()
		alpha := math.Round(g.opts.Rand()*100) / 100
		layers[i] = fmt.Sprintf("0 0 %dpx %dpx rgba(%d,%d,%d,%.2f)", blur, blur/5, r, gr, b, alpha)
	}
	g.surface.SetGlow(strings.Join(layers, ", "))
}

func (g *Glow) channel() int {
	return int(math.Floor(g.opts.Rand() * 256))
}

// Stop zeroes every layer.
func (g *Glow) Stop() {
	g.anim.halt(func() {
		g.surface.SetGlow(IdleGlow)
	})
}

// Resize is a no-op; the glow does not depend on the container width.
func (g *Glow) Resize(width float64) {
	g.surface.SetContainerWidth(width)
}

