// Package view models the visible elements of the live radio player widget.
//
// A Surface is what a browser front-end renders: it holds the title text, the
// play/pause affordance, album art, backgrounds, the time slider and the
// decorative effect elements. Every setter notifies an optional change hook so
// transports can push fresh snapshots to connected clients.
package view

import (
	"fmt"
	"sync"
)

// Play control labels.
const (
	LabelPlay  = "▶"
	LabelPause = "❚❚"
)

// RotateClass is the presentational class toggled on the album art while playing.
const RotateClass = "rot"

// DefaultTitle is shown when a song carries no title.
const DefaultTitle = "Unknown Song"

// Change kinds passed to the change hook.
const (
	ChangePlayer = "player"
	ChangeEffect = "effect"
)

// Bar is a single equalizer bar element.
type Bar struct {
	Width      float64 `json:"width"`  // px
	Height     float64 `json:"height"` // percent of container
	Color      string  `json:"color"`
	Background string  `json:"background"`
	Transition string  `json:"transition"`
}

// Surface is the player widget model. It is safe for concurrent access.
type Surface struct {
	mu sync.RWMutex

	title          string
	playLabel      string
	artClasses     map[string]bool
	albumArt       string
	pageBackground string
	pageTransition string
	progress       float64
	volume         float64

	containerWidth float64
	bars           []Bar
	glowShadow     string

	onChange func(kind string)
}

// NewSurface creates a surface in the idle appearance for a container of the given width.
func NewSurface(containerWidth float64) *Surface {
	return &Surface{
		playLabel:      LabelPlay,
		artClasses:     make(map[string]bool),
		containerWidth: containerWidth,
		volume:         1,
	}
}

// OnChange registers the change hook. It is invoked outside the surface lock.
func (s *Surface) OnChange(fn func(kind string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Surface) notify(kind string) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(kind)
	}
}

// SetTitle sets the song title text, falling back to DefaultTitle.
func (s *Surface) SetTitle(title string) {
	if title == "" {
		title = DefaultTitle
	}
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.notify(ChangePlayer)
}

// SetPlaying flips the play control label and the album art rotation class.
func (s *Surface) SetPlaying(playing bool) {
	s.mu.Lock()
	if playing {
		s.playLabel = LabelPause
		s.artClasses[RotateClass] = true
	} else {
		s.playLabel = LabelPlay
		delete(s.artClasses, RotateClass)
	}
	s.mu.Unlock()
	s.notify(ChangePlayer)
}

// SetAlbumArt sets the album background image from base64 PNG data.
func (s *Surface) SetAlbumArt(imageBase64 string) {
	s.mu.Lock()
	s.albumArt = fmt.Sprintf("url(data:image/png;base64,%s)", imageBase64)
	s.mu.Unlock()
	s.notify(ChangePlayer)
}

// SetPageBackground points the page background at the numbered background image.
func (s *Surface) SetPageBackground(index int) {
	s.mu.Lock()
	s.pageTransition = "background-image 1.5s ease-in-out"
	s.pageBackground = fmt.Sprintf(`url("%s")`, BackgroundPath(index))
	s.mu.Unlock()
	s.notify(ChangePlayer)
}

// BackgroundPath returns the static path of the numbered background image.
func BackgroundPath(index int) string {
	return fmt.Sprintf("/static/images/background/image-%d.jpg", index)
}

// SetProgress sets the time slider value (0-100).
func (s *Surface) SetProgress(progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	s.mu.Lock()
	changed := s.progress != progress
	s.progress = progress
	s.mu.Unlock()
	if changed {
		s.notify(ChangePlayer)
	}
}

// ContainerWidth returns the album background container width in px.
func (s *Surface) ContainerWidth() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containerWidth
}

// SetContainerWidth records a new container width reported by the front-end.
func (s *Surface) SetContainerWidth(width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerWidth = width
}

// ReplaceBars replaces the whole bar set.
func (s *Surface) ReplaceBars(bars []Bar) {
	s.mu.Lock()
	s.bars = append([]Bar(nil), bars...)
	s.mu.Unlock()
	s.notify(ChangeEffect)
}

// SetGlow sets the album art box shadow.
func (s *Surface) SetGlow(shadow string) {
	s.mu.Lock()
	s.glowShadow = shadow
	s.mu.Unlock()
	s.notify(ChangeEffect)
}

// Bars returns a copy of the bar set.
func (s *Surface) Bars() []Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Bar(nil), s.bars...)
}

// Glow returns the current box shadow.
func (s *Surface) Glow() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.glowShadow
}

// Snapshot is an immutable copy of the surface.
type Snapshot struct {
	Title          string   `json:"title"`
	PlayLabel      string   `json:"playLabel"`
	ArtClasses     []string `json:"artClasses"`
	AlbumArt       string   `json:"albumArt"`
	PageBackground string   `json:"pageBackground"`
	PageTransition string   `json:"pageTransition"`
	Progress       float64  `json:"progress"`
	Volume         float64  `json:"volume"`
	ContainerWidth float64  `json:"containerWidth"`
	Bars           []Bar    `json:"bars"`
	Glow           string   `json:"glow"`
}

// Rotating reports whether the album art carries the rotation class.
func (s Snapshot) Rotating() bool {
	for _, c := range s.ArtClasses {
		if c == RotateClass {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current surface.
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classes := make([]string, 0, len(s.artClasses))
	for c := range s.artClasses {
		classes = append(classes, c)
	}

	return Snapshot{
		Title:          s.title,
		PlayLabel:      s.playLabel,
		ArtClasses:     classes,
		AlbumArt:       s.albumArt,
		PageBackground: s.pageBackground,
		PageTransition: s.pageTransition,
		Progress:       s.progress,
		Volume:         s.volume,
		ContainerWidth: s.containerWidth,
		Bars:           append([]Bar(nil), s.bars...),
		Glow:           s.glowShadow,
	}
}

// ToJSON returns the surface as a map suitable for a pushView event.
func (s *Surface) ToJSON() map[string]interface{} {
	snap := s.Snapshot()
	return map[string]interface{}{
		"title":          snap.Title,
		"playLabel":      snap.PlayLabel,
		"artClasses":     snap.ArtClasses,
		"albumArt":       snap.AlbumArt,
		"pageBackground": snap.PageBackground,
		"pageTransition": snap.PageTransition,
		"progress":       snap.Progress,
		"volume":         snap.Volume,
		"containerWidth": snap.ContainerWidth,
		"bars":           snap.Bars,
		"glow":           snap.Glow,
	}
}

// EffectJSON returns only the effect elements, for pushEffect frames.
func (s *Surface) EffectJSON() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"bars": append([]Bar(nil), s.bars...),
		"glow": s.glowShadow,
	}
}
