// Package player provides the playback controller for the live radio widget.
package player

// NoSong is the song index cached before the first status arrives.
const NoSong = -1

// Status constants for player state
const (
	StatusPlay  = "play"
	StatusPause = "pause"
)

// State is the playback state owned by the Controller.
type State struct {
	Playing         bool
	SongLoaded      bool
	SongIndex       int
	BackgroundIndex int
}

// NewState returns the state of a freshly constructed player: paused, no song.
func NewState() State {
	return State{SongIndex: NoSong}
}

// Status returns "play" or "pause".
func (s State) Status() string {
	if s.Playing {
		return StatusPlay
	}
	return StatusPause
}

// ToJSON returns the state as a map suitable for JSON serialization.
func (s State) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"status":          s.Status(),
		"playing":         s.Playing,
		"songLoaded":      s.SongLoaded,
		"songIndex":       s.SongIndex,
		"backgroundIndex": s.BackgroundIndex,
	}
}
