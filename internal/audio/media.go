// Package audio provides the media backends the player drives: in-process
// mp3 playback, an MPD daemon, or a silent clock for headless use.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep/mp3"
)

// Backend names accepted by the client command.
const (
	BackendSpeaker = "speaker"
	BackendMPD     = "mpd"
	BackendClock   = "clock"
)

// ErrNotLoaded is returned by transport operations before a source finished loading.
var ErrNotLoaded = errors.New("no media loaded")

// Source is an audio payload to load.
type Source struct {
	Data []byte
	MIME string
}

// Metadata is reported once a source finished loading.
type Metadata struct {
	Duration time.Duration
	Format   Format
}

// Media is the audio element the player controls.
//
// Load replaces the current source and stops playback. done is called exactly
// once per Load, from any goroutine, when the source is ready or failed.
type Media interface {
	Load(src Source, done func(Metadata, error))
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Close() error
}

var (
	_ Media = (*Clock)(nil)
	_ Media = (*Speaker)(nil)
	_ Media = (*MPD)(nil)
)

// ProbeMP3 decodes the mp3 header and returns its duration and format
// without playing it.
func ProbeMP3(data []byte) (Metadata, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return Metadata{}, fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	return Metadata{
		Duration: format.SampleRate.D(streamer.Len()),
		Format: Format{
			SampleRate: int(format.SampleRate),
			BitDepth:   format.Precision * 8,
			Channels:   format.NumChannels,
		},
	}, nil
}

// clampSeek bounds pos to [0, duration] when the duration is known.
func clampSeek(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
