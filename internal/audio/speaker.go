package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog/log"
)

// DefaultSampleRate is the rate the speaker is opened at.
const DefaultSampleRate = beep.SampleRate(44100)

// Speaker plays mp3 sources through the local sound device.
type Speaker struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	bufferSize int
	inited     bool
	gen        uint64

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// NewSpeaker creates a speaker backend. The sound device is opened on first load.
func NewSpeaker() *Speaker {
	return &Speaker{
		sampleRate: DefaultSampleRate,
		bufferSize: DefaultSampleRate.N(time.Second / 10),
	}
}

// Load decodes the source and queues it paused on the speaker.
func (s *Speaker) Load(src Source, done func(Metadata, error)) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.unloadLocked()
	s.mu.Unlock()

	go func() {
		meta, err := s.load(gen, src)
		if err != nil {
			log.Error().Err(err).Msg("Speaker load failed")
		}
		done(meta, err)
	}()
}

func (s *Speaker) load(gen uint64, src Source) (Metadata, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(src.Data)))
	if err != nil {
		return Metadata{}, fmt.Errorf("decode mp3: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		streamer.Close()
		return Metadata{}, fmt.Errorf("load superseded")
	}

	if !s.inited {
		if err := speaker.Init(s.sampleRate, s.bufferSize); err != nil {
			streamer.Close()
			return Metadata{}, fmt.Errorf("init speaker: %w", err)
		}
		s.inited = true
	}

	var out beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		out = beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	}

	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{Streamer: out, Paused: true}
	speaker.Play(s.ctrl)

	return Metadata{
		Duration: format.SampleRate.D(streamer.Len()),
		Format: Format{
			SampleRate: int(format.SampleRate),
			BitDepth:   format.Precision * 8,
			Channels:   format.NumChannels,
		},
	}, nil
}

// unloadLocked stops and releases the current source. Must hold s.mu.
func (s *Speaker) unloadLocked() {
	if s.inited {
		speaker.Clear()
	}
	if s.streamer != nil {
		s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
}

// Play resumes output.
func (s *Speaker) Play() error {
	return s.setPaused(false)
}

// Pause halts output.
func (s *Speaker) Pause() error {
	return s.setPaused(true)
}

func (s *Speaker) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return ErrNotLoaded
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

// Seek moves the play position.
func (s *Speaker) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return ErrNotLoaded
	}
	pos = clampSeek(pos, s.format.SampleRate.D(s.streamer.Len()))
	n := s.format.SampleRate.N(pos)
	if n >= s.streamer.Len() {
		n = s.streamer.Len() - 1
	}
	if n < 0 {
		n = 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	return s.streamer.Seek(n)
}

// Position returns the current play position.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return s.format.SampleRate.D(s.streamer.Position())
}

// Duration returns the loaded source duration.
func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// Close stops output and releases the source.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.unloadLocked()
	return nil
}
