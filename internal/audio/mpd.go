package audio

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MediaPath is where the client serves the current source for MPD to fetch.
const MediaPath = "/media/current"

// MPDControl is the subset of the MPD client the MPD backend needs.
type MPDControl interface {
	Replace(uri string) error
	State() (string, error)
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
	SeekCur(pos time.Duration) error
	Elapsed() (time.Duration, error)
	AudioFormat() (string, error)
}

// MPD plays sources through an MPD daemon. The daemon fetches the audio over
// HTTP from the handler returned by SourceHandler.
type MPD struct {
	mpd     MPDControl
	baseURL string
	probe   func([]byte) (Metadata, error)

	mu       sync.RWMutex
	gen      uint64
	data     []byte
	mime     string
	loaded   bool
	duration time.Duration
}

// NewMPD creates an MPD backend. baseURL is the address MPD uses to reach this
// process, e.g. "http://192.168.1.10:3001".
func NewMPD(control MPDControl, baseURL string) *MPD {
	return &MPD{
		mpd:     control,
		baseURL: baseURL,
		probe:   ProbeMP3,
	}
}

// SourceURL returns the URL MPD is given for load generation gen.
func (m *MPD) SourceURL(gen uint64) string {
	return m.baseURL + MediaPath + "?gen=" + strconv.FormatUint(gen, 10)
}

// Load publishes the source and points MPD at it.
func (m *MPD) Load(src Source, done func(Metadata, error)) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.data = src.Data
	m.mime = src.MIME
	m.loaded = false
	m.duration = 0
	m.mu.Unlock()

	go func() {
		meta, err := m.load(gen, src)
		if err != nil {
			log.Error().Err(err).Msg("MPD load failed")
		}
		done(meta, err)
	}()
}

func (m *MPD) load(gen uint64, src Source) (Metadata, error) {
	meta, err := m.probe(src.Data)
	if err != nil {
		return Metadata{}, err
	}

	if err := m.mpd.Stop(); err != nil {
		log.Debug().Err(err).Msg("MPD stop before load failed")
	}
	if err := m.mpd.Replace(m.SourceURL(gen)); err != nil {
		return Metadata{}, fmt.Errorf("queue source: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.gen {
		m.loaded = true
		m.duration = meta.Duration
	}
	return meta, nil
}

// Play starts or resumes playback.
func (m *MPD) Play() error {
	if !m.isLoaded() {
		return ErrNotLoaded
	}
	state, err := m.mpd.State()
	if err != nil {
		return err
	}
	if state == "pause" {
		return m.mpd.Pause(false)
	}
	if state == "play" {
		return nil
	}
	if err := m.mpd.Play(0); err != nil {
		return err
	}
	if format, err := m.mpd.AudioFormat(); err == nil {
		if f, ok := ParseMPDFormat(format); ok {
			log.Debug().Str("format", f.String()).Msg("MPD output format")
		}
	}
	return nil
}

// Pause pauses playback.
func (m *MPD) Pause() error {
	if !m.isLoaded() {
		return ErrNotLoaded
	}
	return m.mpd.Pause(true)
}

// Seek moves the play position.
func (m *MPD) Seek(pos time.Duration) error {
	if !m.isLoaded() {
		return ErrNotLoaded
	}
	return m.mpd.SeekCur(clampSeek(pos, m.Duration()))
}

// Position returns MPD's elapsed time for the current song.
func (m *MPD) Position() time.Duration {
	if !m.isLoaded() {
		return 0
	}
	elapsed, err := m.mpd.Elapsed()
	if err != nil {
		log.Debug().Err(err).Msg("MPD elapsed unavailable")
		return 0
	}
	return elapsed
}

// Duration returns the loaded source duration.
func (m *MPD) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

func (m *MPD) isLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Close stops MPD playback.
func (m *MPD) Close() error {
	return m.mpd.Stop()
}

// SourceHandler serves the current source bytes.
func (m *MPD) SourceHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		data := m.data
		mime := m.mime
		gen := m.gen
		m.mu.RUnlock()

		if data == nil {
			http.Error(w, "no media loaded", http.StatusNotFound)
			return
		}
		if want := r.URL.Query().Get("gen"); want != "" && want != strconv.FormatUint(gen, 10) {
			http.Error(w, "media superseded", http.StatusGone)
			return
		}
		if mime == "" {
			mime = "audio/mpeg"
		}
		w.Header().Set("Content-Type", mime)
		http.ServeContent(w, r, "current", time.Time{}, bytes.NewReader(data))
	})
}
