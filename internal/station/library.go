// Package station implements the radio station: the song library, the
// background set and the loop that rotates songs and publishes what every
// client should be playing.
package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidName is returned for song file names that are empty or
	// would escape the library directory.
	ErrInvalidName = errors.New("invalid song file name")

	// ErrSongNotFound is returned when a song file does not exist.
	ErrSongNotFound = errors.New("song not found")
)

// Song is a song document as stored in the library and served by /get-song.
type Song struct {
	Title    string `json:"title"`
	Audio    string `json:"audio"`
	Image    string `json:"image"`
	Duration string `json:"duration,omitempty"`
}

// Seconds returns the parsed duration.
func (s Song) Seconds() int {
	return ParseDuration(s.Duration)
}

// ParseDuration converts "h:mm:ss", "m:ss" or "ss" into seconds. Malformed
// input yields 0.
func ParseDuration(d string) int {
	d = strings.TrimSpace(d)
	if d == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(d, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// Library is a directory of JSON song documents.
type Library struct {
	dir     string
	artwork *Artwork

	mu    sync.RWMutex
	songs []string
}

// NewLibrary opens the library in dir, creating it if needed, and scans it.
// artwork may be nil to store uploaded images unchanged.
func NewLibrary(dir string, artwork *Artwork) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}
	l := &Library{dir: dir, artwork: artwork}
	if err := l.Refresh(); err != nil {
		return nil, err
	}
	return l, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// Refresh rescans the library directory.
func (l *Library) Refresh() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}

	songs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			songs = append(songs, e.Name())
		}
	}
	sort.Strings(songs)

	l.mu.Lock()
	l.songs = songs
	l.mu.Unlock()

	log.Debug().Int("songs", len(songs)).Str("dir", l.dir).Msg("Library scanned")
	return nil
}

// Songs returns the song file names from the last scan, sorted.
func (l *Library) Songs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.songs...)
}

// Path returns the file path of a song.
func (l *Library) Path(name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(l.dir, name), nil
}

// Read returns the raw song document.
func (l *Library) Read(name string) ([]byte, error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrSongNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read song %s: %w", name, err)
	}
	return data, nil
}

// Load reads and decodes a song document.
func (l *Library) Load(name string) (Song, error) {
	data, err := l.Read(name)
	if err != nil {
		return Song{}, err
	}
	var song Song
	if err := json.Unmarshal(data, &song); err != nil {
		return Song{}, fmt.Errorf("decode song %s: %w", name, err)
	}
	return song, nil
}

// Save writes a song document, shrinking its album art first. The library
// is rescanned afterwards.
func (l *Library) Save(name string, song Song) error {
	path, err := l.Path(name)
	if err != nil {
		return err
	}

	if l.artwork != nil && song.Image != "" {
		image, err := l.artwork.Downsize(song.Image)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Album art kept unchanged")
		} else {
			song.Image = image
		}
	}

	data, err := json.MarshalIndent(song, "", "    ")
	if err != nil {
		return fmt.Errorf("encode song %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write song %s: %w", name, err)
	}

	log.Info().Str("file", name).Str("title", song.Title).Msg("Song saved")
	return l.Refresh()
}

// Delete removes a song document.
func (l *Library) Delete(name string) error {
	path, err := l.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrSongNotFound)
		}
		return fmt.Errorf("delete song %s: %w", name, err)
	}

	log.Info().Str("file", name).Msg("Song deleted")
	return l.Refresh()
}

func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
