package station

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Backgrounds is the set of page background images, stored as
// image-1.jpg .. image-N.jpg so clients can address them by index.
type Backgrounds struct {
	dir   string
	count int
}

// BackgroundName returns the file name of the background with a 1-based index.
func BackgroundName(index int) string {
	return fmt.Sprintf("image-%d.jpg", index)
}

// NewBackgrounds opens the background directory, creating it if needed, and
// renames its files to the indexed scheme in name order.
func NewBackgrounds(dir string) (*Backgrounds, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create background directory: %w", err)
	}
	b := &Backgrounds{dir: dir}
	if err := b.normalize(); err != nil {
		return nil, err
	}
	log.Info().Int("count", b.count).Str("dir", dir).Msg("Backgrounds ready")
	return b, nil
}

// tempPrefix names backgrounds between the two rename passes. The names are
// visible so files left behind by an interrupted run are picked up next time.
const tempPrefix = "__renaming-"

// normalize renames in two passes so an existing image-N.jpg is never
// overwritten before it has been moved.
func (b *Backgrounds) normalize() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("read backgrounds: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, e.Name())
		}
	}
	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i], files[j]) })

	existing := make(map[string]bool, len(files))
	for _, f := range files {
		existing[f] = true
	}

	temps := make([]string, len(files))
	next := 1
	for i, f := range files {
		name := fmt.Sprintf("%s%d", tempPrefix, next)
		for existing[name] {
			next++
			name = fmt.Sprintf("%s%d", tempPrefix, next)
		}
		next++
		temps[i] = filepath.Join(b.dir, name)
		if err := os.Rename(filepath.Join(b.dir, f), temps[i]); err != nil {
			return fmt.Errorf("rename background %s: %w", f, err)
		}
	}
	for i, tmp := range temps {
		if err := os.Rename(tmp, filepath.Join(b.dir, BackgroundName(i+1))); err != nil {
			return fmt.Errorf("rename background %d: %w", i+1, err)
		}
	}

	b.count = len(files)
	return nil
}

// Count returns the number of backgrounds.
func (b *Backgrounds) Count() int {
	return b.count
}

// Dir returns the background directory.
func (b *Backgrounds) Dir() string {
	return b.dir
}

// Pick returns a random 1-based background index, or 0 if there are none.
func (b *Backgrounds) Pick(rnd *rand.Rand) int {
	if b.count == 0 {
		return 0
	}
	return rnd.Intn(b.count) + 1
}

// naturalLess orders names so image-2 sorts before image-10.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := leadingDigits(a), leadingDigits(b)
		if da != "" && db != "" {
			if len(da) != len(db) {
				return len(da) < len(db)
			}
			if da != db {
				return da < db
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
