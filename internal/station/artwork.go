package station

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// DefaultArtworkSize bounds the longest side of stored album art in pixels.
const DefaultArtworkSize = 500

// Artwork shrinks uploaded album art so song documents stay small. Clients
// render the image as a PNG data URL, so output is always PNG.
type Artwork struct {
	maxSize int
}

// NewArtwork creates a downsizer. maxSize <= 0 selects DefaultArtworkSize.
func NewArtwork(maxSize int) *Artwork {
	if maxSize <= 0 {
		maxSize = DefaultArtworkSize
	}
	return &Artwork{maxSize: maxSize}
}

// Downsize decodes base64 image data and returns it re-encoded as base64 PNG
// fitting within the configured size. PNGs that already fit are returned
// unchanged; other formats are converted. A data URL prefix is accepted and
// stripped.
func (a *Artwork) Downsize(encoded string) (string, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	fits := bounds.Dx() <= a.maxSize && bounds.Dy() <= a.maxSize
	if fits && format == "png" {
		return encoded, nil
	}

	var buf bytes.Buffer
	if fits {
		log.Debug().Str("format", format).Msg("Converting album art to PNG")
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to encode image: %w", err)
		}
		return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	}

	log.Debug().
		Str("format", format).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("max", a.maxSize).
		Msg("Downsizing album art")

	if err := png.Encode(&buf, a.resize(img)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resize scales an image to fit within maxSize while maintaining aspect ratio.
func (a *Artwork) resize(src image.Image) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	var newW, newH int
	if srcW > srcH {
		newW = a.maxSize
		newH = max(1, int(float64(srcH)*float64(a.maxSize)/float64(srcW)))
	} else {
		newH = a.maxSize
		newW = max(1, int(float64(srcW)*float64(a.maxSize)/float64(srcH)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))

	// Scale using CatmullRom (high quality)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return dst
}
