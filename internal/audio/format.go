package audio

import (
	"strconv"
	"strings"
)

// Format describes the decoded audio of a loaded source.
type Format struct {
	SampleRate int    `json:"sampleRate"` // Hz
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
}

// String returns a short human-readable description, e.g. "44.1kHz/16-bit/2ch".
func (f Format) String() string {
	if f.SampleRate == 0 {
		return "unknown"
	}
	return FormatSampleRate(f.SampleRate) + "/" + FormatBitDepth(f.BitDepth) + "/" + strconv.Itoa(f.Channels) + "ch"
}

// ParseMPDFormat parses MPD's audio format string "samplerate:bits:channels"
// (e.g. "192000:24:2"). ok is false when the string is not in that form.
func ParseMPDFormat(audio string) (f Format, ok bool) {
	parts := strings.Split(audio, ":")
	if len(parts) < 2 {
		return Format{}, false
	}

	sampleRate, err := strconv.Atoi(parts[0])
	if err != nil {
		return Format{}, false
	}

	// MPD reports "f" for float samples
	bitDepth, err := strconv.Atoi(parts[1])
	if err != nil {
		if parts[1] != "f" {
			return Format{}, false
		}
		bitDepth = 32
	}

	channels := 2
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}

	return Format{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
	}, true
}

// FormatSampleRate returns a human-readable sample rate string.
func FormatSampleRate(sampleRate int) string {
	if sampleRate >= 1000 {
		return strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.Itoa(sampleRate) + "Hz"
}

// FormatBitDepth returns a human-readable bit depth string.
func FormatBitDepth(bitDepth int) string {
	return strconv.Itoa(bitDepth) + "-bit"
}
