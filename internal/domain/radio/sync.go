package radio

import (
	"math"
	"time"
)

// SyncOffset returns the play position in seconds for a station clock
// reference: (now mod modulus) - offset. A result below minus half a period
// means the modulus wrapped since the song started and is shifted by one
// period. Smaller negative results come from a client clock running behind
// the station's and clamp to 0.
func SyncOffset(nowSeconds, offset, modulus float64) float64 {
	if modulus <= 0 {
		return 0
	}
	pos := math.Mod(nowSeconds, modulus) - offset
	if pos < -modulus/2 {
		pos += modulus
	}
	if pos < 0 {
		return 0
	}
	return pos
}

// SyncPosition is SyncOffset for a wall-clock time, as a duration.
func SyncPosition(now time.Time, offset, modulus float64) time.Duration {
	nowSeconds := float64(now.UnixNano()) / float64(time.Second)
	return time.Duration(SyncOffset(nowSeconds, offset, modulus) * float64(time.Second))
}
