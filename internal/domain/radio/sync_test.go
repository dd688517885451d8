package radio

import (
	"testing"
	"time"
)

func TestSyncOffset(t *testing.T) {
	tests := []struct {
		name    string
		now     float64
		offset  float64
		modulus float64
		want    float64
	}{
		{"in period", 200, 5, 180, 15},
		{"song just started", 185, 5, 180, 0},
		{"modulus wrapped", 181, 170, 180, 11},
		{"station modulus", 1_700_000_123, 100, 100000, 23},
		{"client clock behind station", 999, 1001, 100000, 0},
		{"station wrapped", 3, 99990, 100000, 13},
		{"zero modulus", 200, 5, 0, 0},
		{"negative modulus", 200, 5, -10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SyncOffset(tt.now, tt.offset, tt.modulus)
			if got != tt.want {
				t.Errorf("SyncOffset(%v, %v, %v) = %v, want %v", tt.now, tt.offset, tt.modulus, got, tt.want)
			}
		})
	}
}

func TestSyncPositionClientBehindStation(t *testing.T) {
	if got := SyncPosition(time.Unix(999, 0), 1001, 100000); got != 0 {
		t.Errorf("expected start of song, got %v", got)
	}
}

func TestSyncPosition(t *testing.T) {
	got := SyncPosition(time.Unix(200, 500_000_000), 5, 180)
	if want := 15500 * time.Millisecond; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
