package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClockRejectsBadInterval(t *testing.T) {
	_, err := NewClock(time.Now(), 0)
	require.Error(t, err)
	_, err = NewClock(time.Now(), -time.Second)
	require.Error(t, err)
}

func TestHeightAt(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock, err := NewClock(genesis, 10*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want uint64
	}{
		{"before genesis clamps to zero", genesis.Add(-time.Hour), 0},
		{"at genesis", genesis, 0},
		{"just under one interval", genesis.Add(10*time.Minute - time.Second), 0},
		{"exactly one interval", genesis.Add(10 * time.Minute), 1},
		{"one day", genesis.Add(24 * time.Hour), 144},
		{"mid block truncates", genesis.Add(25 * time.Minute), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clock.HeightAt(tt.at))
		})
	}
}

func TestTimeAtRoundTrips(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock, err := NewClock(genesis, 10*time.Minute)
	require.NoError(t, err)

	for _, height := range []uint64{0, 1, 144, 10_000} {
		require.Equal(t, height, clock.HeightAt(clock.TimeAt(height)))
	}
}

func TestHeightUsesInjectedNow(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock, err := NewClock(genesis, 10*time.Minute)
	require.NoError(t, err)

	clock.now = func() time.Time { return genesis.Add(48 * time.Hour) }
	require.Equal(t, uint64(288), clock.Height())
}
