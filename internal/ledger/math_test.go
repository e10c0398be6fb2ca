package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/domain"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"zero", 0, 0, 0, false},
		{"simple", 2, 3, 5, false},
		{"max plus zero", math.MaxUint64, 0, math.MaxUint64, false},
		{"max plus one", math.MaxUint64, 1, 0, true},
		{"halves", math.MaxUint64/2 + 1, math.MaxUint64/2 + 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckedAdd(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrOverflow)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCheckedMul(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"zero", 0, math.MaxUint64, 0, false},
		{"simple", 6, 7, 42, false},
		{"max times one", math.MaxUint64, 1, math.MaxUint64, false},
		{"max times two", math.MaxUint64, 2, 0, true},
		{"large square", 1 << 33, 1 << 33, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckedMul(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrOverflow)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
