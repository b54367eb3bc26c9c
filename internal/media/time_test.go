package media

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTime_Reduces(t *testing.T) {
	assert.Equal(t, Time{Value: 2, Scale: 1}, NewTime(1200, 600))
	assert.Equal(t, Time{Value: 1, Scale: 30}, NewTime(20, 600))
	assert.Equal(t, Time{Value: 3, Scale: 1}, NewTime(3, 0), "non-positive scale is treated as 1")
}

func TestTime_Add(t *testing.T) {
	tests := []struct {
		name string
		a, b Time
		want Time
	}{
		{"same scale", TimeFromSeconds(2), TimeFromSeconds(3), TimeFromSeconds(5)},
		{"mixed scales", NewTime(1, 3), NewTime(1, 6), NewTime(1, 2)},
		{"ntsc frames", NewTime(1001, 30000), NewTime(1001, 30000), NewTime(1001, 15000)},
		{"zero value operand", Time{}, TimeFromSeconds(4), TimeFromSeconds(4)},
		{"to zero", Zero, NewTime(7, 600), NewTime(7, 600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Add(tt.b)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestTime_AddIsExactForDecimalDurations(t *testing.T) {
	// 0.1 + 0.2 drifts in float64; the rational sum must not.
	a, err := ParseSeconds("0.1")
	require.NoError(t, err)
	b, err := ParseSeconds("0.2")
	require.NoError(t, err)

	want, err := ParseSeconds("0.3")
	require.NoError(t, err)
	assert.Equal(t, want, a.Add(b))
}

func TestTime_Sub(t *testing.T) {
	got := TimeFromSeconds(5).Sub(NewTime(1, 2))
	assert.Equal(t, NewTime(9, 2), got)
}

func TestTime_AddOverflowPanics(t *testing.T) {
	maxSeconds := TimeFromSeconds(math.MaxInt64)

	tests := []struct {
		name string
		fn   func() Time
	}{
		{"same scale", func() Time { return maxSeconds.Add(TimeFromSeconds(1)) }},
		{"mixed scales", func() Time { return maxSeconds.Add(NewTime(3, 2)) }},
		{"sub same scale", func() Time { return TimeFromSeconds(math.MinInt64).Sub(TimeFromSeconds(1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { tt.fn() })
		})
	}
}

func TestTime_AddNearLimit(t *testing.T) {
	got := TimeFromSeconds(math.MaxInt64 - 1).Add(TimeFromSeconds(1))
	assert.Equal(t, TimeFromSeconds(math.MaxInt64), got)
}

func TestTime_Compare(t *testing.T) {
	assert.Equal(t, -1, NewTime(1, 3).Compare(NewTime(1, 2)))
	assert.Equal(t, 0, NewTime(2, 4).Compare(NewTime(1, 2)))
	assert.Equal(t, 1, TimeFromSeconds(1).Compare(NewTime(999, 1000)))
}

func TestTime_IsPositive(t *testing.T) {
	assert.True(t, NewTime(1, 600).IsPositive())
	assert.False(t, Zero.IsPositive())
	assert.False(t, Time{}.IsPositive())
	assert.False(t, TimeFromSeconds(-1).IsPositive())
}

func TestTime_Formatting(t *testing.T) {
	assert.Equal(t, "2", TimeFromSeconds(2).String())
	assert.Equal(t, "1/30", NewTime(1, 30).String())
	assert.Equal(t, "2.500000", NewTime(5, 2).FormatSeconds())
	assert.Equal(t, "0.033333", NewTime(1, 30).FormatSeconds())
	assert.InDelta(t, 2.5, NewTime(5, 2).Seconds(), 1e-9)
}

func TestTime_Inverse(t *testing.T) {
	assert.Equal(t, TimeFromSeconds(30), NewTime(1, 30).Inverse())
	assert.Equal(t, NewTime(30000, 1001), NewTime(1001, 30000).Inverse())
	assert.Equal(t, Zero, Zero.Inverse())
}

func TestParseSeconds(t *testing.T) {
	t.Run("decimal", func(t *testing.T) {
		got, err := ParseSeconds(" 10.010000\n")
		require.NoError(t, err)
		assert.Equal(t, NewTime(1001, 100), got)
	})

	t.Run("integer", func(t *testing.T) {
		got, err := ParseSeconds("3")
		require.NoError(t, err)
		assert.Equal(t, TimeFromSeconds(3), got)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseSeconds("N/A")
		assert.ErrorIs(t, err, ErrInvalidTime)
	})
}
