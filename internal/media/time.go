package media

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidTime is returned when a time string cannot be parsed or does not
// fit a 64-bit rational.
var ErrInvalidTime = errors.New("media: invalid time value")

// Zero is the zero time, 0/1 seconds.
var Zero = Time{Value: 0, Scale: 1}

// Time is an exact rational time in seconds: Value/Scale.
// Values built through NewTime or arithmetic are always reduced, so two equal
// times compare equal with ==.
type Time struct {
	Value int64
	Scale int64
}

// NewTime returns value/scale seconds in reduced form.
// A non-positive scale is treated as 1.
func NewTime(value, scale int64) Time {
	if scale <= 0 {
		scale = 1
	}
	t, _ := fromRat(new(big.Rat).SetFrac64(value, scale))
	return t
}

// TimeFromSeconds returns a whole number of seconds.
func TimeFromSeconds(seconds int64) Time {
	return Time{Value: seconds, Scale: 1}
}

// ParseSeconds parses a decimal seconds string such as ffprobe's "10.010000"
// without going through float64.
func ParseSeconds(s string) (Time, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return fromRat(r)
}

// Add returns t+o. The sum is computed on a common denominator, so it is
// exact. It panics if the result does not fit Time.
func (t Time) Add(o Time) Time {
	return mustFromRat(new(big.Rat).Add(t.rat(), o.rat()))
}

// Sub returns t-o. It panics if the result does not fit Time.
func (t Time) Sub(o Time) Time {
	return mustFromRat(new(big.Rat).Sub(t.rat(), o.rat()))
}

// Compare returns -1, 0 or +1 as t is before, equal to or after o.
func (t Time) Compare(o Time) int {
	return t.rat().Cmp(o.rat())
}

// Equal reports whether t and o are the same instant, regardless of scale.
func (t Time) Equal(o Time) bool {
	return t.Compare(o) == 0
}

// IsPositive reports whether t > 0.
func (t Time) IsPositive() bool {
	return t.Value > 0 && t.scale() > 0
}

// Seconds returns t as a float. Use only for display and logging.
func (t Time) Seconds() float64 {
	f, _ := t.rat().Float64()
	return f
}

// FormatSeconds returns t as a fixed six-decimal string, the form ffmpeg
// accepts for durations and filter expressions.
func (t Time) FormatSeconds() string {
	return t.rat().FloatString(6)
}

// Inverse returns 1/t, used to turn a frame duration into a frame rate.
// The inverse of zero is zero.
func (t Time) Inverse() Time {
	if t.Value == 0 {
		return Zero
	}
	return NewTime(t.scale(), t.Value)
}

func (t Time) String() string {
	if t.scale() == 1 {
		return fmt.Sprintf("%d", t.Value)
	}
	return fmt.Sprintf("%d/%d", t.Value, t.scale())
}

func (t Time) scale() int64 {
	if t.Scale <= 0 {
		return 1
	}
	return t.Scale
}

func (t Time) rat() *big.Rat {
	return new(big.Rat).SetFrac64(t.Value, t.scale())
}

// mustFromRat panics on overflow; int64 seconds overflowing is not a
// realistic media duration.
func mustFromRat(r *big.Rat) Time {
	t, err := fromRat(r)
	if err != nil {
		panic(err)
	}
	return t
}

func fromRat(r *big.Rat) (Time, error) {
	num, den := r.Num(), r.Denom()
	if !num.IsInt64() || !den.IsInt64() {
		return Time{}, fmt.Errorf("%w: %s overflows int64", ErrInvalidTime, r.String())
	}
	return Time{Value: num.Int64(), Scale: den.Int64()}, nil
}
