package amount

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Decimals is the number of decimal digits every quantity keeps.
const Decimals = 6

// Scale is the fixed-point multiplier, 10^Decimals.
const Scale uint64 = 1_000_000

var (
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrUnderflow      = errors.New("fixed-point underflow")
	ErrDivisionByZero = errors.New("fixed-point division by zero")
)

// Amount is a non-negative decimal carried as raw = value * Scale. The unit
// parameter only exists at compile time and keeps different quantities apart.
type Amount[U Unit] struct {
	raw uint64
}

// FromRaw wraps an already scaled integer.
func FromRaw[U Unit](raw uint64) Amount[U] {
	return Amount[U]{raw: raw}
}

// FromUnits converts a whole number of units into its scaled form.
func FromUnits[U Unit](units uint64) (Amount[U], error) {
	if units > math.MaxUint64/Scale {
		return Amount[U]{}, fmt.Errorf("%d %s: %w", units, unitName[U](), ErrOverflow)
	}
	return Amount[U]{raw: units * Scale}, nil
}

// MustUnits is like FromUnits but panics on overflow. It is meant for
// constants and tests.
func MustUnits[U Unit](units uint64) Amount[U] {
	a, err := FromUnits[U](units)
	if err != nil {
		panic(err)
	}
	return a
}

// FromFloat scales a float and truncates toward zero. The conversion is lossy:
// NaN and negative values become zero, values past the range saturate.
func FromFloat[U Unit](value float64) Amount[U] {
	scaled := value * float64(Scale)
	switch {
	case math.IsNaN(scaled) || scaled <= 0:
		return Amount[U]{}
	case scaled >= math.MaxUint64:
		return Amount[U]{raw: math.MaxUint64}
	}
	return Amount[U]{raw: uint64(scaled)}
}

// Raw returns the scaled integer.
func (a Amount[U]) Raw() uint64 {
	return a.raw
}

func (a Amount[U]) IsZero() bool {
	return a.raw == 0
}

// Cmp returns -1, 0 or 1.
func (a Amount[U]) Cmp(b Amount[U]) int {
	switch {
	case a.raw < b.raw:
		return -1
	case a.raw > b.raw:
		return 1
	}
	return 0
}

func (a Amount[U]) Less(b Amount[U]) bool {
	return a.raw < b.raw
}

func (a Amount[U]) Greater(b Amount[U]) bool {
	return a.raw > b.raw
}

// Min returns the smaller of a and b.
func (a Amount[U]) Min(b Amount[U]) Amount[U] {
	if b.raw < a.raw {
		return b
	}
	return a
}

// Max returns the larger of a and b.
func (a Amount[U]) Max(b Amount[U]) Amount[U] {
	if b.raw > a.raw {
		return b
	}
	return a
}

func (a Amount[U]) Add(b Amount[U]) (Amount[U], error) {
	sum := a.raw + b.raw
	if sum < a.raw {
		return Amount[U]{}, fmt.Errorf("%s + %s: %w", a, b, ErrOverflow)
	}
	return Amount[U]{raw: sum}, nil
}

// Sub returns a - b. Going below zero is reported as ErrUnderflow instead of
// wrapping around.
func (a Amount[U]) Sub(b Amount[U]) (Amount[U], error) {
	if b.raw > a.raw {
		return Amount[U]{}, fmt.Errorf("%s - %s: %w", a, b, ErrUnderflow)
	}
	return Amount[U]{raw: a.raw - b.raw}, nil
}

// Mul returns a*b/Scale truncated toward zero.
func (a Amount[U]) Mul(b Amount[U]) (Amount[U], error) {
	raw, err := mulDiv(a.raw, b.raw, Scale)
	if err != nil {
		return Amount[U]{}, fmt.Errorf("%s * %s: %w", a, b, err)
	}
	return Amount[U]{raw: raw}, nil
}

// Div returns a*Scale/b truncated toward zero.
func (a Amount[U]) Div(b Amount[U]) (Amount[U], error) {
	raw, err := mulDiv(a.raw, Scale, b.raw)
	if err != nil {
		return Amount[U]{}, fmt.Errorf("%s / %s: %w", a, b, err)
	}
	return Amount[U]{raw: raw}, nil
}

// MulDiv computes x*y/d with a 256-bit intermediate, truncating. The result
// must fit back into 64 bits.
func MulDiv(x, y, d uint64) (uint64, error) {
	return mulDiv(x, y, d)
}

func mulDiv(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(x), uint256.NewInt(y), uint256.NewInt(d))
	if overflow || !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}
