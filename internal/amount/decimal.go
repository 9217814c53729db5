package amount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a decimal string such as "8.991". Digits beyond Decimals are
// truncated.
func Parse[U Unit](input string) (Amount[U], error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Amount[U]{}, fmt.Errorf("parse %s: empty value", unitName[U]())
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return Amount[U]{}, fmt.Errorf("parse %s %q: %w", unitName[U](), input, err)
	}
	return FromDecimal[U](d)
}

// FromDecimal scales d and truncates it toward zero.
func FromDecimal[U Unit](d decimal.Decimal) (Amount[U], error) {
	if d.IsNegative() {
		return Amount[U]{}, fmt.Errorf("%s %s: %w", unitName[U](), d, ErrUnderflow)
	}
	raw := d.Shift(Decimals).Truncate(0).BigInt()
	if !raw.IsUint64() {
		return Amount[U]{}, fmt.Errorf("%s %s: %w", unitName[U](), d, ErrOverflow)
	}
	return Amount[U]{raw: raw.Uint64()}, nil
}

// Decimal returns the exact decimal value.
func (a Amount[U]) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.raw), -Decimals)
}

func (a Amount[U]) String() string {
	return a.Decimal().String()
}

// MarshalJSON encodes the amount as a decimal string so no precision is lost
// in JSON number handling.
func (a Amount[U]) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (a *Amount[U]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	parsed, err := Parse[U](text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
