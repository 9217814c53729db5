package amount

import (
	"fmt"

	gmath "github.com/ethereum/go-ethereum/common/math"
)

// Unit tags a quantity. The tags carry no data; they only make Token,
// StakedToken, LpToken, Price and Percentage distinct types.
type Unit interface {
	TokenUnit | StakedTokenUnit | LpTokenUnit | PriceUnit | PercentageUnit
	name() string
}

type (
	TokenUnit       struct{}
	StakedTokenUnit struct{}
	LpTokenUnit     struct{}
	PriceUnit       struct{}
	PercentageUnit  struct{}
)

func (TokenUnit) name() string       { return "token" }
func (StakedTokenUnit) name() string { return "staked token" }
func (LpTokenUnit) name() string     { return "lp token" }
func (PriceUnit) name() string       { return "price" }
func (PercentageUnit) name() string  { return "percentage" }

type (
	// Token is an amount of the unstaked, underlying token.
	Token = Amount[TokenUnit]
	// StakedToken is an amount of the staked token swapped into the pool.
	StakedToken = Amount[StakedTokenUnit]
	// LpToken is an amount of pool shares.
	LpToken = Amount[LpTokenUnit]
	// Price is the number of tokens one staked token is worth.
	Price = Amount[PriceUnit]
	// Percentage is a fraction where 1.0 means 100%.
	Percentage = Amount[PercentageUnit]
)

func unitName[U Unit]() string {
	var u U
	return u.name()
}

// ToToken values a staked amount in tokens at the given price.
func ToToken(staked StakedToken, price Price) (Token, error) {
	raw, err := mulDiv(staked.raw, price.raw, Scale)
	if err != nil {
		return Token{}, err
	}
	return Token{raw: raw}, nil
}

// ApplyFee returns tokens*(1-fee), truncated. A fee above 100% is an underflow.
func ApplyFee(tokens Token, fee Percentage) (Token, error) {
	if fee.raw > Scale {
		return Token{}, ErrUnderflow
	}
	raw, err := mulDiv(tokens.raw, Scale-fee.raw, Scale)
	if err != nil {
		return Token{}, err
	}
	return Token{raw: raw}, nil
}

// LpTokenFromToken returns the LP tokens worth in out of a pool whose total
// value is total and whose outstanding supply is lpTotal: lpTotal*in/total,
// truncated. The product must fit in 64 bits.
func LpTokenFromToken(in, total Token, lpTotal LpToken) (LpToken, error) {
	if total.IsZero() {
		return LpToken{}, ErrDivisionByZero
	}
	product, overflow := gmath.SafeMul(lpTotal.raw, in.raw)
	if overflow {
		return LpToken{}, fmt.Errorf("%s lp * %s tokens: %w", lpTotal, in, ErrOverflow)
	}
	return LpToken{raw: product / total.raw}, nil
}
