package pool

import (
	"errors"
	"fmt"

	"unstakePool/internal/amount"
)

// AddLiquidity errors.
var (
	ErrNoTokensProvided  = errors.New("add liquidity was called without any tokens")
	ErrTokenAmountTooBig = errors.New("token amount too big")
)

// RemoveLiquidity errors.
var (
	ErrNotEnoughTokens             = errors.New("not enough lp tokens in the pool")
	ErrWithdrawCalculationOverflow = errors.New("withdraw calculation overflow")
)

// Swap errors.
var (
	ErrZeroTokensAsArgument = errors.New("swap was called with zero tokens")
	ErrPoolNotEnoughTokens  = errors.New("pool does not hold enough tokens")
)

// ErrInvariantViolation reports arithmetic that correct pool state never
// produces. The wrapped amount error says which primitive failed.
var ErrInvariantViolation = errors.New("pool invariant violation")

// NotEnoughTokensError is returned when more LP tokens are burned than exist.
type NotEnoughTokensError struct {
	WithdrawAmount amount.LpToken
	PoolCapacity   amount.LpToken
}

func (e *NotEnoughTokensError) Error() string {
	return fmt.Sprintf("%s: withdraw %s, outstanding %s", ErrNotEnoughTokens, e.WithdrawAmount, e.PoolCapacity)
}

func (e *NotEnoughTokensError) Is(target error) bool {
	return target == ErrNotEnoughTokens
}

// PoolNotEnoughTokensError is returned when a swap would pay out more tokens
// than the reserve holds.
type PoolNotEnoughTokensError struct {
	TokenAmount  amount.Token
	PoolCapacity amount.Token
}

func (e *PoolNotEnoughTokensError) Error() string {
	return fmt.Sprintf("%s: requested %s, reserve %s", ErrPoolNotEnoughTokens, e.TokenAmount, e.PoolCapacity)
}

func (e *PoolNotEnoughTokensError) Is(target error) bool {
	return target == ErrPoolNotEnoughTokens
}

func invariant(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInvariantViolation, err)
}
