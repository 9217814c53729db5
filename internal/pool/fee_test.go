package pool

import (
	"testing"

	"unstakePool/internal/amount"
)

func TestFeeCurve(t *testing.T) {
	empty := emptyPool()
	nonEmpty := nonEmptyPool(t)

	cases := []struct {
		name  string
		pool  *Pool
		after amount.Token
		want  amount.Percentage
	}{
		{name: "empty/drained", pool: empty, after: tokens(0), want: percentage(0.09)},
		{name: "empty/target", pool: empty, after: tokens(100), want: percentage(0)},
		{name: "empty/half", pool: empty, after: tokens(50), want: percentage(0.045)},
		{name: "non-empty/drained", pool: nonEmpty, after: tokens(0), want: percentage(0.2)},
		{name: "non-empty/target", pool: nonEmpty, after: tokens(100), want: percentage(0.1)},
		{name: "non-empty/half", pool: nonEmpty, after: tokens(50), want: percentage(0.15)},
		{name: "non-empty/beyond target", pool: nonEmpty, after: tokens(5000), want: percentage(0.1)},
	}

	for _, tc := range cases {
		if got := tc.pool.Fee(tc.after); got != tc.want {
			t.Fatalf("%s: fee = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestFeeHugeReserveDoesNotOverflow(t *testing.T) {
	p := storyPool()
	if got := p.Fee(amount.FromRaw[amount.TokenUnit](^uint64(0))); got != p.MinFee() {
		t.Fatalf("fee = %s, want min fee %s", got, p.MinFee())
	}
}

func TestFeeZeroTarget(t *testing.T) {
	p := Init(price(1), percentage(0.01), percentage(0.05), amount.Token{})
	for _, after := range []amount.Token{{}, tokens(50)} {
		if got := p.Fee(after); got != percentage(0.01) {
			t.Fatalf("fee(%s) = %s, want min fee", after, got)
		}
	}
}

func TestFeeInvertedBounds(t *testing.T) {
	p := Init(price(1), percentage(0.05), percentage(0.01), tokens(100))
	for _, after := range []amount.Token{tokens(0), tokens(50), tokens(500)} {
		if got := p.Fee(after); got != percentage(0.05) {
			t.Fatalf("fee(%s) = %s, want flat 0.05", after, got)
		}
	}
}
