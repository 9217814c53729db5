package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"unstakePool/internal/amount"
)

func TestOperationDecodeAmountForms(t *testing.T) {
	lines := []string{
		`{"seq":1,"op":"swap","amount":"6"}`,
		`{"seq":1,"op":"swap","amount":6}`,
		`{"seq":1,"op":"swap","amount":"6.000000"}`,
	}
	for _, line := range lines {
		var op Operation
		if err := json.Unmarshal([]byte(line), &op); err != nil {
			t.Fatalf("decode %s: %v", line, err)
		}
		if op.Seq != 1 || op.Op != OpSwap || !op.Amount.Equal(decimal.NewFromInt(6)) {
			t.Fatalf("decode %s: got %+v", line, op)
		}
		if err := op.Validate(); err != nil {
			t.Fatalf("validate %s: %v", line, err)
		}
	}
}

func TestOperationValidate(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		ok   bool
	}{
		{name: "add", op: Operation{Op: OpAddLiquidity, Amount: decimal.NewFromInt(1)}, ok: true},
		{name: "remove zero", op: Operation{Op: OpRemoveLiquidity}, ok: true},
		{name: "missing op", op: Operation{Amount: decimal.NewFromInt(1)}},
		{name: "unknown op", op: Operation{Op: "stake", Amount: decimal.NewFromInt(1)}},
		{name: "negative", op: Operation{Op: OpSwap, Amount: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		err := tc.op.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestOperationResultOmitsUnsetOutputs(t *testing.T) {
	out := amount.MustUnits[amount.TokenUnit](9)
	res := OperationResult{Seq: 3, Op: OpSwap, Amount: "6", OK: true, TokenOut: &out}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["token_out"] != "9" {
		t.Fatalf("token_out should be the decimal string 9, got %v", decoded["token_out"])
	}
	for _, key := range []string{"lp_minted", "staked_out", "error"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("%s should be omitted", key)
		}
	}
	if _, ok := decoded["state"].(map[string]interface{}); !ok {
		t.Fatalf("state should be an object")
	}
}
