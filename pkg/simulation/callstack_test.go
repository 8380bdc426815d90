package simulation

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/entrypoint/methods"
	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

func TestReduceCallStackDiscardsCreateFields(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	events := []tracer.CallEvent{
		{Type: "CREATE2", From: common.HexToAddress("0x2222222222222222222222222222222222222222"), To: &to},
		{Type: "RETURN", Data: []byte("ignored")},
	}
	entries := ReduceCallStack(events)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Ret != nil || entries[0].Method != "" {
		t.Fatalf("got %+v, want method/ret cleared for CREATE frame", entries[0])
	}
}

// TestReduceCallStackPreservesCallType covers the bug where a popped CALL frame was emitted with
// Type set to the terminating RETURN/REVERT event instead of the call-kind itself.
func TestReduceCallStackPreservesCallType(t *testing.T) {
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	from := common.HexToAddress("0x4444444444444444444444444444444444444444")
	sel := methods.ValidatePaymasterUserOpSelector
	ret := []byte("validate-ok")
	events := []tracer.CallEvent{
		{Type: "CALL", From: from, To: &to, Method: sel[:]},
		{Type: "RETURN", Data: ret},
	}

	entries := ReduceCallStack(events)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Type != "CALL" {
		t.Fatalf("got Type %q, want CALL", entry.Type)
	}
	if entry.Method != validatePaymasterUserOpMethod {
		t.Fatalf("got Method %q, want %q", entry.Method, validatePaymasterUserOpMethod)
	}
	if string(entry.Ret) != string(ret) {
		t.Fatalf("got Ret %q, want %q", entry.Ret, ret)
	}
	if entry.From != from || entry.To != to {
		t.Fatalf("got From/To %s/%s, want %s/%s", entry.From, entry.To, from, to)
	}
}

func TestReduceCallStackIgnoresPopOnEmptyStack(t *testing.T) {
	entries := ReduceCallStack([]tracer.CallEvent{{Type: "RETURN"}})
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

type fakeReputation struct {
	err error
}

func (f *fakeReputation) VerifyStake(ctx context.Context, entity string, stake StakeInfo) error {
	return f.err
}

func encodeValidatePaymasterUserOpReturn(t *testing.T, context []byte) []byte {
	t.Helper()
	bytesType, _ := abi.NewType("bytes", "", nil)
	uintType, _ := abi.NewType("uint256", "", nil)
	args := abi.Arguments{{Type: bytesType}, {Type: uintType}}
	packed, err := args.Pack(context, big.NewInt(0))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return packed
}

// TestCheckCallStackUnstakedPaymasterWithContext covers scenario E: a paymaster returning a non-empty
// context while failing the reputation check must be rejected.
func TestCheckCallStackUnstakedPaymasterWithContext(t *testing.T) {
	paymaster := common.HexToAddress("0xabababababababababababababababababababab")
	vec := EntityVector{}
	vec[Paymaster] = StakeInfo{Address: paymaster, Stake: big.NewInt(0), UnstakeDelaySec: big.NewInt(0)}

	entries := []CallEntry{{
		Method: validatePaymasterUserOpMethod,
		To:     paymaster,
		Ret:    encodeValidatePaymasterUserOpReturn(t, []byte{0x01}),
	}}

	err := CheckCallStack(context.Background(), entries, vec, &fakeReputation{err: errors.New("not staked")})
	simErr, ok := err.(*SimulationError)
	if !ok {
		t.Fatalf("got %v, want *SimulationError", err)
	}
	if simErr.Kind != CallStackValidation {
		t.Fatalf("got kind %v, want CallStackValidation", simErr.Kind)
	}
}

func TestCheckCallStackEmptyContextAllowed(t *testing.T) {
	paymaster := common.HexToAddress("0xabababababababababababababababababababab")
	vec := EntityVector{}
	vec[Paymaster] = StakeInfo{Address: paymaster, Stake: big.NewInt(0), UnstakeDelaySec: big.NewInt(0)}

	entries := []CallEntry{{
		Method: validatePaymasterUserOpMethod,
		To:     paymaster,
		Ret:    encodeValidatePaymasterUserOpReturn(t, nil),
	}}

	if err := CheckCallStack(context.Background(), entries, vec, &fakeReputation{err: errors.New("not staked")}); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestCheckCallStackNoPaymaster(t *testing.T) {
	var vec EntityVector
	if err := CheckCallStack(context.Background(), nil, vec, &fakeReputation{}); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}
