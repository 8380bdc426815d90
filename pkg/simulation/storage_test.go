package simulation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
	"github.com/entrypointlabs/uopguard/pkg/userop"
)

func leftPad32(addr common.Address) []byte {
	padded := make([]byte, 12, 32)
	return append(padded, addr.Bytes()...)
}

func hexNoPrefix(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

// TestCheckStorageAccessAssociatedSlotZeroStake covers scenario D: a slot derived from hashing the
// paymaster's left-padded address, with the paymaster unstaked, must be rejected.
func TestCheckStorageAccessAssociatedSlotZeroStake(t *testing.T) {
	paymaster := common.HexToAddress("0xabababababababababababababababababababab")
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

	preimage := append(leftPad32(paymaster), []byte{0x01}...)
	derivedSlot := crypto.Keccak256Hash(preimage)

	frame := &tracer.TraceFrame{Keccak: [][]byte{preimage}}
	frame.NumberLevels[Paymaster].Access = map[common.Address]*tracer.SlotAccess{
		paymaster: {Reads: []string{hexNoPrefix(derivedSlot.Bytes())}},
	}

	op := &userop.UserOperation{Sender: sender}
	vec := EntityVector{}
	vec[Paymaster] = StakeInfo{Address: paymaster, Stake: big.NewInt(0), UnstakeDelaySec: big.NewInt(0)}

	slotsByEntity := BuildSlotsByEntity(frame, vec)
	err := CheckStorageAccess(op, vec, frame, entryPoint, slotsByEntity)

	simErr, ok := err.(*SimulationError)
	if !ok {
		t.Fatalf("got %v, want *SimulationError", err)
	}
	if simErr.Kind != StorageAccessValidation {
		t.Fatalf("got kind %v, want StorageAccessValidation", simErr.Kind)
	}
}

func TestCheckStorageAccessUnassociatedSlotRejected(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	frame := &tracer.TraceFrame{}
	frame.NumberLevels[Account].Access = map[common.Address]*tracer.SlotAccess{
		other: {Reads: []string{"01"}},
	}

	op := &userop.UserOperation{Sender: sender}
	vec := EntityVector{}
	vec[Account] = StakeInfo{Address: sender, Stake: big.NewInt(0), UnstakeDelaySec: big.NewInt(0)}

	err := CheckStorageAccess(op, vec, frame, entryPoint, map[common.Address]SlotSet{})
	if err == nil {
		t.Fatal("got nil, want err for unassociated slot")
	}
}
