package tracer

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseSegmentsByLevel(t *testing.T) {
	raw := &CollectorReturn{
		CallsFromEntryPoint: []CallFromEntryPointInfo{
			{Opcodes: map[string]uint64{"TIMESTAMP": 1}},
			{Opcodes: map[string]uint64{"SLOAD": 2}},
		},
		Keccak: []string{"deadbeef", "0xcafebabe"},
	}

	frame, err := Parse(raw)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if frame.NumberLevels[0].Opcodes["TIMESTAMP"] != 1 {
		t.Fatalf("got %v, want level 0 TIMESTAMP=1", frame.NumberLevels[0].Opcodes)
	}
	if frame.NumberLevels[1].Opcodes["SLOAD"] != 2 {
		t.Fatalf("got %v, want level 1 SLOAD=2", frame.NumberLevels[1].Opcodes)
	}
	if len(frame.NumberLevels[2].Opcodes) != 0 {
		t.Fatalf("got %v, want level 2 empty", frame.NumberLevels[2].Opcodes)
	}
	if len(frame.Keccak) != 2 {
		t.Fatalf("got %d preimages, want 2", len(frame.Keccak))
	}
}

func TestParseCallsPrefersReturnOverData(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	raw := &CollectorReturn{
		Calls: []RawCall{
			{Type: "RETURN", To: &to, Return: []byte("ret"), Data: []byte("data")},
		},
	}
	frame, err := Parse(raw)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if string(frame.Calls[0].Data) != "ret" {
		t.Fatalf("got %s, want ret", frame.Calls[0].Data)
	}
}

// TestCollectorReturnUnmarshalsHexStrings covers the wire format a real node sends: the collector
// tracer emits Method/Value/Data/Return/Revert as 0x-prefixed hex JSON strings, not byte arrays, so
// CollectorReturn must decode them via hexutil rather than plain []byte/*big.Int.
func TestCollectorReturnUnmarshalsHexStrings(t *testing.T) {
	raw := []byte(`{
		"callsFromEntryPoint": [
			{"topLevelMethodSig": "0xb760faf9", "topLevelTargetAddress": "0x1111111111111111111111111111111111111111"}
		],
		"calls": [
			{
				"type": "CALL",
				"from": "0x1111111111111111111111111111111111111111",
				"to": "0x2222222222222222222222222222222222222222",
				"method": "0xb760faf9",
				"value": "0x2a",
				"data": "0xdeadbeef",
				"return": "0xc0ffee",
				"revert": "0x"
			}
		]
	}`)

	var parsed CollectorReturn
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("got %v, want nil", err)
	}

	if got, want := parsed.CallsFromEntryPoint[0].TopLevelMethodSig.String(), "0xb760faf9"; got != want {
		t.Fatalf("got TopLevelMethodSig %s, want %s", got, want)
	}

	call := parsed.Calls[0]
	if got, want := call.Method.String(), "0xb760faf9"; got != want {
		t.Fatalf("got Method %s, want %s", got, want)
	}
	if call.Value == nil || call.Value.ToInt().Int64() != 42 {
		t.Fatalf("got Value %v, want 42", call.Value)
	}
	if got, want := call.Data.String(), "0xdeadbeef"; got != want {
		t.Fatalf("got Data %s, want %s", got, want)
	}
	if got, want := call.Return.String(), "0xc0ffee"; got != want {
		t.Fatalf("got Return %s, want %s", got, want)
	}

	frame, err := Parse(&parsed)
	if err != nil {
		t.Fatalf("Parse: got %v, want nil", err)
	}
	if frame.Calls[0].Value == nil || frame.Calls[0].Value.Int64() != 42 {
		t.Fatalf("got parsed Value %v, want 42", frame.Calls[0].Value)
	}
	if string(frame.Calls[0].Method) != string([]byte{0xb7, 0x60, 0xfa, 0xf9}) {
		t.Fatalf("got parsed Method %x, want b760faf9", frame.Calls[0].Method)
	}
}

func TestParseSkipsUndecodableKeccak(t *testing.T) {
	raw := &CollectorReturn{Keccak: []string{"zz"}}
	frame, err := Parse(raw)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(frame.Keccak) != 0 {
		t.Fatalf("got %d preimages, want 0", len(frame.Keccak))
	}
}
