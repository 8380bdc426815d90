package tracer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NumberLevel is one entity level's slice of a parsed trace: the opcodes it executed, the storage it
// touched, and the contracts whose size was observed while it ran.
type NumberLevel struct {
	Opcodes      map[string]uint64
	Access       map[common.Address]*SlotAccess
	ContractSize map[common.Address]int
}

// SlotAccess is the set of storage slots read from and written to by one address within one entity level.
type SlotAccess struct {
	Reads  []string
	Writes []string
}

// CallEvent is one flat entry in the trace's call sequence, as emitted by the collector tracer.
type CallEvent struct {
	Type   string
	From   common.Address
	To     *common.Address
	Method []byte
	Value  *big.Int
	Data   []byte
}

// TraceFrame is the normalized representation of a debug_traceCall result against simulateValidation,
// segmented by entity level per §3 of the account-abstraction validation rules.
type TraceFrame struct {
	NumberLevels [3]NumberLevel
	Keccak       [][]byte
	Calls        []CallEvent
}

// Parse converts a raw CollectorReturn (as produced by the embedded JS tracer or a native equivalent)
// into a TraceFrame. A malformed selector or hex string is skipped rather than treated as fatal — the
// raw tracer output is trusted node-side data, not user input.
func Parse(raw *CollectorReturn) (*TraceFrame, error) {
	frame := &TraceFrame{
		Keccak: make([][]byte, 0, len(raw.Keccak)),
		Calls:  make([]CallEvent, 0, len(raw.Calls)),
	}

	for i, lvl := range raw.CallsFromEntryPoint {
		if i >= len(frame.NumberLevels) {
			break
		}
		nl := NumberLevel{
			Opcodes:      lvl.Opcodes,
			Access:       make(map[common.Address]*SlotAccess, len(lvl.Access)),
			ContractSize: make(map[common.Address]int, len(lvl.ContractSize)),
		}
		for addr, info := range lvl.Access {
			if info == nil {
				continue
			}
			sa := &SlotAccess{}
			for slot := range info.Reads {
				sa.Reads = append(sa.Reads, slot)
			}
			for slot := range info.Writes {
				sa.Writes = append(sa.Writes, slot)
			}
			nl.Access[addr] = sa
		}
		for addr, size := range lvl.ContractSize {
			if size == nil {
				continue
			}
			nl.ContractSize[addr] = size.ContractSize
		}
		frame.NumberLevels[i] = nl
	}

	for _, preimageHex := range raw.Keccak {
		b, err := hexToBytes(preimageHex)
		if err != nil {
			continue
		}
		frame.Keccak = append(frame.Keccak, b)
	}

	for _, c := range raw.Calls {
		var value *big.Int
		if c.Value != nil {
			value = c.Value.ToInt()
		}
		frame.Calls = append(frame.Calls, CallEvent{
			Type:   c.Type,
			From:   c.From,
			To:     c.To,
			Method: c.Method,
			Value:  value,
			Data:   firstNonNil(c.Return, c.Revert, c.Data),
		})
	}

	return frame, nil
}

func firstNonNil(candidates ...[]byte) []byte {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func hexToBytes(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, &hexError{c}
	}
}

type hexError struct{ c byte }

func (e *hexError) Error() string { return "tracer: invalid hex digit" }
