// Package tracer defines the raw debug_traceCall output shape produced by the bundler-collector style
// tracer and the JS source embedded for nodes that do not ship a native equivalent.
package tracer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallFromEntryPointInfo is the per-entity summary the tracer accumulates for one top-level frame invoked
// directly by the EntryPoint (factory, sender, or paymaster).
type CallFromEntryPointInfo struct {
	TopLevelMethodSig  hexutil.Bytes             `json:"topLevelMethodSig"`
	TopLevelTargetAddress common.Address         `json:"topLevelTargetAddress"`
	Opcodes            map[string]uint64         `json:"opcodes"`
	Access              map[common.Address]*AccessInfo `json:"access"`
	ContractSize        map[common.Address]*ContractSizeInfo `json:"contractSize"`
	ExtCodeAccessInfo   map[common.Address]bool             `json:"extCodeAccessInfo"`
	OOG                 bool                      `json:"oog"`
}

// AccessInfo records the storage slots an entity read from or wrote to during its frame.
type AccessInfo struct {
	Reads  map[string]string `json:"reads"`
	Writes map[string]uint64 `json:"writes"`
}

// ContractSizeInfo records the deployed code size observed the first time an address was touched.
type ContractSizeInfo struct {
	ContractSize int    `json:"contractSize"`
	Opcode       string `json:"opcode"`
}

// RawCall is one frame of the raw call tree the tracer returns, in CALL/CREATE execution order.
type RawCall struct {
	Type    string          `json:"type"`
	From    common.Address  `json:"from"`
	To      *common.Address `json:"to,omitempty"`
	Method  hexutil.Bytes   `json:"method,omitempty"`
	Gas     uint64          `json:"gas"`
	GasUsed uint64          `json:"gasUsed"`
	Value   *hexutil.Big    `json:"value,omitempty"`
	Data    hexutil.Bytes   `json:"data,omitempty"`
	Return  hexutil.Bytes   `json:"return,omitempty"`
	Revert  hexutil.Bytes   `json:"revert,omitempty"`
}

// CollectorReturn is the full result of one debug_traceCall against simulateValidation, in the shape
// the bundler-collector JS tracer (and its native Go equivalent) emit.
type CollectorReturn struct {
	CallsFromEntryPoint []CallFromEntryPointInfo `json:"callsFromEntryPoint"`
	Keccak              []string                  `json:"keccak"`
	Calls               []RawCall                 `json:"calls"`
	Logs                []interface{}              `json:"logs"`
	Debug               []string                   `json:"debug"`
}

// CollectorTracerSource is the embedded JavaScript source for nodes using the legacy
// debug_traceCall(tracer: <js source>) interface rather than a natively registered tracer name.
const CollectorTracerSource = bundlerCollectorTracerJS
