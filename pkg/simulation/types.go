// Package simulation implements the UserOperation validation pipeline: driving the EntryPoint's
// simulateValidation, parsing its execution trace, and enforcing the opcode, storage-access,
// call-stack, and code-hash rules that guard the bundler's mempool.
package simulation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/entrypoint/reverts"
)

// EntityLevel indexes the fixed 3-vector of roles whose code runs during validation.
type EntityLevel int

const (
	Factory EntityLevel = iota
	Account
	Paymaster
)

func (l EntityLevel) String() string {
	switch l {
	case Factory:
		return "factory"
	case Account:
		return "account"
	case Paymaster:
		return "paymaster"
	default:
		return "unknown"
	}
}

// StakeInfo is one entity's stake posture, as reported by the EntryPoint during simulateValidation.
type StakeInfo struct {
	Address         common.Address
	Stake           *big.Int
	UnstakeDelaySec *big.Int
}

// IsStaked reports whether this entity has posted a non-zero stake.
func (s StakeInfo) IsStaked() bool {
	return s.Stake != nil && s.Stake.Sign() > 0
}

// EntityVector is the fixed factory/account/paymaster triple every per-level check iterates.
type EntityVector [3]StakeInfo

// SimulateValidationResult is the decoded outcome of a successful (non-reverted-as-FailedOp)
// simulateValidation call: exactly one of Plain or WithAggregation is set.
type SimulateValidationResult struct {
	Plain           *reverts.ValidationResult
	WithAggregation *reverts.ValidationResultWithAggregation
}

// ReturnInfo returns the returnInfo tuple common to both variants.
func (r *SimulateValidationResult) ReturnInfo() reverts.ReturnInfo {
	if r.Plain != nil {
		return r.Plain.ReturnInfo
	}
	return r.WithAggregation.ReturnInfo
}

// SenderInfo returns the sender's stake info, common to both variants.
func (r *SimulateValidationResult) SenderInfo() reverts.StakeInfo {
	if r.Plain != nil {
		return r.Plain.SenderInfo
	}
	return r.WithAggregation.SenderInfo
}

// FactoryInfo returns the factory's stake info, common to both variants.
func (r *SimulateValidationResult) FactoryInfo() reverts.StakeInfo {
	if r.Plain != nil {
		return r.Plain.FactoryInfo
	}
	return r.WithAggregation.FactoryInfo
}

// PaymasterInfo returns the paymaster's stake info, common to both variants.
func (r *SimulateValidationResult) PaymasterInfo() reverts.StakeInfo {
	if r.Plain != nil {
		return r.Plain.PaymasterInfo
	}
	return r.WithAggregation.PaymasterInfo
}

// CallEntry is one completed call frame emitted by the CallStackReducer.
type CallEntry struct {
	Type   string
	From   common.Address
	To     common.Address
	Method string
	Ret    []byte
	Rev    []byte
	Value  *big.Int
}

// CodeHash pairs a contract address with the keccak256 of its runtime bytecode at simulation time.
type CodeHash struct {
	Address common.Address
	Hash    common.Hash
}

// EqualCodeHashSets reports whether two code-hash sets are equal as multisets over (address, hash).
func EqualCodeHashSets(a, b []CodeHash) bool {
	if len(a) != len(b) {
		return false
	}
	count := make(map[CodeHash]int, len(a))
	for _, h := range a {
		count[h]++
	}
	for _, h := range b {
		count[h]--
		if count[h] < 0 {
			return false
		}
	}
	return true
}

// SimulationResult is the Orchestrator's successful output.
type SimulationResult struct {
	SimulateValidationResult SimulateValidationResult
	CodeHashes                []CodeHash
}
