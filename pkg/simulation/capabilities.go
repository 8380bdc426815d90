package simulation

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/entrypoint/reverts"
	"github.com/entrypointlabs/uopguard/pkg/tracer"
	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// EntryPointClient drives the EntryPoint contract's off-chain simulateValidation entry point and obtains
// its structured opcode trace. Implementations are free to hit a live node over JSON-RPC; this package
// treats both operations as opaque.
type EntryPointClient interface {
	// SimulateValidation executes simulateValidation(userOp) as a static call expected to revert, and
	// decodes the revert data. A FailedOp decode yields (nil, failedOp, nil); any other error is
	// returned as err.
	SimulateValidation(ctx context.Context, op *userop.UserOperation) (*SimulateValidationResult, *reverts.FailedOp, error)

	// SimulateValidationTrace performs the same call via debug_traceCall and returns the raw trace.
	SimulateValidationTrace(ctx context.Context, op *userop.UserOperation) (*tracer.CollectorReturn, *reverts.FailedOp, error)
}

// ChainClient reads contract bytecode, used by CodeHashChecker.
type ChainClient interface {
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
}

// Mempool persists a UserOperation's code-hash set from its first simulation, keyed by its hash.
type Mempool interface {
	HasCodeHashes(ctx context.Context, userOpHash common.Hash) (bool, error)
	GetCodeHashes(ctx context.Context, userOpHash common.Hash) ([]CodeHash, error)
}

// Reputation answers whether a named entity role is sufficiently staked.
type Reputation interface {
	VerifyStake(ctx context.Context, entity string, stake StakeInfo) error
}

// TraceParser converts a raw node trace into the structured TraceFrame the checkers operate on.
type TraceParser interface {
	Parse(raw *tracer.CollectorReturn) (*tracer.TraceFrame, error)
}

// PipelineConfig identifies the one EntryPoint deployment a Pipeline guards. EntryPointAddress and
// ChainID key the UserOperation hash, and EntryPointAddress is exempt from the storage-access rule.
type PipelineConfig struct {
	EntryPointAddress common.Address
	ChainID           *big.Int
}
