package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrypointlabs/uopguard/pkg/mempool"
	"github.com/entrypointlabs/uopguard/pkg/simulation"
	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// SimulateUserOperationParams is the params object eth_simulateUserOperation accepts: its userOp field is
// the UserOperation to validate. The EntryPoint address is bound to the pipeline at daemon start-up rather than
// taken per call, since one process guards exactly one deployment.
type SimulateUserOperationParams struct {
	UserOp userop.UserOperation `json:"userOp"`
}

// SimulateUserOperationResult mirrors simulation.SimulationResult in a JSON-friendly shape.
type SimulateUserOperationResult struct {
	CodeHashes []simulation.CodeHash `json:"codeHashes"`
}

// NewSimulateUserOperationHandler binds pipeline and mem into a Handler for eth_simulateUserOperation,
// persisting the operation's code-hash set to the mempool once simulation succeeds so a later
// re-simulation of the same operation can detect a mutated contract.
func NewSimulateUserOperationHandler(pipeline *simulation.Pipeline, mem *mempool.Mempool) Handler {
	return func(ctx context.Context, rawParams json.RawMessage) (interface{}, error) {
		var params SimulateUserOperationParams
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, fmt.Errorf("jsonrpc: invalid eth_simulateUserOperation params: %w", err)
		}

		result, err := pipeline.SimulateUserOperation(ctx, &params.UserOp)
		if err != nil {
			return nil, err
		}

		userOpHash := params.UserOp.Hash(pipeline.Config.EntryPointAddress, pipeline.Config.ChainID)
		if err := mem.PutCodeHashes(ctx, userOpHash, result.CodeHashes); err != nil {
			return nil, fmt.Errorf("jsonrpc: failed to persist code hashes: %w", err)
		}

		return SimulateUserOperationResult{CodeHashes: result.CodeHashes}, nil
	}
}
