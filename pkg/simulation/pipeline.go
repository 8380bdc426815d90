package simulation

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// Pipeline is the SimulationPipeline: the public entry point that sequences every validation rule over a
// single UserOperation, failing fast on the first violation.
type Pipeline struct {
	EntryPoint  EntryPointClient
	Chain       ChainClient
	Mempool     Mempool
	Reputation  Reputation
	TraceParser TraceParser
	Config      PipelineConfig
	logger      logr.Logger
}

// NewPipeline wires the five capabilities into a Pipeline ready to validate UserOperations against one
// EntryPoint deployment. l is the ambient logger the pipeline attaches its diagnostic trace log to.
func NewPipeline(ep EntryPointClient, chain ChainClient, mempool Mempool, reputation Reputation, parser TraceParser, cfg PipelineConfig, l logr.Logger) *Pipeline {
	return &Pipeline{
		EntryPoint:  ep,
		Chain:       chain,
		Mempool:     mempool,
		Reputation:  reputation,
		TraceParser: parser,
		Config:      cfg,
		logger:      l.WithName("pipeline"),
	}
}

// SimulateUserOperation runs the full validation pipeline against op, in strict fail-fast order: the
// EntryPoint's off-chain simulateValidation, the signature gate, the opcode trace and its derived checks,
// and finally the concurrent code-hash comparison.
func (p *Pipeline) SimulateUserOperation(ctx context.Context, op *userop.UserOperation) (*SimulationResult, error) {
	simResult, failedOp, err := p.EntryPoint.SimulateValidation(ctx, op)
	if failedOp != nil {
		return nil, errUserOperationRejected(failedOp.Reason)
	}
	if err != nil {
		return nil, errUserOperationRejected("unknown error")
	}

	if err := CheckSignature(simResult); err != nil {
		return nil, err
	}

	rawTrace, failedOp, err := p.EntryPoint.SimulateValidationTrace(ctx, op)
	if failedOp != nil {
		return nil, errUserOperationRejected(failedOp.Reason)
	}
	if err != nil {
		return nil, errUserOperationRejected("unknown error")
	}
	p.logger.V(1).Info("raw trace", "userOp", op.Sender, "trace", rawTrace)

	frame, err := p.TraceParser.Parse(rawTrace)
	if err != nil {
		return nil, errUserOperationRejected(err.Error())
	}

	stakeVec := ExtractStakeInfo(op, simResult)

	if err := CheckForbiddenOpcodes(frame); err != nil {
		return nil, err
	}

	slotsByEntity := BuildSlotsByEntity(frame, stakeVec)
	if err := CheckStorageAccess(op, stakeVec, frame, p.Config.EntryPointAddress, slotsByEntity); err != nil {
		return nil, err
	}

	entries := ReduceCallStack(frame.Calls)
	if err := CheckCallStack(ctx, entries, stakeVec, p.Reputation); err != nil {
		return nil, err
	}

	userOpHash := op.Hash(p.Config.EntryPointAddress, p.Config.ChainID)
	addresses := CollectAddresses(frame)
	codeHashes, err := CheckCodeHashes(ctx, p.Chain, p.Mempool, userOpHash, addresses)
	if err != nil {
		return nil, err
	}

	return &SimulationResult{
		SimulateValidationResult: *simResult,
		CodeHashes:                codeHashes,
	}, nil
}
