package simulation

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

// CollectAddresses returns the union of every address appearing as a contractSize key across the trace's
// entity levels, the address set CodeHashChecker fetches bytecode for.
func CollectAddresses(frame *tracer.TraceFrame) []common.Address {
	seen := make(map[common.Address]struct{})
	var out []common.Address
	for _, level := range frame.NumberLevels {
		for addr := range level.ContractSize {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}

// CheckCodeHashes fetches bytecode for every address concurrently, then compares against the
// UserOperation's previously stored code-hash set, if any. A cancelled context aborts all outstanding
// fetches; no partial result is ever returned.
func CheckCodeHashes(ctx context.Context, chain ChainClient, mempool Mempool, userOpHash common.Hash, addresses []common.Address) ([]CodeHash, error) {
	fresh := make([]CodeHash, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addresses {
		i, addr := i, addr
		g.Go(func() error {
			code, err := chain.CodeAt(gctx, addr)
			if err != nil {
				return err
			}
			fresh[i] = CodeHash{Address: addr, Hash: crypto.Keccak256Hash(code)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errUnknown("failed to get code hashes", err)
	}

	has, err := mempool.HasCodeHashes(ctx, userOpHash)
	if err != nil {
		return nil, errUnknown(err.Error(), err)
	}
	if !has {
		return fresh, nil
	}

	prior, err := mempool.GetCodeHashes(ctx, userOpHash)
	if err != nil {
		return nil, errUnknown(err.Error(), err)
	}
	if !EqualCodeHashSets(prior, fresh) {
		return nil, errCodeHashesValidation("modified code after 1st simulation")
	}
	return fresh, nil
}
