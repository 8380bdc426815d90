package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

type fakeChainClient struct {
	code map[common.Address][]byte
	err  error
}

func (f *fakeChainClient) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.code[address], nil
}

type fakeMempool struct {
	has   bool
	prior []CodeHash
	err   error
}

func (f *fakeMempool) HasCodeHashes(ctx context.Context, userOpHash common.Hash) (bool, error) {
	return f.has, f.err
}

func (f *fakeMempool) GetCodeHashes(ctx context.Context, userOpHash common.Hash) ([]CodeHash, error) {
	return f.prior, f.err
}

func TestCollectAddressesDeduplicates(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	frame := &tracer.TraceFrame{}
	frame.NumberLevels[Factory].ContractSize = map[common.Address]int{addr: 10}
	frame.NumberLevels[Account].ContractSize = map[common.Address]int{addr: 10}

	addrs := CollectAddresses(frame)
	if len(addrs) != 1 {
		t.Fatalf("got %d addresses, want 1", len(addrs))
	}
}

func TestCheckCodeHashesFirstSimulation(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	chain := &fakeChainClient{code: map[common.Address][]byte{addr: {0x01, 0x02}}}
	mempool := &fakeMempool{has: false}

	hashes, err := CheckCodeHashes(context.Background(), chain, mempool, common.Hash{}, []common.Address{addr})
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(hashes) != 1 || hashes[0].Address != addr {
		t.Fatalf("got %+v, want one entry for %s", hashes, addr)
	}
}

// TestCheckCodeHashesMutatedBetweenSimulations covers scenario F: a code hash mismatch against the
// stored first-simulation set must be rejected.
func TestCheckCodeHashesMutatedBetweenSimulations(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	chain := &fakeChainClient{code: map[common.Address][]byte{addr: {0xaa}}}
	mempool := &fakeMempool{
		has:   true,
		prior: []CodeHash{{Address: addr, Hash: common.HexToHash("0xdeadbeef")}},
	}

	_, err := CheckCodeHashes(context.Background(), chain, mempool, common.Hash{}, []common.Address{addr})
	simErr, ok := err.(*SimulationError)
	if !ok {
		t.Fatalf("got %v, want *SimulationError", err)
	}
	if simErr.Kind != CodeHashesValidation {
		t.Fatalf("got kind %v, want CodeHashesValidation", simErr.Kind)
	}
}

func TestCheckCodeHashesFetchFailure(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	chain := &fakeChainClient{err: errors.New("rpc down")}
	mempool := &fakeMempool{}

	_, err := CheckCodeHashes(context.Background(), chain, mempool, common.Hash{}, []common.Address{addr})
	simErr, ok := err.(*SimulationError)
	if !ok {
		t.Fatalf("got %v, want *SimulationError", err)
	}
	if simErr.Kind != UnknownError {
		t.Fatalf("got kind %v, want UnknownError", simErr.Kind)
	}
}

func TestCheckCodeHashesIdempotentOnUnchangedChain(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	chain := &fakeChainClient{code: map[common.Address][]byte{addr: {0x01}}}

	first, err := CheckCodeHashes(context.Background(), chain, &fakeMempool{has: false}, common.Hash{}, []common.Address{addr})
	if err != nil {
		t.Fatalf("first simulation: got %v, want nil", err)
	}

	second, err := CheckCodeHashes(context.Background(), chain, &fakeMempool{has: true, prior: first}, common.Hash{}, []common.Address{addr})
	if err != nil {
		t.Fatalf("second simulation: got %v, want nil", err)
	}
	if !EqualCodeHashSets(first, second) {
		t.Fatalf("got %+v and %+v, want equal multisets", first, second)
	}
}
