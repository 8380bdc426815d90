package userop

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func validOp() *UserOperation {
	return &UserOperation{
		Sender:               common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce:                big.NewInt(0),
		CallGasLimit:         big.NewInt(21000),
		VerificationGasLimit: big.NewInt(100000),
		PreVerificationGas:   big.NewInt(21000),
		MaxFeePerGas:         big.NewInt(1_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
	}
}

func TestGetFactoryEmptyInitCode(t *testing.T) {
	op := validOp()
	if op.GetFactory() != (common.Address{}) {
		t.Fatalf("got %s, want zero address", op.GetFactory())
	}
}

func TestGetFactoryFromInitCode(t *testing.T) {
	op := validOp()
	factory := common.HexToAddress("0x2222222222222222222222222222222222222222")
	op.InitCode = append(factory.Bytes(), []byte{0xde, 0xad}...)
	if op.GetFactory() != factory {
		t.Fatalf("got %s, want %s", op.GetFactory(), factory)
	}
}

func TestGetPaymasterTooShort(t *testing.T) {
	op := validOp()
	op.PaymasterAndData = []byte{0x01, 0x02}
	if op.GetPaymaster() != (common.Address{}) {
		t.Fatalf("got %s, want zero address", op.GetPaymaster())
	}
}

func TestHashIsDeterministic(t *testing.T) {
	op := validOp()
	entryPoint := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	chainID := big.NewInt(1)

	h1 := op.Hash(entryPoint, chainID)
	h2 := op.Hash(entryPoint, chainID)
	if h1 != h2 {
		t.Fatalf("got different hashes %s and %s for identical input", h1, h2)
	}
}

func TestHashChangesWithChainID(t *testing.T) {
	op := validOp()
	entryPoint := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

	h1 := op.Hash(entryPoint, big.NewInt(1))
	h2 := op.Hash(entryPoint, big.NewInt(2))
	if h1 == h2 {
		t.Fatal("got equal hashes across different chain IDs")
	}
}

func TestGetMaxPrefundNoPaymaster(t *testing.T) {
	op := validOp()
	want := new(big.Int).Mul(op.GetMaxGasAvailable(), op.MaxFeePerGas)
	if op.GetMaxPrefund().Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", op.GetMaxPrefund(), want)
	}
}
