package reverts

import (
	"math/big"
	"testing"
)

func TestNewFailedOpDecodesReasonAndIndex(t *testing.T) {
	encoded, err := failedOpArgs.Pack(big.NewInt(2), "AA24 signature error")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	data := append(failedOpSelector[:], encoded...)

	decoded, err := NewFailedOp(data)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if decoded.OpIndex.Cmp(big.NewInt(2)) != 0 || decoded.Reason != "AA24 signature error" {
		t.Fatalf("got %+v, want {2, AA24 signature error}", decoded)
	}
}

func TestNewFailedOpUnknownSelector(t *testing.T) {
	_, err := NewFailedOp([]byte{0x00, 0x00, 0x00, 0x00})
	if err != ErrUnknownRevert {
		t.Fatalf("got %v, want ErrUnknownRevert", err)
	}
}

func TestNewValidationResultPlainVariant(t *testing.T) {
	encoded, err := validationResultArgs.Pack(
		rawReturnInfoFor(t),
		rawStakeInfoFor(t, 10, 1),
		rawStakeInfoFor(t, 0, 0),
		rawStakeInfoFor(t, 0, 0),
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	data := append(validationResultSelector[:], encoded...)

	plain, withAgg, err := NewValidationResult(data)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if withAgg != nil {
		t.Fatal("got non-nil aggregation variant, want nil")
	}
	if plain.SenderInfo.Stake.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("got stake %s, want 10", plain.SenderInfo.Stake)
	}
}

func rawReturnInfoFor(t *testing.T) interface{} {
	t.Helper()
	type tuple struct {
		PreOpGas         *big.Int
		Prefund          *big.Int
		SigFailed        bool
		ValidAfter       *big.Int
		ValidUntil       *big.Int
		PaymasterContext []byte
	}
	return tuple{
		PreOpGas:   big.NewInt(50000),
		Prefund:    big.NewInt(0),
		SigFailed:  false,
		ValidAfter: big.NewInt(0),
		ValidUntil: big.NewInt(0),
	}
}

func rawStakeInfoFor(t *testing.T, stake, unstakeDelay int64) interface{} {
	t.Helper()
	type tuple struct {
		Stake           *big.Int
		UnstakeDelaySec *big.Int
	}
	return tuple{Stake: big.NewInt(stake), UnstakeDelaySec: big.NewInt(unstakeDelay)}
}
