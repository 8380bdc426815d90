package methods

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestNameForSelectorKnown(t *testing.T) {
	if got := NameForSelector(ValidatePaymasterUserOpSelector); got != "validatePaymasterUserOp" {
		t.Fatalf("got %s, want validatePaymasterUserOp", got)
	}
}

func TestNameForSelectorUnknown(t *testing.T) {
	var sel [4]byte
	got := NameForSelector(sel)
	if got != "0x00000000" {
		t.Fatalf("got %s, want 0x00000000", got)
	}
}

func TestDecodeValidatePaymasterUserOpReturn(t *testing.T) {
	bytesType, _ := abi.NewType("bytes", "", nil)
	uintType, _ := abi.NewType("uint256", "", nil)
	args := abi.Arguments{{Type: bytesType}, {Type: uintType}}
	data, err := args.Pack([]byte{0x01, 0x02}, big.NewInt(0))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	decoded, err := DecodeValidatePaymasterUserOpReturn(data)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(decoded.Context) != 2 {
		t.Fatalf("got context %x, want 2 bytes", decoded.Context)
	}
}
