// Package methods holds the ABI selectors and decoders for the EntryPoint functions the simulation
// pipeline needs to recognize inside a trace's call stack.
package methods

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// HandleOpsSelector is the 4-byte selector of EntryPoint.handleOps.
var HandleOpsSelector = selector4("handleOps((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes)[],address)")

// ValidatePaymasterUserOpSelector is the 4-byte selector of IPaymaster.validatePaymasterUserOp, the call
// the call-stack checker looks for when auditing a paymaster's returned context.
var ValidatePaymasterUserOpSelector = selector4("validatePaymasterUserOp((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes),bytes32,uint256)")

// FunctionNames maps known selectors to their human-readable function names. The call-stack reducer
// uses it to name each call frame, and the paymaster context rule matches on the resulting name.
var FunctionNames = map[[4]byte]string{
	HandleOpsSelector:                "handleOps",
	ValidatePaymasterUserOpSelector:  "validatePaymasterUserOp",
	selector4("validateUserOp((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes),bytes32,uint256)"): "validateUserOp",
	selector4("depositTo(address)"):                "depositTo",
	selector4("balanceOf(address)"):                "balanceOf",
	selector4("getNonce(address,uint192)"):         "getNonce",
	selector4("postOp(uint8,bytes,uint256)"):        "postOp",
}

// NameForSelector returns the human-readable name of a selector, or the hex-encoded selector itself if
// unknown.
func NameForSelector(sel [4]byte) string {
	if name, ok := FunctionNames[sel]; ok {
		return name
	}
	return "0x" + hexEncode(sel[:])
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

func selector4(sig string) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Keccak256([]byte(sig))[:4])
	return out
}

var validatePaymasterUserOpReturnArgs = abi.Arguments{
	{Name: "context", Type: mustType("bytes")},
	{Name: "validationData", Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// ValidatePaymasterUserOpReturn is the decoded (context, validationData) return value of
// validatePaymasterUserOp.
type ValidatePaymasterUserOpReturn struct {
	Context        []byte
	ValidationData *big.Int
}

// DecodeValidatePaymasterUserOpReturn decodes the ABI-encoded return value of a validatePaymasterUserOp
// call, as captured by the call-stack tracer.
func DecodeValidatePaymasterUserOpReturn(data []byte) (*ValidatePaymasterUserOpReturn, error) {
	values, err := validatePaymasterUserOpReturnArgs.Unpack(data)
	if err != nil {
		return nil, err
	}
	var out ValidatePaymasterUserOpReturn
	if err := validatePaymasterUserOpReturnArgs.Copy(&out, values); err != nil {
		return nil, err
	}
	return &out, nil
}
