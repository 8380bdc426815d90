// Package reverts decodes the custom Solidity errors the EntryPoint contract reverts with during
// simulateValidation, mirroring the ABI the v0.6 EntryPoint defines.
package reverts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// StakeInfo mirrors the EntryPoint's StakeInfo struct.
type StakeInfo struct {
	Stake           *big.Int
	UnstakeDelaySec *big.Int
}

// ReturnInfo mirrors the EntryPoint's ReturnInfo struct returned on a successful validation revert.
type ReturnInfo struct {
	PreOpGas         *big.Int
	Prefund          *big.Int
	SigFailed        bool
	ValidAfter       *big.Int
	ValidUntil       *big.Int
	PaymasterContext []byte
}

// AggregatorStakeInfo mirrors the EntryPoint's AggregatorStakeInfo struct.
type AggregatorStakeInfo struct {
	Aggregator common.Address
	StakeInfo  StakeInfo
}

// ValidationResult is the decoded ValidationResult(...) revert, used when the UserOperation has no
// aggregator.
type ValidationResult struct {
	ReturnInfo    ReturnInfo
	SenderInfo    StakeInfo
	FactoryInfo   StakeInfo
	PaymasterInfo StakeInfo
}

// ValidationResultWithAggregation is the decoded ValidationResultWithAggregation(...) revert, used when
// the sender account requires signature aggregation.
type ValidationResultWithAggregation struct {
	ReturnInfo     ReturnInfo
	SenderInfo     StakeInfo
	FactoryInfo    StakeInfo
	PaymasterInfo  StakeInfo
	AggregatorInfo AggregatorStakeInfo
}

// FailedOp is the decoded FailedOp(uint256,string) revert the EntryPoint raises when a UserOperation is
// rejected outright (bad signature, invalid nonce, insufficient prefund, and similar).
type FailedOp struct {
	OpIndex *big.Int
	Reason  string
}

func (f *FailedOp) Error() string {
	return f.Reason
}

var (
	stakeInfoComponents = []abi.ArgumentMarshaling{
		{Name: "stake", Type: "uint256"},
		{Name: "unstakeDelaySec", Type: "uint256"},
	}

	returnInfoType, _     = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "preOpGas", Type: "uint256"},
		{Name: "prefund", Type: "uint256"},
		{Name: "sigFailed", Type: "bool"},
		{Name: "validAfter", Type: "uint48"},
		{Name: "validUntil", Type: "uint48"},
		{Name: "paymasterContext", Type: "bytes"},
	})
	stakeInfoType, _      = abi.NewType("tuple", "", stakeInfoComponents)
	aggregatorInfoType, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "aggregator", Type: "address"},
		{Name: "stakeInfo", Type: "tuple", Components: stakeInfoComponents},
	})

	validationResultArgs = abi.Arguments{
		{Name: "returnInfo", Type: returnInfoType},
		{Name: "senderInfo", Type: stakeInfoType},
		{Name: "factoryInfo", Type: stakeInfoType},
		{Name: "paymasterInfo", Type: stakeInfoType},
	}
	validationResultWithAggregationArgs = abi.Arguments{
		{Name: "returnInfo", Type: returnInfoType},
		{Name: "senderInfo", Type: stakeInfoType},
		{Name: "factoryInfo", Type: stakeInfoType},
		{Name: "paymasterInfo", Type: stakeInfoType},
		{Name: "aggregatorInfo", Type: aggregatorInfoType},
	}
	failedOpArgs = abi.Arguments{
		{Name: "opIndex", Type: mustType("uint256")},
		{Name: "reason", Type: mustType("string")},
	}

	validationResultSelector                = selector4("ValidationResult((uint256,uint256,bool,uint48,uint48,bytes),(uint256,uint256),(uint256,uint256),(uint256,uint256))")
	validationResultWithAggregationSelector = selector4("ValidationResultWithAggregation((uint256,uint256,bool,uint48,uint48,bytes),(uint256,uint256),(uint256,uint256),(uint256,uint256),((address,(uint256,uint256))))")
	failedOpSelector                        = selector4("FailedOp(uint256,string)")

	// ErrUnknownRevert is returned when the revert data does not match any known EntryPoint error.
	ErrUnknownRevert = errors.New("reverts: unrecognized revert data")
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func selector4(sig string) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Keccak256([]byte(sig))[:4])
	return out
}

// NewValidationResult decodes revert data as either ValidationResult or ValidationResultWithAggregation,
// returning whichever variant matches the 4-byte selector. Exactly one of the two return values is
// non-nil on success.
func NewValidationResult(revertData []byte) (*ValidationResult, *ValidationResultWithAggregation, error) {
	if len(revertData) < 4 {
		return nil, nil, ErrUnknownRevert
	}
	var sel [4]byte
	copy(sel[:], revertData[:4])
	body := revertData[4:]

	switch sel {
	case validationResultSelector:
		values, err := validationResultArgs.Unpack(body)
		if err != nil {
			return nil, nil, err
		}
		var out ValidationResult
		if err := validationResultArgs.Copy(&out, values); err != nil {
			return nil, nil, err
		}
		return &out, nil, nil
	case validationResultWithAggregationSelector:
		values, err := validationResultWithAggregationArgs.Unpack(body)
		if err != nil {
			return nil, nil, err
		}
		var out ValidationResultWithAggregation
		if err := validationResultWithAggregationArgs.Copy(&out, values); err != nil {
			return nil, nil, err
		}
		return nil, &out, nil
	default:
		return nil, nil, ErrUnknownRevert
	}
}

// NewFailedOp decodes revert data as a FailedOp(uint256,string) error.
func NewFailedOp(revertData []byte) (*FailedOp, error) {
	if len(revertData) < 4 {
		return nil, ErrUnknownRevert
	}
	var sel [4]byte
	copy(sel[:], revertData[:4])
	if sel != failedOpSelector {
		return nil, ErrUnknownRevert
	}
	values, err := failedOpArgs.Unpack(revertData[4:])
	if err != nil {
		return nil, err
	}
	var out FailedOp
	if err := failedOpArgs.Copy(&out, values); err != nil {
		return nil, err
	}
	return &out, nil
}
