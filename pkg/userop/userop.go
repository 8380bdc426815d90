// Package userop implements the ERC-4337 UserOperation type along with the helper methods the rest of the
// bundler needs to hash, pack, and inspect it.
package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation is the off-chain representation of an EIP-4337 pseudo-transaction, matching the v0.6
// EntryPoint's on-chain tuple field for field.
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *big.Int       `json:"nonce"`
	InitCode             []byte         `json:"initCode"`
	CallData             []byte         `json:"callData"`
	CallGasLimit         *big.Int       `json:"callGasLimit"`
	VerificationGasLimit *big.Int       `json:"verificationGasLimit"`
	PreVerificationGas   *big.Int       `json:"preVerificationGas"`
	MaxFeePerGas         *big.Int       `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *big.Int       `json:"maxPriorityFeePerGas"`
	PaymasterAndData     []byte         `json:"paymasterAndData"`
	Signature            []byte         `json:"signature"`
}

// GetFactory returns the factory address encoded in the first 20 bytes of InitCode, or the zero address if
// InitCode is absent or too short to contain one.
func (op *UserOperation) GetFactory() common.Address {
	if len(op.InitCode) < common.AddressLength {
		return common.Address{}
	}
	return common.BytesToAddress(op.InitCode[:common.AddressLength])
}

// GetPaymaster returns the paymaster address encoded in the first 20 bytes of PaymasterAndData, or the zero
// address if PaymasterAndData is absent or too short to contain one.
func (op *UserOperation) GetPaymaster() common.Address {
	if len(op.PaymasterAndData) < common.AddressLength {
		return common.Address{}
	}
	return common.BytesToAddress(op.PaymasterAndData[:common.AddressLength])
}

// GetMaxGasAvailable returns the maximum amount of gas this UserOperation could consume across validation
// and execution.
func (op *UserOperation) GetMaxGasAvailable() *big.Int {
	mul := big.NewInt(3)
	if op.GetPaymaster() == (common.Address{}) {
		mul = big.NewInt(2)
	}
	vgl := big.NewInt(0).Mul(op.VerificationGasLimit, mul)
	return big.NewInt(0).Add(
		big.NewInt(0).Add(op.PreVerificationGas, vgl),
		op.CallGasLimit,
	)
}

// GetMaxPrefund returns the max amount of wei this UserOperation could require to be prefunded, used when
// checking a paymaster's deposit.
func (op *UserOperation) GetMaxPrefund() *big.Int {
	return big.NewInt(0).Mul(op.GetMaxGasAvailable(), op.MaxFeePerGas)
}

var packedType, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
	{Name: "sender", Type: "address"},
	{Name: "nonce", Type: "uint256"},
	{Name: "initCodeHash", Type: "bytes32"},
	{Name: "callDataHash", Type: "bytes32"},
	{Name: "callGasLimit", Type: "uint256"},
	{Name: "verificationGasLimit", Type: "uint256"},
	{Name: "preVerificationGas", Type: "uint256"},
	{Name: "maxFeePerGas", Type: "uint256"},
	{Name: "maxPriorityFeePerGas", Type: "uint256"},
	{Name: "paymasterAndDataHash", Type: "bytes32"},
})

type packedTuple struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCodeHash         [32]byte
	CallDataHash         [32]byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndDataHash [32]byte
}

// Pack returns the abi-encoded tuple used to derive the UserOperation's hash, with the dynamic-length
// fields (initCode, callData, paymasterAndData) replaced by their keccak256 digests, per EIP-4337.
func (op *UserOperation) Pack() []byte {
	args := abi.Arguments{{Type: packedType}}
	packed, err := args.Pack(packedTuple{
		Sender:               op.Sender,
		Nonce:                op.Nonce,
		InitCodeHash:         crypto.Keccak256Hash(op.InitCode),
		CallDataHash:         crypto.Keccak256Hash(op.CallData),
		CallGasLimit:         op.CallGasLimit,
		VerificationGasLimit: op.VerificationGasLimit,
		PreVerificationGas:   op.PreVerificationGas,
		MaxFeePerGas:         op.MaxFeePerGas,
		MaxPriorityFeePerGas: op.MaxPriorityFeePerGas,
		PaymasterAndDataHash: crypto.Keccak256Hash(op.PaymasterAndData),
	})
	if err != nil {
		// Only possible if the static tuple type above is malformed, which is a programmer error.
		panic(err)
	}
	return packed
}

var hashType, _ = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
	{Name: "userOpHash", Type: "bytes32"},
	{Name: "entryPoint", Type: "address"},
	{Name: "chainId", Type: "uint256"},
})

type hashTuple struct {
	UserOpHash common.Hash
	EntryPoint common.Address
	ChainID    *big.Int
}

// Hash returns the deterministic UserOperation hash used to key the mempool, scoped to a specific
// EntryPoint and chain ID.
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) common.Hash {
	args := abi.Arguments{{Type: hashType}}
	encoded, err := args.Pack(hashTuple{
		UserOpHash: crypto.Keccak256Hash(op.Pack()),
		EntryPoint: entryPoint,
		ChainID:    chainID,
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(encoded)
}
