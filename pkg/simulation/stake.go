package simulation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// ExtractStakeInfo builds the factory/account/paymaster vector from the UserOperation bytes and the
// decoded simulateValidation result.
func ExtractStakeInfo(op *userop.UserOperation, result *SimulateValidationResult) EntityVector {
	var vec EntityVector

	vec[Factory] = StakeInfo{
		Address:         op.GetFactory(),
		Stake:           result.FactoryInfo().Stake,
		UnstakeDelaySec: result.FactoryInfo().UnstakeDelaySec,
	}
	vec[Account] = StakeInfo{
		Address:         op.Sender,
		Stake:           result.SenderInfo().Stake,
		UnstakeDelaySec: result.SenderInfo().UnstakeDelaySec,
	}
	vec[Paymaster] = StakeInfo{
		Address:         op.GetPaymaster(),
		Stake:           result.PaymasterInfo().Stake,
		UnstakeDelaySec: result.PaymasterInfo().UnstakeDelaySec,
	}

	for i := range vec {
		if vec[i].Address == (common.Address{}) {
			vec[i].Stake = big.NewInt(0)
			vec[i].UnstakeDelaySec = big.NewInt(0)
		}
	}
	return vec
}
