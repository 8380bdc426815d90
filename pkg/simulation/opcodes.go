package simulation

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

// bannedOpcodes is the set of opcodes forbidden at every entity level during validation, since their
// result depends on chain state a bundler cannot safely assume stays constant between simulation and
// inclusion.
var bannedOpcodes = mapset.NewThreadUnsafeSet(
	"GASPRICE", "GASLIMIT", "DIFFICULTY", "TIMESTAMP", "BASEFEE", "BLOCKHASH", "NUMBER",
	"SELFBALANCE", "BALANCE", "ORIGIN", "GAS", "CREATE", "COINBASE", "SELFDESTRUCT",
	"RANDOM", "PREVRANDAO",
)

const create2Opcode = "CREATE2"

// CheckForbiddenOpcodes scans the opcode counts at each entity level and enforces the banned-opcode and
// CREATE2-placement rules.
func CheckForbiddenOpcodes(frame *tracer.TraceFrame) error {
	for level := Factory; level <= Paymaster; level++ {
		nl := frame.NumberLevels[level]
		for opcode := range nl.Opcodes {
			if bannedOpcodes.Contains(opcode) {
				return errOpcodeValidation(level.String(), opcode)
			}
		}
	}

	for level := Factory; level <= Paymaster; level++ {
		nl := frame.NumberLevels[level]
		count, ok := nl.Opcodes[create2Opcode]
		if !ok || count == 0 {
			continue
		}
		if level != Factory || count != 1 {
			return errOpcodeValidation(level.String(), create2Opcode)
		}
	}
	return nil
}
