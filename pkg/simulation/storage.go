package simulation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
	"github.com/entrypointlabs/uopguard/pkg/userop"
)

// slotAssociationWindow is the width of the derived-slot window an entity's address is presumed to own;
// load-bearing, see the storage-access rule.
const slotAssociationWindow = 128

// CheckStorageAccess applies the storage-access rule for every entity at every level, using the
// slot-association index built by BuildSlotsByEntity. addr == {sender, entryPoint} is pre-excluded per
// entity/level before a slot is ever inspected.
func CheckStorageAccess(op *userop.UserOperation, vec EntityVector, frame *tracer.TraceFrame, entryPoint common.Address, slotsByEntity map[common.Address]SlotSet) error {
	for level := Factory; level <= Paymaster; level++ {
		entity := vec[level]
		nl := frame.NumberLevels[level]

		for addr, access := range nl.Access {
			if addr == op.Sender || addr == entryPoint {
				continue
			}

			slots := make([]string, 0, len(access.Reads)+len(access.Writes))
			slots = append(slots, access.Reads...)
			slots = append(slots, access.Writes...)

			for _, slot := range slots {
				slotNum, ok := new(big.Int).SetString(slot, 16)
				if !ok {
					return errStorageAccessValidation(slot)
				}

				var (
					slotStaked string
					staked     bool
				)

				switch {
				case associated(op.Sender, slotNum, slotsByEntity[op.Sender]):
					if len(op.InitCode) > 0 {
						slotStaked = slot
						staked = true
					} else {
						continue
					}
				case addr == entity.Address || associated(entity.Address, slotNum, slotsByEntity[entity.Address]):
					slotStaked = slot
					staked = true
				default:
					return errStorageAccessValidation(slot)
				}

				if staked && !entity.IsStaked() {
					return errStorageAccessValidation(slotStaked)
				}
			}
		}
	}
	return nil
}

// associated implements the §4.6 "associated(owner, s)" predicate: an exact address-as-slot match
// (compared numerically, since the raw tracer's hex slot strings carry no fixed width or 0x prefix), or
// membership in the owner's [base, base+128) derived-slot window.
func associated(owner common.Address, slotNum *big.Int, ownerSlots SlotSet) bool {
	if owner == (common.Address{}) {
		return false
	}
	if slotNum.Cmp(new(big.Int).SetBytes(owner.Bytes())) == 0 {
		return true
	}
	if ownerSlots == nil {
		return false
	}

	for _, base := range ownerSlots.ToSlice() {
		baseNum := new(big.Int).SetBytes(base.Bytes())
		windowEnd := new(big.Int).Add(baseNum, big.NewInt(slotAssociationWindow))
		if slotNum.Cmp(baseNum) >= 0 && slotNum.Cmp(windowEnd) < 0 {
			return true
		}
	}
	return false
}
