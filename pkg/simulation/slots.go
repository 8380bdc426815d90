package simulation

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

// SlotSet is the set of 32-byte storage slots considered associated with one entity.
type SlotSet = mapset.Set[common.Hash]

// BuildSlotsByEntity indexes every keccak preimage in the trace against the entities in vec, matching
// the "mapping slot derivation" heuristic: a preimage left-padded with an entity's address to 32 bytes
// hashes to a slot that mapping derives, and is therefore treated as owned by that entity.
func BuildSlotsByEntity(frame *tracer.TraceFrame, vec EntityVector) map[common.Address]SlotSet {
	result := make(map[common.Address]SlotSet, len(vec))
	for _, entity := range vec {
		if entity.Address == (common.Address{}) {
			continue
		}
		padded := append(make([]byte, 12), entity.Address.Bytes()...)
		set, ok := result[entity.Address]
		if !ok {
			set = mapset.NewThreadUnsafeSet[common.Hash]()
			result[entity.Address] = set
		}
		for _, preimage := range frame.Keccak {
			if len(preimage) < len(padded) || !bytesHasPrefix(preimage, padded) {
				continue
			}
			set.Add(crypto.Keccak256Hash(preimage))
		}
	}
	return result
}

func bytesHasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
