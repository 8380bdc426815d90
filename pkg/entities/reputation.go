// Package entities implements the Badger-backed reputation ledger for entities seen in UserOperations:
// per-address opsSeen/opsIncluded counters, ban/throttle status derived from them, and the
// simulation.Reputation capability the validation pipeline consults for stake verification.
package entities

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/simulation"
)

// ReputationConstants are the thresholds EIP-4337 reference bundlers apply when scoring entity
// reputation and limiting unstaked entities' share of the mempool.
type ReputationConstants struct {
	MinUnstakeDelay                int
	MinStakeValue                  int64
	SameSenderMempoolCount         int
	SameUnstakedEntityMempoolCount int
	ThrottledEntityMempoolCount    int
	ThrottledEntityLiveBlocks      int
	ThrottledEntityBundleCount     int
	MinInclusionRateDenominator    int
	ThrottlingSlack                int
	BanSlack                       int
}

// Status is an entity's ban/throttle classification, derived from its opsSeen/opsIncluded history.
type Status int

const (
	StatusOK Status = iota
	StatusThrottled
	StatusBanned
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusThrottled:
		return "throttled"
	case StatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// ReputationOverride sets an entity's opsSeen/opsIncluded counters outright; its status is then computed
// from the new counters. Used by operators to unban or reset an entity.
type ReputationOverride struct {
	Address     common.Address
	OpsSeen     int
	OpsIncluded int
}

// Reputation tracks and classifies the reputation of every entity (sender, factory, paymaster) seen in a
// UserOperation, backed by Badger.
type Reputation struct {
	db       *badger.DB
	repConst *ReputationConstants
}

// New returns a Reputation object backed by db, using repConst's thresholds.
func New(db *badger.DB, repConst *ReputationConstants) *Reputation {
	return &Reputation{db, repConst}
}

var _ simulation.Reputation = (*Reputation)(nil)

func opsSeenKey(addr common.Address) []byte     { return append([]byte("opsSeen:"), addr.Bytes()...) }
func opsIncludedKey(addr common.Address) []byte { return append([]byte("opsIncluded:"), addr.Bytes()...) }

func getCounter(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	var out int
	err = item.Value(func(val []byte) error {
		out = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return out, err
}

func setCounter(txn *badger.Txn, key []byte, v int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return txn.Set(key, buf)
}

func incrementCounter(txn *badger.Txn, key []byte) error {
	cur, err := getCounter(txn, key)
	if err != nil {
		return err
	}
	return setCounter(txn, key, cur+1)
}

// status computes addr's ban/throttle classification from its opsSeen/opsIncluded history, following the
// inclusion-rate formula EIP-4337 reference bundlers use: an entity falls out of "ok" once its included
// share of seen ops drops below 1/MinInclusionRateDenominator, with ThrottlingSlack/BanSlack ops of grace.
func (r *Reputation) status(txn *badger.Txn, addr common.Address) (Status, error) {
	seen, err := getCounter(txn, opsSeenKey(addr))
	if err != nil {
		return StatusOK, err
	}
	included, err := getCounter(txn, opsIncludedKey(addr))
	if err != nil {
		return StatusOK, err
	}
	if seen < r.repConst.ThrottledEntityMempoolCount {
		return StatusOK, nil
	}

	minExpectedIncluded := seen / r.repConst.MinInclusionRateDenominator
	if included+r.repConst.ThrottlingSlack >= minExpectedIncluded {
		return StatusOK, nil
	}
	if included+r.repConst.BanSlack >= minExpectedIncluded {
		return StatusThrottled, nil
	}
	return StatusBanned, nil
}

// Status returns addr's current ban/throttle classification.
func (r *Reputation) Status(addr common.Address) (Status, error) {
	var out Status
	err := r.db.View(func(txn *badger.Txn) error {
		s, err := r.status(txn, addr)
		out = s
		return err
	})
	return out, err
}

// VerifyStake implements simulation.Reputation. An unstaked entity is only acceptable while its
// ban/throttle status is ok; a throttled or banned unstaked entity is rejected outright.
func (r *Reputation) VerifyStake(ctx context.Context, entity string, stake simulation.StakeInfo) error {
	if stake.IsStaked() {
		return nil
	}

	status, err := r.Status(stake.Address)
	if err != nil {
		return fmt.Errorf("entities: failed to read status for %s: %w", entity, err)
	}
	if status != StatusOK {
		return fmt.Errorf("entities: %s %s is unstaked and %s", entity, stake.Address.Hex(), status)
	}
	return nil
}

// IncOpsSeen increments addrs' opsSeen counters, called once per UserOperation admitted to the mempool for
// each distinct entity address (sender, factory, paymaster) it names.
func (r *Reputation) IncOpsSeen(addrs ...common.Address) error {
	return r.db.Update(func(txn *badger.Txn) error {
		seen := map[common.Address]struct{}{}
		for _, addr := range addrs {
			if addr == (common.Address{}) {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			if err := incrementCounter(txn, opsSeenKey(addr)); err != nil {
				return err
			}
		}
		return nil
	})
}

// addressCounter tallies how many times each address appeared across a batch of included operations.
type addressCounter map[common.Address]int

// IncOpsIncluded increments every address's opsIncluded counter by its count in the batch. Call once a
// batch of UserOperations has been included on-chain.
func (r *Reputation) IncOpsIncluded(counts addressCounter) error {
	return r.db.Update(func(txn *badger.Txn) error {
		for addr, n := range counts {
			cur, err := getCounter(txn, opsIncludedKey(addr))
			if err != nil {
				return err
			}
			if err := setCounter(txn, opsIncludedKey(addr), cur+n); err != nil {
				return err
			}
		}
		return nil
	})
}

// Override forces the given entities' counters, bypassing their computed history. Used by operator
// tooling to unban or reset an entity.
func (r *Reputation) Override(entries []*ReputationOverride) error {
	return r.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			if err := setCounter(txn, opsSeenKey(entry.Address), entry.OpsSeen); err != nil {
				return err
			}
			if err := setCounter(txn, opsIncludedKey(entry.Address), entry.OpsIncluded); err != nil {
				return err
			}
		}
		return nil
	})
}
