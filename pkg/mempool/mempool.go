// Package mempool persists each UserOperation's code-hash set from its first simulation, so a later
// simulation of the same operation can detect code mutated in between, as spec.md's CodeHashChecker
// requires.
package mempool

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"

	"github.com/entrypointlabs/uopguard/pkg/simulation"
)

// Mempool is a Badger-backed simulation.Mempool implementation.
type Mempool struct {
	db *badger.DB
}

// New wraps an already-open Badger database.
func New(db *badger.DB) *Mempool {
	return &Mempool{db: db}
}

var _ simulation.Mempool = (*Mempool)(nil)

func codeHashesKey(userOpHash common.Hash) []byte {
	return append([]byte("codehashes:"), userOpHash.Bytes()...)
}

// HasCodeHashes implements simulation.Mempool.
func (m *Mempool) HasCodeHashes(ctx context.Context, userOpHash common.Hash) (bool, error) {
	has := false
	err := m.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(codeHashesKey(userOpHash))
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		has = true
		return nil
	})
	return has, err
}

// GetCodeHashes implements simulation.Mempool.
func (m *Mempool) GetCodeHashes(ctx context.Context, userOpHash common.Hash) ([]simulation.CodeHash, error) {
	var out []simulation.CodeHash
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(codeHashesKey(userOpHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	return out, err
}

// PutCodeHashes records the code-hash set observed in a UserOperation's first simulation, overwriting any
// set previously stored for the same hash.
func (m *Mempool) PutCodeHashes(ctx context.Context, userOpHash common.Hash, hashes []simulation.CodeHash) error {
	val, err := json.Marshal(hashes)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(codeHashesKey(userOpHash), val)
	})
}

// Forget discards a UserOperation's stored code-hash set, e.g. once it has been included on-chain and will
// never be re-simulated.
func (m *Mempool) Forget(ctx context.Context, userOpHash common.Hash) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(codeHashesKey(userOpHash))
	})
}
