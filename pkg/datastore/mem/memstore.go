/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mem

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/ledger"
)

// Provider is an in-memory implementation of the datastore.Provider
// interface, used in tests and the single-process demo network.
type Provider struct {
	lock   sync.Mutex
	stores map[string]*memStore
}

func NewProvider() *Provider {
	return &Provider{stores: map[string]*memStore{}}
}

func (r *Provider) OpenStore(name string) (datastore.Store, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	s, ok := r.stores[name]
	if !ok {
		s = newMemStore()
		r.stores[name] = s
	}

	return s, nil
}

func (r *Provider) CloseStore(name string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.stores, name)
	return nil
}

func (r *Provider) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.stores = map[string]*memStore{}
	return nil
}

type memStore struct {
	lock   sync.RWMutex
	claims map[string]*datastore.ClaimRecord
	proofs map[string]*datastore.ClaimProofRecord
	txs    map[string]*ledger.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		claims: map[string]*datastore.ClaimRecord{},
		proofs: map[string]*datastore.ClaimProofRecord{},
		txs:    map[string]*ledger.Transaction{},
	}
}

func (r *memStore) InsertClaim(c *datastore.ClaimRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.claims[c.State.ClaimID] = c
	return nil
}

func (r *memStore) GetClaim(claimID string) (*datastore.ClaimRecord, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	c, ok := r.claims[claimID]
	if !ok {
		return nil, errors.Wrap(datastore.ErrNotFound, claimID)
	}

	out := *c
	return &out, nil
}

func (r *memStore) SpendClaim(claimID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	c, ok := r.claims[claimID]
	if !ok {
		return errors.Wrap(datastore.ErrNotFound, claimID)
	}

	c.Spent = true
	return nil
}

func (r *memStore) InsertClaimProof(p *datastore.ClaimProofRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.proofs[p.State.ID] = p
	return nil
}

func (r *memStore) GetClaimProof(id string) (*datastore.ClaimProofRecord, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok := r.proofs[id]
	if !ok {
		return nil, errors.Wrap(datastore.ErrNotFound, id)
	}

	out := *p
	return &out, nil
}

func (r *memStore) InsertTransaction(tx *ledger.Transaction) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.txs[tx.ID] = tx
	return nil
}

func (r *memStore) GetTransaction(id string) (*ledger.Transaction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	tx, ok := r.txs[id]
	if !ok {
		return nil, errors.Wrap(datastore.ErrNotFound, id)
	}

	return tx, nil
}
