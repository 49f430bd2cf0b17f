/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memledger is an in-process Ledger Service used by tests and the
// single-process demo network. The notary serializes state consumption under
// one lock, which gives the global total order the protocol relies on.
package memledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
)

type Ledger struct {
	wallet   *identity.Wallet
	resolver identity.Resolver

	lock     sync.Mutex
	registry map[string]string
	spent    map[ledger.StateRef]string
	final    map[string]*ledger.Transaction
	vaults   map[string]datastore.Store
}

// New creates a ledger notarized by the given wallet. Party verkeys are
// resolved through the membership resolver when checking signatures.
func New(wallet *identity.Wallet, resolver identity.Resolver) *Ledger {
	return &Ledger{
		wallet:   wallet,
		resolver: resolver,
		registry: map[string]string{},
		spent:    map[ledger.StateRef]string{},
		final:    map[string]*ledger.Transaction{},
		vaults:   map[string]datastore.Store{},
	}
}

// RegisterVault attaches a party's local store so PersistFinalized can
// record transactions in that party's view.
func (r *Ledger) RegisterVault(party string, store datastore.Store) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.vaults[party] = store
}

// PublishSchema records a schema in the immutable registry and returns its
// identifier.
func (r *Ledger) PublishSchema(key, schemaID string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.registry[key] = schemaID
}

// PublishCredDef records a credential definition under both its composite
// key and its identifier reverse key.
func (r *Ledger) PublishCredDef(key, credDefID, schemaID string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.registry[key] = credDefID
	r.registry["creddef-id/"+credDefID] = schemaID
}

func (r *Ledger) QueryRegistry(key string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	v, ok := r.registry[key]
	if !ok {
		return "", errors.Wrap(ledger.ErrNotFound, key)
	}

	return v, nil
}

// Submit is the server-side structural check of a candidate transaction.
func (r *Ledger) Submit(tx *ledger.Transaction) error {
	return ledger.VerifyContract(tx)
}

// Notarize atomically checks that no input has been consumed, validates the
// required signatures, and stamps finality. Two transactions racing to
// consume the same state are serialized here; the loser gets
// ErrStateConflict.
func (r *Ledger) Notarize(tx *ledger.Transaction) (*ledger.Transaction, error) {
	err := ledger.VerifyContract(tx)
	if err != nil {
		return nil, errors.Wrap(err, "contract verification failed at notary")
	}

	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	for _, signer := range tx.Command.Signers {
		sig, ok := tx.Signatures[signer]
		if !ok {
			return nil, errors.Errorf("missing signature from %s", signer)
		}

		party, err := r.resolver.Resolve(signer)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to resolve signer %s", signer)
		}

		err = identity.Verify(party.Verkey, digest, sig)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid signature from %s", signer)
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	for _, in := range tx.Inputs {
		if winner, ok := r.spent[in.Ref]; ok {
			return nil, errors.Wrapf(ledger.ErrStateConflict,
				"input %s:%d already consumed by %s", in.Ref.TxID, in.Ref.Index, winner)
		}
	}

	for _, in := range tx.Inputs {
		r.spent[in.Ref] = tx.ID
	}

	notarySig, err := r.wallet.Sign(digest)
	if err != nil {
		return nil, errors.Wrap(err, "notary unable to sign")
	}

	tx.Finalized = true
	tx.NotarySig = notarySig
	r.final[tx.ID] = tx

	return tx, nil
}

// PersistFinalized records a finalized transaction in one party's vault:
// outputs become live records, consumed claims are marked spent.
func (r *Ledger) PersistFinalized(party string, tx *ledger.Transaction) error {
	if !tx.Finalized {
		return errors.New("refusing to persist a transaction that has not been notarized")
	}

	r.lock.Lock()
	store, ok := r.vaults[party]
	r.lock.Unlock()
	if !ok {
		return errors.Wrapf(identity.ErrUnknownParty, "no vault registered for %s", party)
	}

	err := store.InsertTransaction(tx)
	if err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		if in.State.Claim == nil {
			continue
		}
		err = store.SpendClaim(in.State.Claim.ClaimID)
		if err != nil && errors.Cause(err) != datastore.ErrNotFound {
			return err
		}
	}

	for _, out := range tx.Outputs {
		switch {
		case out.Claim != nil:
			err = store.InsertClaim(&datastore.ClaimRecord{State: out.Claim, TxID: tx.ID})
		case out.ClaimProof != nil:
			err = store.InsertClaimProof(&datastore.ClaimProofRecord{State: out.ClaimProof, TxID: tx.ID})
		}
		if err != nil {
			return err
		}
	}

	return nil
}
