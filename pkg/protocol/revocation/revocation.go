/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package revocation coordinates claim revocation. Revocation is two-phase:
// the credential is first revoked in the engine's registry, then the claim
// state is consumed on the ledger. The engine step is retried idempotently,
// so a crash between the phases leaves a window where the credential no
// longer verifies but the state is still live; re-running RevokeClaim closes
// it.
package revocation

import (
	"context"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/util"
)

var (
	// ErrClaimNotFound is returned when no live claim matches the identifier.
	ErrClaimNotFound = errors.New("claim not found")
	// ErrNotRevocable is returned for claims issued without revocation support.
	ErrNotRevocable = errors.New("claim does not support revocation")
)

type Coordinator struct {
	wallet    *identity.Wallet
	resolver  identity.Resolver
	engine    engine.ProofEngine
	committer commit.Committer
	store     datastore.Store

	retries uint64
}

func New(ctx Provider) *Coordinator {
	return &Coordinator{
		wallet:    ctx.Wallet(),
		resolver:  ctx.Resolver(),
		engine:    ctx.ProofEngine(),
		committer: ctx.Committer(),
		store:     ctx.Store(),
		retries:   5,
	}
}

// RevokeClaim revokes the credential backing a claim and consumes the claim
// state. Only the issuer may revoke. A notary conflict surfaces as
// ledger.ErrStateConflict; the claim was consumed by a concurrent
// transaction and no further action is needed.
func (r *Coordinator) RevokeClaim(ctx context.Context, claimID string) error {
	rec, err := r.store.GetClaim(claimID)
	if errors.Cause(err) == datastore.ErrNotFound {
		return errors.Wrap(ErrClaimNotFound, claimID)
	}
	if err != nil {
		return errors.Wrap(err, "revocation failed: vault lookup")
	}
	if rec.Spent {
		return errors.Wrapf(ErrClaimNotFound, "%s is already consumed", claimID)
	}

	c := rec.State
	if c.Issuer != r.wallet.Name() {
		return errors.Errorf("revocation failed: only issuer %s may revoke %s", c.Issuer, claimID)
	}
	if !c.Revocable() {
		return errors.Wrap(ErrNotRevocable, claimID)
	}

	err = r.revokeCredential(c)
	if err != nil {
		return err
	}

	ref, err := r.claimRef(rec)
	if err != nil {
		return err
	}

	notary, err := r.resolver.Notary()
	if err != nil {
		return errors.Wrap(err, "revocation failed: no notary")
	}

	cmd := ledger.Command{
		Type:    ledger.CommandRevoke,
		Signers: []string{c.Issuer},
	}

	tx, err := ledger.NewTransaction(notary.Name, []ledger.Input{{Ref: ref, State: ledger.StateData{Claim: c}}}, nil, cmd)
	if err != nil {
		return errors.Wrap(err, "revocation failed: unable to build transaction")
	}

	_, err = r.committer.Commit(ctx, tx, nil)
	if errors.Cause(err) == ledger.ErrStateConflict {
		return err
	}
	if err != nil {
		return errors.Wrap(err, "revocation failed")
	}

	return nil
}

// revokeCredential drives the engine-side registry update with retries.
// Transient failures back off and retry. An already-revoked answer counts
// as success: it means an earlier attempt landed before the ledger step,
// which is exactly the degraded window a re-run is meant to close.
func (r *Coordinator) revokeCredential(c *claim.ClaimState) error {
	op := func() error {
		err := r.engine.Revoke(c.RevRegID, c.CredRevID)
		if err == nil {
			return nil
		}

		switch errors.Cause(err) {
		case engine.ErrAlreadyRevoked:
			return nil
		case engine.ErrRevocation:
			return backoff.Permanent(err)
		}

		return err
	}

	err := backoff.RetryNotify(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries), util.Logger)
	if err != nil {
		return errors.Wrap(err, "revocation failed: registry update")
	}

	return nil
}

// claimRef recovers the ledger reference of the claim from the transaction
// that produced it.
func (r *Coordinator) claimRef(rec *datastore.ClaimRecord) (ledger.StateRef, error) {
	tx, err := r.store.GetTransaction(rec.TxID)
	if err != nil {
		return ledger.StateRef{}, errors.Wrapf(err, "revocation failed: issuing transaction %s missing", rec.TxID)
	}

	for i, out := range tx.Outputs {
		if out.Claim != nil && out.Claim.ClaimID == rec.State.ClaimID {
			return ledger.StateRef{TxID: tx.ID, Index: i}, nil
		}
	}

	return ledger.StateRef{}, errors.Errorf("revocation failed: claim %s not among outputs of %s", rec.State.ClaimID, rec.TxID)
}
