/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuance coordinates claim issuance. Issuance is a unilateral
// declaration by the issuer, notarized for global visibility; the subject
// does not countersign.
package issuance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/registry"
)

type Coordinator struct {
	wallet    *identity.Wallet
	resolver  identity.Resolver
	registry  registry.Reader
	engine    engine.ProofEngine
	committer commit.Committer
}

func New(ctx Provider) *Coordinator {
	return &Coordinator{
		wallet:    ctx.Wallet(),
		resolver:  ctx.Resolver(),
		registry:  ctx.Registry(),
		engine:    ctx.ProofEngine(),
		committer: ctx.Committer(),
	}
}

// IssueClaim creates credential material for the subject, builds the claim
// state, and commits it with the issuer as sole signer. Any failure aborts
// with a structured error and zero ledger footprint.
func (r *Coordinator) IssueClaim(ctx context.Context, claimID, credDefID string, proposal map[string]string, subject string) (*claim.ClaimState, error) {
	ok, err := r.registry.CredDefExists(credDefID)
	if err != nil {
		return nil, errors.Wrap(err, "issuance failed: registry lookup")
	}
	if !ok {
		return nil, errors.Errorf("issuance failed: credential definition %s has not been published", credDefID)
	}

	c := &claim.ClaimState{
		ClaimID:   claimID,
		CredDefID: credDefID,
		Values:    proposal,
		Issuer:    r.wallet.Name(),
		Subject:   subject,
	}

	issued, err := r.engine.IssueCredential(c, engine.SecretHandle(subject))
	if err != nil {
		return nil, errors.Wrap(err, "issuance failed: proof engine")
	}

	c.RevRegID = issued.RevRegID
	c.CredRevID = issued.CredRevID

	notary, err := r.resolver.Notary()
	if err != nil {
		return nil, errors.Wrap(err, "issuance failed: no notary")
	}

	cmd := ledger.Command{
		Type:    ledger.CommandIssue,
		Signers: []string{c.Issuer},
	}

	tx, err := ledger.NewTransaction(notary.Name, nil, []ledger.StateData{{Claim: c}}, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "issuance failed: unable to build transaction")
	}

	_, err = r.committer.Commit(ctx, tx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "issuance failed")
	}

	return c, nil
}
