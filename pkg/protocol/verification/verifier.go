/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verification coordinates privacy-preserving claim verification
// between a verifier and a prover. The verifier learns only the boolean
// outcome and the attribute values it explicitly requested disclosed;
// everything else about the prover's claims stays private, including the
// reason for a failed verification.
package verification

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/registry"
	"github.com/scoir/attestor/pkg/session"
)

// Attribute requests disclosure of one credential field. An empty Value
// requires presence only; a non-empty Value must match the disclosed value
// exactly.
type Attribute struct {
	Schema       claim.SchemaDetails
	CredDefOwner string
	Field        string
	Value        string
}

// Predicate requests a zero-knowledge proof that a credential field is
// greater than or equal to Threshold. The field's value is never disclosed.
type Predicate struct {
	Schema       claim.SchemaDetails
	CredDefOwner string
	Field        string
	Threshold    int64
}

type state string

const (
	stateInit           state = "INIT"
	stateAwaitingProof  state = "AWAITING_PROOF"
	stateProofReceived  state = "PROOF_RECEIVED"
	stateAttributeCheck state = "ATTRIBUTE_CHECK"
	stateBuildingTx     state = "BUILDING_TX"
	stateCommitting     state = "COMMITTING"
)

type Verifier struct {
	wallet    *identity.Wallet
	resolver  identity.Resolver
	registry  registry.Reader
	engine    engine.ProofEngine
	committer commit.Committer
	dialer    session.Dialer

	timeout time.Duration
}

type Option func(v *Verifier)

// WithTimeout bounds how long the verifier waits on the prover at each
// session round-trip.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = d
	}
}

func New(ctx Provider, opts ...Option) *Verifier {
	v := &Verifier{
		wallet:    ctx.Wallet(),
		resolver:  ctx.Resolver(),
		registry:  ctx.Registry(),
		engine:    ctx.ProofEngine(),
		committer: ctx.Committer(),
		dialer:    ctx.Dialer(),
		timeout:   30 * time.Second,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// VerifyClaim challenges the prover with a fresh proof request over the
// given attributes and predicates and returns whether a valid proof was
// presented. Every failure mode collapses to false: an unreachable prover,
// a refused or invalid proof, a revoked credential, and an internal error
// are indistinguishable to the caller. Details go to the log, which stays
// on the verifier's side of the privacy boundary.
func (r *Verifier) VerifyClaim(ctx context.Context, prover, name string, attrs []Attribute, predicates []Predicate) bool {
	result, st, err := r.verify(ctx, prover, name, attrs, predicates)
	if err != nil {
		log.Printf("verification of %s failed in %s: %v", prover, st, err)
		return false
	}

	return result
}

func (r *Verifier) verify(ctx context.Context, prover, name string, attrs []Attribute, predicates []Predicate) (bool, state, error) {
	st := stateInit

	req, err := r.buildRequest(name, attrs, predicates)
	if err != nil {
		return false, st, err
	}

	party, err := r.resolver.Resolve(prover)
	if err != nil {
		return false, st, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sess, err := r.dialer.Open(ctx, party)
	if err != nil {
		return false, st, errors.Wrapf(err, "unable to reach prover %s", prover)
	}
	defer sess.Close()

	err = sess.Send(req)
	if err != nil {
		return false, st, errors.Wrap(err, "unable to deliver proof request")
	}

	st = stateAwaitingProof
	proof := &claim.Proof{}
	err = sess.Receive(ctx, &proof)
	if err != nil {
		return false, st, errors.Wrap(err, "no proof received")
	}

	st = stateProofReceived
	ok, err := r.engine.VerifyProof(req, proof)
	if err != nil {
		return false, st, errors.Wrap(err, "proof engine")
	}
	if !ok {
		return false, st, nil
	}

	st = stateAttributeCheck
	expected := expectedAttrs(attrs)
	for _, ea := range expected {
		got, disclosed := proof.RevealedAttrs[ea.Name]
		if !disclosed || got != ea.Value {
			return false, st, nil
		}
	}

	st = stateBuildingTx
	tx, err := r.buildTransaction(req, proof, prover, expected)
	if err != nil {
		return false, st, err
	}

	st = stateCommitting
	_, err = r.committer.Commit(ctx, tx, map[string]session.Session{prover: sess})
	if err != nil {
		return false, st, errors.Wrap(err, "unable to record verification")
	}

	return true, st, nil
}

// buildRequest resolves every schema and credential-definition reference
// through the registry and hands the resolved refs to the engine for nonce
// generation.
func (r *Verifier) buildRequest(name string, attrs []Attribute, predicates []Predicate) (*claim.ProofRequest, error) {
	fieldRefs := make([]claim.CredFieldRef, 0, len(attrs))
	for _, a := range attrs {
		ref, err := r.resolveRef(a.Schema, a.CredDefOwner, a.Field)
		if err != nil {
			return nil, err
		}
		fieldRefs = append(fieldRefs, ref)
	}

	predRefs := make([]claim.CredPredicate, 0, len(predicates))
	for _, p := range predicates {
		ref, err := r.resolveRef(p.Schema, p.CredDefOwner, p.Field)
		if err != nil {
			return nil, err
		}
		predRefs = append(predRefs, claim.CredPredicate{Ref: ref, Threshold: p.Threshold})
	}

	return r.engine.BuildProofRequest(name, fieldRefs, predRefs)
}

func (r *Verifier) resolveRef(details claim.SchemaDetails, owner, field string) (claim.CredFieldRef, error) {
	schemaID, err := r.registry.ResolveSchemaID(details)
	if err != nil {
		return claim.CredFieldRef{}, errors.Wrapf(err, "unable to resolve schema for %s", field)
	}

	credDefID, err := r.registry.ResolveCredDefID(schemaID, owner)
	if err != nil {
		return claim.CredFieldRef{}, errors.Wrapf(err, "unable to resolve credential definition for %s", field)
	}

	return claim.CredFieldRef{Field: field, SchemaID: schemaID, CredDefID: credDefID}, nil
}

func (r *Verifier) buildTransaction(req *claim.ProofRequest, proof *claim.Proof, prover string, expected []ledger.ExpectedAttr) (*ledger.Transaction, error) {
	notary, err := r.resolver.Notary()
	if err != nil {
		return nil, err
	}

	out := &claim.ClaimProofState{
		ID:       uuid.New().String(),
		Request:  *req,
		Proof:    *proof,
		Verifier: r.wallet.Name(),
		Prover:   prover,
	}

	cmd := ledger.Command{
		Type:          ledger.CommandVerify,
		ExpectedAttrs: expected,
		Signers:       []string{r.wallet.Name(), prover},
	}

	return ledger.NewTransaction(notary.Name, nil, []ledger.StateData{{ClaimProof: out}}, cmd)
}

// expectedAttrs keeps the attributes with a non-empty expected value. These
// parameterize the Verify command so the contract can re-check them.
func expectedAttrs(attrs []Attribute) []ledger.ExpectedAttr {
	var out []ledger.ExpectedAttr
	for _, a := range attrs {
		if a.Value == "" {
			continue
		}
		out = append(out, ledger.ExpectedAttr{Name: a.Field, Value: a.Value})
	}

	return out
}
