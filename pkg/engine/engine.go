/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package engine declares the contract consumed from the external credential
// proof system. The coordinators depend only on these pre/postconditions:
// VerifyProof returns true iff the proof was constructed from credential
// material satisfying every requested predicate and truthfully disclosing
// every requested attribute, including the engine-internal revocation check.
package engine

import (
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
)

var (
	// ErrRevocation is returned when the revocation registry is unknown or
	// the registry update cannot be applied.
	ErrRevocation = errors.New("revocation failed")

	// ErrAlreadyRevoked is returned when the credential is already revoked
	// in its registry. Callers reconciling a partial revocation treat it as
	// success.
	ErrAlreadyRevoked = errors.New("credential already revoked")
)

// SecretHandle names a subject's private credential material inside the
// engine. The material itself never crosses this boundary.
type SecretHandle string

// IssuedCredential is the engine-side outcome of credential creation. The
// revocation coordinates are empty when the credential definition does not
// support revocation.
type IssuedCredential struct {
	RevRegID  string
	CredRevID string
}

// ProofEngine wraps the external proof system.
//go:generate mockery -name=ProofEngine
type ProofEngine interface {
	// IssueCredential creates credential material for a claim and binds it
	// to the subject's secret.
	IssueCredential(c *claim.ClaimState, secret SecretHandle) (*IssuedCredential, error)

	// BuildProofRequest assembles a fresh request over the given attribute
	// and predicate references.
	BuildProofRequest(name string, attrs []claim.CredFieldRef, predicates []claim.CredPredicate) (*claim.ProofRequest, error)

	// BuildProof constructs a proof from the prover's credential material.
	// Only the party holding the subject's secret can execute it.
	BuildProof(req *claim.ProofRequest, secret SecretHandle) (*claim.Proof, error)

	// VerifyProof checks a proof against the request it answers.
	VerifyProof(req *claim.ProofRequest, proof *claim.Proof) (bool, error)

	// Revoke marks one credential revoked in its registry.
	Revoke(revRegID, credRevID string) error
}
