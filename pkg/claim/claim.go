/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claim

import "fmt"

// SchemaDetails names a schema as published by its author. Schemas are
// immutable; once published they are referenced by ID only.
type SchemaDetails struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Owner   string `json:"owner"`
}

func (r SchemaDetails) RegistryKey() string {
	return fmt.Sprintf("schema/%s/%s/%s", r.Owner, r.Name, r.Version)
}

// CredentialDefinitionRef identifies a credential definition by the schema it
// instantiates and the party that owns it.
type CredentialDefinitionRef struct {
	SchemaID string `json:"schema_id"`
	Owner    string `json:"owner"`
}

func (r CredentialDefinitionRef) RegistryKey() string {
	return fmt.Sprintf("creddef/%s/%s", r.SchemaID, r.Owner)
}

// CredFieldRef identifies one provable attribute slot in a credential
// definition.
type CredFieldRef struct {
	Field     string `json:"field"`
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
}

// CredPredicate asserts `value >= Threshold` over the referenced field. The
// ">=" operator is the only one supported and comparisons are integer-only.
type CredPredicate struct {
	Ref       CredFieldRef `json:"ref"`
	Threshold int64        `json:"threshold"`
}

// ProofRequest is built fresh per verification session and is never persisted
// independently of the resulting ClaimProofState.
type ProofRequest struct {
	Name       string          `json:"name"`
	Nonce      string          `json:"nonce"`
	Attributes []CredFieldRef  `json:"attributes"`
	Predicates []CredPredicate `json:"predicates"`
}

// CredentialIdentifier records which credential a sub-proof was constructed
// from, including its revocation coordinates when the credential supports
// revocation.
type CredentialIdentifier struct {
	CredDefID string `json:"cred_def_id"`
	RevRegID  string `json:"rev_reg_id,omitempty"`
	CredRevID string `json:"cred_rev_id,omitempty"`
}

// Proof is the zero-knowledge artifact produced by the proof engine. Data is
// opaque to the protocol; RevealedAttrs carries the values the prover chose
// to disclose, keyed by field name.
type Proof struct {
	Data          []byte                 `json:"data"`
	RevealedAttrs map[string]string      `json:"revealed_attrs"`
	Identifiers   []CredentialIdentifier `json:"identifiers"`
}

// ClaimState is the ledger-resident record of an issued claim. It is spent by
// revocation and never recreated; a claim with no revocation registry cannot
// be revoked.
type ClaimState struct {
	ClaimID   string            `json:"claim_id" bson:"claim_id"`
	CredDefID string            `json:"cred_def_id" bson:"cred_def_id"`
	Values    map[string]string `json:"values" bson:"values"`
	RevRegID  string            `json:"rev_reg_id,omitempty" bson:"rev_reg_id,omitempty"`
	CredRevID string            `json:"cred_rev_id,omitempty" bson:"cred_rev_id,omitempty"`
	Issuer    string            `json:"issuer" bson:"issuer"`
	Subject   string            `json:"subject" bson:"subject"`
}

// Revocable reports whether the claim was issued with revocation support.
func (r *ClaimState) Revocable() bool {
	return r.RevRegID != "" && r.CredRevID != ""
}

func (r *ClaimState) Participants() []string {
	return []string{r.Issuer, r.Subject}
}

// ClaimProofState is the ledger-resident record of a successful verification
// session. Terminal once notarized.
type ClaimProofState struct {
	ID       string       `json:"id" bson:"id"`
	Request  ProofRequest `json:"request" bson:"request"`
	Proof    Proof        `json:"proof" bson:"proof"`
	Verifier string       `json:"verifier" bson:"verifier"`
	Prover   string       `json:"prover" bson:"prover"`
}

func (r *ClaimProofState) Participants() []string {
	return []string{r.Verifier, r.Prover}
}
