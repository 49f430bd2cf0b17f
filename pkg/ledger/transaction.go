/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
)

type CommandType string

const (
	CommandIssue  CommandType = "Issue"
	CommandRevoke CommandType = "Revoke"
	CommandVerify CommandType = "Verify"
)

// ExpectedAttr parameterizes the Verify command with the attribute values
// the verifier checked against the disclosed proof.
type ExpectedAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Command names the state transition and the parties whose signatures are
// required for it.
type Command struct {
	Type          CommandType    `json:"type"`
	ExpectedAttrs []ExpectedAttr `json:"expected_attrs,omitempty"`
	Signers       []string       `json:"signers"`
}

// StateData is the union of state types a transaction can carry. Exactly one
// field is set.
type StateData struct {
	Claim      *claim.ClaimState      `json:"claim,omitempty" bson:"claim,omitempty"`
	ClaimProof *claim.ClaimProofState `json:"claim_proof,omitempty" bson:"claim_proof,omitempty"`
}

func (r StateData) Participants() []string {
	switch {
	case r.Claim != nil:
		return r.Claim.Participants()
	case r.ClaimProof != nil:
		return r.ClaimProof.Participants()
	}

	return nil
}

// StateRef points at an output of a previously notarized transaction.
type StateRef struct {
	TxID  string `json:"tx_id" bson:"tx_id"`
	Index int    `json:"index" bson:"index"`
}

// Input is a consumed state together with its lineage reference, so that
// counterparties can re-run contract verification without a vault lookup.
type Input struct {
	Ref   StateRef  `json:"ref" bson:"ref"`
	State StateData `json:"state" bson:"state"`
}

// Transaction is one atomic state transition. It is built unsigned, locally
// verified, signed by every required party, then notarized. No party's
// ledger view changes before notarization.
type Transaction struct {
	ID         string            `json:"id" bson:"id"`
	Notary     string            `json:"notary" bson:"notary"`
	Inputs     []Input           `json:"inputs" bson:"inputs"`
	Outputs    []StateData       `json:"outputs" bson:"outputs"`
	Command    Command           `json:"command" bson:"command"`
	Signatures map[string][]byte `json:"signatures" bson:"signatures"`
	Finalized  bool              `json:"finalized" bson:"finalized"`
	NotarySig  []byte            `json:"notary_sig,omitempty" bson:"notary_sig,omitempty"`
}

type txCore struct {
	Notary  string      `json:"notary"`
	Inputs  []Input     `json:"inputs"`
	Outputs []StateData `json:"outputs"`
	Command Command     `json:"command"`
}

// NewTransaction builds an unsigned transaction and derives its identifier
// from the digest of its core.
func NewTransaction(notary string, inputs []Input, outputs []StateData, cmd Command) (*Transaction, error) {
	tx := &Transaction{
		Notary:     notary,
		Inputs:     inputs,
		Outputs:    outputs,
		Command:    cmd,
		Signatures: map[string][]byte{},
	}

	d, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	tx.ID = base58.Encode(d)

	return tx, nil
}

// Digest is the signing payload: a hash over everything except signatures
// and finality.
func (r *Transaction) Digest() ([]byte, error) {
	core := txCore{
		Notary:  r.Notary,
		Inputs:  r.Inputs,
		Outputs: r.Outputs,
		Command: r.Command,
	}

	d, err := json.Marshal(core)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal transaction core")
	}

	h := sha256.Sum256(d)
	return h[:], nil
}

// SignedBy reports whether the transaction carries a signature from every
// required signer.
func (r *Transaction) SignedBy(signers ...string) bool {
	for _, s := range signers {
		if len(r.Signatures[s]) == 0 {
			return false
		}
	}

	return true
}

// Participants is every party that must record the finalized transaction:
// required signers plus state participants.
func (r *Transaction) Participants() []string {
	seen := map[string]struct{}{}
	var out []string

	add := func(names []string) {
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}

	add(r.Command.Signers)
	for _, in := range r.Inputs {
		add(in.State.Participants())
	}
	for _, o := range r.Outputs {
		add(o.Participants())
	}

	return out
}
