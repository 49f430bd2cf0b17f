/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"github.com/pkg/errors"
)

// VerifyContract runs the structural and business-rule checks for a
// transaction. Every party runs it independently before signing; a failure
// here aborts the commit protocol before any signature is requested.
func VerifyContract(tx *Transaction) error {
	switch tx.Command.Type {
	case CommandIssue:
		return verifyIssue(tx)
	case CommandRevoke:
		return verifyRevoke(tx)
	case CommandVerify:
		return verifyVerify(tx)
	}

	return errors.Errorf("unknown command type %q", tx.Command.Type)
}

func verifyIssue(tx *Transaction) error {
	if len(tx.Inputs) != 0 {
		return errors.New("issue transaction must not consume states")
	}
	if len(tx.Outputs) != 1 || tx.Outputs[0].Claim == nil {
		return errors.New("issue transaction must produce exactly one claim state")
	}

	c := tx.Outputs[0].Claim
	if c.ClaimID == "" || c.CredDefID == "" {
		return errors.New("claim state is missing its identifiers")
	}
	if len(c.Values) == 0 {
		return errors.New("claim state carries no attribute values")
	}
	if c.Issuer == "" || c.Subject == "" {
		return errors.New("claim state is missing participants")
	}

	return requireSigner(tx, c.Issuer)
}

func verifyRevoke(tx *Transaction) error {
	if len(tx.Inputs) != 1 || tx.Inputs[0].State.Claim == nil {
		return errors.New("revoke transaction must consume exactly one claim state")
	}
	if len(tx.Outputs) != 0 {
		return errors.New("revocation is terminal, no successor state allowed")
	}

	c := tx.Inputs[0].State.Claim
	if !c.Revocable() {
		return errors.New("claim was issued without revocation support")
	}

	return requireSigner(tx, c.Issuer)
}

func verifyVerify(tx *Transaction) error {
	if len(tx.Inputs) != 0 {
		return errors.New("verify transaction must not consume states")
	}
	if len(tx.Outputs) != 1 || tx.Outputs[0].ClaimProof == nil {
		return errors.New("verify transaction must produce exactly one claim proof state")
	}

	p := tx.Outputs[0].ClaimProof
	if p.ID == "" {
		return errors.New("claim proof state is missing its identifier")
	}
	if len(p.Proof.Data) == 0 {
		return errors.New("claim proof state carries no proof")
	}
	if p.Request.Nonce == "" {
		return errors.New("proof request carries no nonce")
	}

	for _, expected := range tx.Command.ExpectedAttrs {
		disclosed, ok := p.Proof.RevealedAttrs[expected.Name]
		if !ok {
			return errors.Errorf("expected attribute %q was not disclosed", expected.Name)
		}
		if disclosed != expected.Value {
			return errors.Errorf("disclosed value for %q does not match the expected value", expected.Name)
		}
	}

	err := requireSigner(tx, p.Verifier)
	if err != nil {
		return err
	}

	return requireSigner(tx, p.Prover)
}

func requireSigner(tx *Transaction, name string) error {
	for _, s := range tx.Command.Signers {
		if s == name {
			return nil
		}
	}

	return errors.Errorf("%s must be a required signer", name)
}
