/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

// Prover answers proof requests. It builds proofs from the subject's secret
// credential material and countersigns the resulting verification record,
// subject to an acceptance policy.
type Prover struct {
	wallet *identity.Wallet
	engine engine.ProofEngine
	secret engine.SecretHandle
	policy commit.AcceptancePolicy
}

func NewProver(wallet *identity.Wallet, eng engine.ProofEngine, secret engine.SecretHandle, policy commit.AcceptancePolicy) *Prover {
	if policy == nil {
		policy = DefaultAcceptancePolicy()
	}

	return &Prover{
		wallet: wallet,
		engine: eng,
		secret: secret,
		policy: policy,
	}
}

// Handler returns the session handler for incoming verification requests.
// Failures end the session; the verifier sees them only as an absent or
// refused proof.
func (r *Prover) Handler(ctx context.Context) session.Handler {
	return func(sess session.Session) {
		defer sess.Close()

		err := r.respond(ctx, sess)
		if err != nil {
			log.Printf("proof presentation to %s ended: %v", sess.Counterparty(), err)
		}
	}
}

func (r *Prover) respond(ctx context.Context, sess session.Session) error {
	req := &claim.ProofRequest{}
	err := sess.Receive(ctx, &req)
	if err != nil {
		return errors.Wrap(err, "no proof request received")
	}

	proof, err := r.engine.BuildProof(req, r.secret)
	if err != nil {
		return errors.Wrap(err, "unable to build proof")
	}

	err = sess.Send(proof)
	if err != nil {
		return errors.Wrap(err, "unable to present proof")
	}

	_, err = commit.RespondSign(ctx, sess, r.wallet, r.policy)
	return err
}

// DefaultAcceptancePolicy countersigns a verification record only when it
// carries exactly the proof the prover presented: a Verify command whose
// expected attributes all match what the proof actually disclosed.
func DefaultAcceptancePolicy() commit.AcceptancePolicy {
	return commit.AcceptancePolicyFunc(func(tx *ledger.Transaction) error {
		if tx.Command.Type != ledger.CommandVerify {
			return errors.Errorf("will not countersign a %s transaction", tx.Command.Type)
		}

		if len(tx.Outputs) != 1 || tx.Outputs[0].ClaimProof == nil {
			return errors.New("verification record output is missing")
		}

		disclosed := tx.Outputs[0].ClaimProof.Proof.RevealedAttrs
		for _, ea := range tx.Command.ExpectedAttrs {
			if disclosed[ea.Name] != ea.Value {
				return errors.Errorf("expected attribute %s was not disclosed as claimed", ea.Name)
			}
		}

		return nil
	})
}
