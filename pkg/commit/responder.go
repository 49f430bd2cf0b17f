/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commit

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

// AcceptancePolicy is the counterparty's transaction-acceptance check, run
// after contract verification and before countersigning. Returning an error
// refuses the transaction and aborts the initiator's commit.
type AcceptancePolicy interface {
	CheckTransaction(tx *ledger.Transaction) error
}

// AcceptancePolicyFunc adapts a function to an AcceptancePolicy.
type AcceptancePolicyFunc func(tx *ledger.Transaction) error

func (r AcceptancePolicyFunc) CheckTransaction(tx *ledger.Transaction) error {
	return r(tx)
}

// RespondSign runs the counterparty side of signature collection on an open
// session: receive the candidate, independently re-verify the contract, run
// the acceptance policy, countersign, and wait for the finality notice. The
// finalized transaction is returned so the caller can act on it; persistence
// into the responder's vault has already happened via the ledger service by
// the time the notice arrives.
func RespondSign(ctx context.Context, sess session.Session, wallet *identity.Wallet, policy AcceptancePolicy) (*ledger.Transaction, error) {
	req := &SignatureRequest{}
	err := sess.Receive(ctx, &req)
	if err != nil {
		return nil, errors.Wrap(err, "no signature request received")
	}

	tx := req.Tx

	err = ledger.VerifyContract(tx)
	if err == nil && policy != nil {
		err = policy.CheckTransaction(tx)
	}
	if err != nil {
		_ = sess.Send(&SignatureResponse{
			Signer:  wallet.Name(),
			Refused: true,
			Reason:  err.Error(),
		})
		return nil, errors.Wrap(ErrAborted, err.Error())
	}

	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	sig, err := wallet.Sign(digest)
	if err != nil {
		return nil, err
	}

	err = sess.Send(&SignatureResponse{Signer: wallet.Name(), Signature: sig})
	if err != nil {
		return nil, errors.Wrap(err, "unable to send countersignature")
	}

	notice := &FinalizedNotice{}
	err = sess.Receive(ctx, &notice)
	if err != nil {
		return nil, errors.Wrap(err, "commit did not finalize")
	}

	if !notice.Tx.Finalized {
		return nil, errors.New("received an unfinalized transaction as finality notice")
	}

	return notice.Tx, nil
}
