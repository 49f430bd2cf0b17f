/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package commit drives the multi-party signing, notarization, and finality
// sequence shared by issuance, revocation, and verification. The protocol is
// all-or-nothing: either every required party records the identical
// finalized transaction, or no party's ledger view changes.
package commit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/amqp"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

// ErrAborted is returned when a required co-signer declines or any step
// before notarization fails. No ledger effect has taken place.
var ErrAborted = errors.New("commit aborted")

type Protocol struct {
	wallet   *identity.Wallet
	resolver identity.Resolver
	svc      ledger.Service

	notifier amqp.Publisher
}

type Option func(p *Protocol)

// WithNotifier publishes every finalized transaction for out-of-band
// observers.
func WithNotifier(pub amqp.Publisher) Option {
	return func(p *Protocol) {
		p.notifier = pub
	}
}

func New(ctx Provider, opts ...Option) *Protocol {
	p := &Protocol{
		wallet:   ctx.Wallet(),
		resolver: ctx.Resolver(),
		svc:      ctx.Ledger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Commit runs the full sequence for a candidate transaction. Sessions must
// be open to every required signer other than the initiator; a missing
// session, a refusal, or a bad countersignature aborts with no ledger
// effect. A notary conflict is surfaced as ledger.ErrStateConflict,
// distinctly from other failures, because the caller must re-fetch state
// before retrying.
func (r *Protocol) Commit(ctx context.Context, tx *ledger.Transaction, sessions map[string]session.Session) (*ledger.Transaction, error) {
	err := ledger.VerifyContract(tx)
	if err != nil {
		return nil, errors.Wrap(err, "local contract verification failed")
	}

	err = r.svc.Submit(tx)
	if err != nil {
		return nil, errors.Wrap(err, "ledger rejected candidate transaction")
	}

	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}

	sig, err := r.wallet.Sign(digest)
	if err != nil {
		return nil, err
	}
	tx.Signatures[r.wallet.Name()] = sig

	err = r.collectSignatures(ctx, tx, digest, sessions)
	if err != nil {
		return nil, err
	}

	final, err := r.svc.Notarize(tx)
	if errors.Cause(err) == ledger.ErrStateConflict {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "notarization failed")
	}

	r.propagate(final, sessions)

	return final, nil
}

func (r *Protocol) collectSignatures(ctx context.Context, tx *ledger.Transaction, digest []byte, sessions map[string]session.Session) error {
	for _, signer := range tx.Command.Signers {
		if signer == r.wallet.Name() {
			continue
		}

		sess, ok := sessions[signer]
		if !ok {
			return errors.Wrapf(ErrAborted, "no session open to required signer %s", signer)
		}

		err := sess.Send(&SignatureRequest{Tx: tx})
		if err != nil {
			return errors.Wrapf(err, "unable to request signature from %s", signer)
		}

		resp := &SignatureResponse{}
		err = sess.Receive(ctx, &resp)
		if err != nil {
			return errors.Wrapf(err, "no signature response from %s", signer)
		}

		if resp.Refused {
			return errors.Wrapf(ErrAborted, "%s refused to sign: %s", signer, resp.Reason)
		}

		party, err := r.resolver.Resolve(signer)
		if err != nil {
			return err
		}

		err = identity.Verify(party.Verkey, digest, resp.Signature)
		if err != nil {
			return errors.Wrapf(err, "countersignature from %s is invalid", signer)
		}

		tx.Signatures[signer] = resp.Signature
	}

	return nil
}

// propagate records finality everywhere it is required: the initiator's own
// view, every participant's view via the ledger service, live counterparties
// over their sessions, and the optional notifier.
func (r *Protocol) propagate(final *ledger.Transaction, sessions map[string]session.Session) {
	for _, party := range final.Participants() {
		err := r.svc.PersistFinalized(party, final)
		if err != nil {
			log.Println("unable to persist finalized transaction for", party, err)
		}
	}

	for name, sess := range sessions {
		err := sess.Send(&FinalizedNotice{Tx: final})
		if err != nil {
			log.Println("unable to notify", name, "of finality", err)
		}
	}

	if r.notifier != nil {
		d, err := json.Marshal(final)
		if err == nil {
			err = r.notifier.Publish(d, "application/json")
		}
		if err != nil {
			log.Println("unable to publish finalized transaction", err)
		}
	}
}
