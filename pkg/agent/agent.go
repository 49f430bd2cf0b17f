/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package agent assembles one party's runtime: wallet, vault, registry
// client, proof engine, commit protocol, and the three protocol
// coordinators. An agent can act in any protocol role.
package agent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/amqp"
	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/protocol/issuance"
	"github.com/scoir/attestor/pkg/protocol/revocation"
	"github.com/scoir/attestor/pkg/protocol/verification"
	"github.com/scoir/attestor/pkg/registry"
	"github.com/scoir/attestor/pkg/session"
)

type Agent struct {
	wallet   *identity.Wallet
	resolver identity.Resolver
	ledger   ledger.Service
	engine   engine.ProofEngine
	store    datastore.Store
	registry *registry.Client
	dialer   session.Dialer
	secret   engine.SecretHandle

	notifier  amqp.Publisher
	committer *commit.Protocol
	issuer    *issuance.Coordinator
	revoker   *revocation.Coordinator
	verifier  *verification.Verifier
	prover    *verification.Prover
}

type Option func(a *Agent)

// WithNotifier publishes this agent's finalized transactions to a broker.
func WithNotifier(pub amqp.Publisher) Option {
	return func(a *Agent) {
		a.notifier = pub
	}
}

func NewAgent(p Provider, opts ...Option) (*Agent, error) {
	a := &Agent{
		wallet:   p.Wallet(),
		resolver: p.Resolver(),
		ledger:   p.Ledger(),
		engine:   p.ProofEngine(),
		dialer:   p.Dialer(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.secret = engine.SecretHandle(a.wallet.Name())

	dp, err := p.Datastore()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get datastore provider for agent")
	}

	a.store, err = dp.OpenStore(a.wallet.Name())
	if err != nil {
		return nil, errors.Wrap(err, "unable to open agent vault")
	}

	a.registry = registry.New(a.ledger)

	var commitOpts []commit.Option
	if a.notifier != nil {
		commitOpts = append(commitOpts, commit.WithNotifier(a.notifier))
	}
	a.committer = commit.New(a, commitOpts...)

	a.issuer = issuance.New(a)
	a.revoker = revocation.New(a)
	a.verifier = verification.New(a)
	a.prover = verification.NewProver(a.wallet, a.engine, a.secret, nil)

	return a, nil
}

// Name is the agent's party name on the network.
func (r *Agent) Name() string {
	return r.wallet.Name()
}

// IssueClaim issues a claim about subject and records it on the ledger.
func (r *Agent) IssueClaim(ctx context.Context, claimID, credDefID string, values map[string]string, subject string) (*claim.ClaimState, error) {
	return r.issuer.IssueClaim(ctx, claimID, credDefID, values, subject)
}

// RevokeClaim revokes a claim this agent issued.
func (r *Agent) RevokeClaim(ctx context.Context, claimID string) error {
	return r.revoker.RevokeClaim(ctx, claimID)
}

// VerifyClaim challenges a prover and returns the verification outcome.
func (r *Agent) VerifyClaim(ctx context.Context, prover, name string, attrs []verification.Attribute, predicates []verification.Predicate) bool {
	return r.verifier.VerifyClaim(ctx, prover, name, attrs, predicates)
}

// ProofHandler answers incoming proof requests with this agent's credential
// material. Register it with the session transport to act as a prover.
func (r *Agent) ProofHandler(ctx context.Context) session.Handler {
	return r.prover.Handler(ctx)
}

// Secret names this agent's credential material inside the proof engine.
func (r *Agent) Secret() engine.SecretHandle {
	return r.secret
}

// Provider methods for the commit protocol and the coordinators.

func (r *Agent) Wallet() *identity.Wallet {
	return r.wallet
}

func (r *Agent) Resolver() identity.Resolver {
	return r.resolver
}

func (r *Agent) Ledger() ledger.Service {
	return r.ledger
}

func (r *Agent) Registry() registry.Reader {
	return r.registry
}

func (r *Agent) ProofEngine() engine.ProofEngine {
	return r.engine
}

func (r *Agent) Committer() commit.Committer {
	return r.committer
}

func (r *Agent) Store() datastore.Store {
	return r.store
}

func (r *Agent) Dialer() session.Dialer {
	return r.dialer
}
