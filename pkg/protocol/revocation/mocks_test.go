package revocation

import (
	"context"

	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

type providerMock struct {
	wallet    *identity.Wallet
	resolver  identity.Resolver
	engine    engine.ProofEngine
	committer *committerMock
	store     datastore.Store
}

func (r *providerMock) Wallet() *identity.Wallet        { return r.wallet }
func (r *providerMock) Resolver() identity.Resolver     { return r.resolver }
func (r *providerMock) ProofEngine() engine.ProofEngine { return r.engine }
func (r *providerMock) Committer() commit.Committer     { return r.committer }
func (r *providerMock) Store() datastore.Store          { return r.store }

type committerMock struct {
	committed *ledger.Transaction
	err       error
}

func (r *committerMock) Commit(_ context.Context, tx *ledger.Transaction, _ map[string]session.Session) (*ledger.Transaction, error) {
	if r.err != nil {
		return nil, r.err
	}

	r.committed = tx
	tx.Finalized = true
	return tx, nil
}
