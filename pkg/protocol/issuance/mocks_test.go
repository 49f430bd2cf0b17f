package issuance

import (
	"context"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/registry"
	"github.com/scoir/attestor/pkg/session"
)

type providerMock struct {
	wallet    *identity.Wallet
	resolver  identity.Resolver
	registry  *registryMock
	engine    engine.ProofEngine
	committer *committerMock
}

func (r *providerMock) Wallet() *identity.Wallet        { return r.wallet }
func (r *providerMock) Resolver() identity.Resolver     { return r.resolver }
func (r *providerMock) Registry() registry.Reader       { return r.registry }
func (r *providerMock) ProofEngine() engine.ProofEngine { return r.engine }
func (r *providerMock) Committer() commit.Committer     { return r.committer }

type registryMock struct {
	schemaID  string
	credDefID string
	exists    bool
	err       error
}

func (r *registryMock) ResolveSchemaID(details claim.SchemaDetails) (string, error) {
	return r.schemaID, r.err
}

func (r *registryMock) ResolveCredDefID(schemaID, owner string) (string, error) {
	return r.credDefID, r.err
}

func (r *registryMock) CredDefExists(credDefID string) (bool, error) {
	return r.exists, r.err
}

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
