package revocation

import (
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
)

//go:generate mockery -name=Provider
type Provider interface {
	Wallet() *identity.Wallet
	Resolver() identity.Resolver
	ProofEngine() engine.ProofEngine
	Committer() commit.Committer
	Store() datastore.Store
}
