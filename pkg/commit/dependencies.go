package commit

import (
	"context"

	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

//go:generate mockery -name=Provider
type Provider interface {
	Wallet() *identity.Wallet
	Resolver() identity.Resolver
	Ledger() ledger.Service
}

// Committer is the surface the protocol coordinators depend on.
//go:generate mockery -name=Committer
type Committer interface {
	Commit(ctx context.Context, tx *ledger.Transaction, sessions map[string]session.Session) (*ledger.Transaction, error)
}
