package agent

import (
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/session"
)

//go:generate mockery -name=Provider
type Provider interface {
	Wallet() *identity.Wallet
	Resolver() identity.Resolver
	Ledger() ledger.Service
	ProofEngine() engine.ProofEngine
	Datastore() (datastore.Provider, error)
	Dialer() session.Dialer
}
