package verification

import (
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/registry"
	"github.com/scoir/attestor/pkg/session"
)

//go:generate mockery -name=Provider
type Provider interface {
	Wallet() *identity.Wallet
	Resolver() identity.Resolver
	Registry() registry.Reader
	ProofEngine() engine.ProofEngine
	Committer() commit.Committer
	Dialer() session.Dialer
}
