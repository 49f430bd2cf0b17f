package issuance

import (
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/engine"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/registry"
)

//go:generate mockery -name=Provider
type Provider interface {
	Wallet() *identity.Wallet
	Resolver() identity.Resolver
	Registry() registry.Reader
	ProofEngine() engine.ProofEngine
	Committer() commit.Committer
}
