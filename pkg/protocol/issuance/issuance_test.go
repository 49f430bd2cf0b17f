package issuance

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	mockengine "github.com/scoir/attestor/pkg/mock/engine"
)

type issuanceTestSuite struct {
	target    *Coordinator
	registry  *registryMock
	engine    *mockengine.MockEngine
	committer *committerMock
}

func setup(t *testing.T) *issuanceTestSuite {
	wallet, err := identity.NewWallet("acme", "")
	require.NoError(t, err)

	notary, err := identity.NewWallet("notary", "")
	require.NoError(t, err)

	resolver := identity.NewStaticResolver(&identity.Membership{Notary: "notary"})
	resolver.Register(wallet.Identity())
	resolver.Register(notary.Identity())

	suite := &issuanceTestSuite{
		registry:  &registryMock{exists: true},
		engine:    mockengine.New(),
		committer: &committerMock{},
	}

	suite.target = New(&providerMock{
		wallet:    wallet,
		resolver:  resolver,
		registry:  suite.registry,
		engine:    suite.engine,
		committer: suite.committer,
	})

	return suite
}

func TestCoordinator_IssueClaim(t *testing.T) {
	values := map[string]string{"name": "John Smith", "yearofbirth": "1988"}

	t.Run("issues and commits", func(t *testing.T) {
		suite := setup(t)

		c, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.NoError(t, err)
		require.Equal(t, "acme", c.Issuer)
		require.Equal(t, "alice", c.Subject)
		require.True(t, c.Revocable())

		tx := suite.committer.committed
		require.NotNil(t, tx)
		require.Equal(t, ledger.CommandIssue, tx.Command.Type)
		require.Equal(t, []string{"acme"}, tx.Command.Signers)
		require.Equal(t, "notary", tx.Notary)
		require.Empty(t, tx.Inputs)
		require.Len(t, tx.Outputs, 1)
		require.Equal(t, c, tx.Outputs[0].Claim)
	})
	t.Run("without revocation support", func(t *testing.T) {
		suite := setup(t)
		suite.engine.SupportsRevocation = false

		c, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.NoError(t, err)
		require.False(t, c.Revocable())
	})
	t.Run("unpublished credential definition", func(t *testing.T) {
		suite := setup(t)
		suite.registry.exists = false

		_, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.Error(t, err)
		require.Contains(t, err.Error(), "has not been published")
		require.Nil(t, suite.committer.committed)
	})
	t.Run("registry failure", func(t *testing.T) {
		suite := setup(t)
		suite.registry.err = errors.New("connection reset")

		_, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.Error(t, err)
		require.Nil(t, suite.committer.committed)
	})
	t.Run("engine failure", func(t *testing.T) {
		suite := setup(t)

		_, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.NoError(t, err)

		// same claim again: credential material already exists
		_, err = suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.Error(t, err)
	})
	t.Run("commit failure", func(t *testing.T) {
		suite := setup(t)
		suite.committer.err = errors.New("notary unreachable")

		_, err := suite.target.IssueClaim(context.Background(), "claim-1", "creddef-1", values, "alice")
		require.Error(t, err)
		require.Contains(t, err.Error(), "issuance failed")
	})
}
