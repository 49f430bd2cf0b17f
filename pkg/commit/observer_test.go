package commit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	amqplib "github.com/streadway/amqp"
	"github.com/stretchr/testify/require"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/ledger"
)

func finalizedTx(t *testing.T) *ledger.Transaction {
	tx, err := ledger.NewTransaction("notary", nil, []ledger.StateData{{Claim: &claim.ClaimState{
		ClaimID:   "claim-1",
		CredDefID: "creddef-1",
		Values:    map[string]string{"name": "John Smith"},
		Issuer:    "acme",
		Subject:   "alice",
	}}}, ledger.Command{Type: ledger.CommandIssue, Signers: []string{"acme"}})
	require.NoError(t, err)

	tx.Finalized = true
	return tx
}

func TestObserver_Listen(t *testing.T) {
	t.Run("delivers finalized transactions", func(t *testing.T) {
		final := finalizedTx(t)
		d, err := json.Marshal(final)
		require.NoError(t, err)

		unfinalized := finalizedTx(t)
		unfinalized.Finalized = false
		ud, err := json.Marshal(unfinalized)
		require.NoError(t, err)

		msgs := make(chan amqplib.Delivery, 3)
		msgs <- amqplib.Delivery{Body: []byte("not a transaction")}
		msgs <- amqplib.Delivery{Body: ud}
		msgs <- amqplib.Delivery{Body: d}
		close(msgs)

		var got []*ledger.Transaction
		target := NewObserver(&listenerMock{msgs: msgs}, func(tx *ledger.Transaction) {
			got = append(got, tx)
		})

		require.NoError(t, target.Listen(context.Background()))
		require.Len(t, got, 1)
		require.Equal(t, final.ID, got[0].ID)
	})
	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		target := NewObserver(&listenerMock{msgs: make(chan amqplib.Delivery)}, func(*ledger.Transaction) {
			t.Fatal("no transaction was published")
		})

		require.NoError(t, target.Listen(ctx))
	})
	t.Run("listener failure", func(t *testing.T) {
		target := NewObserver(&listenerMock{err: errors.New("broker down")}, func(*ledger.Transaction) {})

		err := target.Listen(context.Background())
		require.Error(t, err)
	})
}
