package commit

import (
	"github.com/streadway/amqp"

	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
)

type providerMock struct {
	wallet   *identity.Wallet
	resolver identity.Resolver
	ledger   ledger.Service
}

func (r *providerMock) Wallet() *identity.Wallet {
	return r.wallet
}

func (r *providerMock) Resolver() identity.Resolver {
	return r.resolver
}

func (r *providerMock) Ledger() ledger.Service {
	return r.ledger
}

type publisherMock struct {
	published [][]byte
	err       error
}

func (r *publisherMock) Publish(body []byte, contentType string) error {
	if r.err != nil {
		return r.err
	}

	r.published = append(r.published, body)
	return nil
}

func (r *publisherMock) Close() error {
	return nil
}

type listenerMock struct {
	msgs chan amqp.Delivery
	err  error
}

func (r *listenerMock) Listen() (<-chan amqp.Delivery, error) {
	if r.err != nil {
		return nil, r.err
	}

	return r.msgs, nil
}
