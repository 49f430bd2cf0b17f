/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/amqp"
	"github.com/scoir/attestor/pkg/ledger"
)

// Observer consumes the finality notifications a Protocol publishes through
// its notifier and hands each finalized transaction to the handler. It is how
// parties outside a transaction follow ledger activity without holding a
// session open.
type Observer struct {
	listener amqp.Listener
	handler  func(tx *ledger.Transaction)
}

func NewObserver(listener amqp.Listener, handler func(tx *ledger.Transaction)) *Observer {
	return &Observer{
		listener: listener,
		handler:  handler,
	}
}

// Listen consumes notifications until the context is done or the delivery
// channel closes. Payloads that do not decode to a finalized transaction are
// dropped with a log line.
func (r *Observer) Listen(ctx context.Context) error {
	msgs, err := r.listener.Listen()
	if err != nil {
		return errors.Wrap(err, "unable to listen for finality notifications")
	}

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return nil
			}

			tx := &ledger.Transaction{}
			err := json.Unmarshal(d.Body, tx)
			if err != nil {
				log.Println("discarding malformed finality notification", err)
				continue
			}
			if !tx.Finalized {
				log.Println("discarding notification for unfinalized transaction", tx.ID)
				continue
			}

			r.handler(tx)
		case <-ctx.Done():
			return nil
		}
	}
}
