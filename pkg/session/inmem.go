/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/identity"
)

// Handler runs the responder side of a freshly opened session.
type Handler func(sess Session)

// Hub is an in-memory transport for tests and the single-process demo
// network. Parties register a handler; opening a session to a party spawns
// its handler on the other end of a channel pair.
type Hub struct {
	lock     sync.RWMutex
	handlers map[string]Handler
	buffer   int
}

func NewHub() *Hub {
	return &Hub{
		handlers: map[string]Handler{},
		buffer:   16,
	}
}

// Handle registers the responder for a party name.
func (r *Hub) Handle(party string, h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handlers[party] = h
}

// DialerFor returns a Dialer that stamps opened sessions with the caller's
// name, so responders know who initiated.
func (r *Hub) DialerFor(caller string) Dialer {
	return &hubDialer{hub: r, caller: caller}
}

type hubDialer struct {
	hub    *Hub
	caller string
}

func (r *hubDialer) Open(_ context.Context, party *identity.PartyIdentity) (Session, error) {
	r.hub.lock.RLock()
	h, ok := r.hub.handlers[party.Name]
	r.hub.lock.RUnlock()
	if !ok {
		return nil, errors.Errorf("party %s is not listening", party.Name)
	}

	a2b := make(chan interface{}, r.hub.buffer)
	b2a := make(chan interface{}, r.hub.buffer)
	p := &pair{done: make(chan struct{})}

	initiator := &chanSession{counterparty: party.Name, in: b2a, out: a2b, pair: p}
	responder := &chanSession{counterparty: r.caller, in: a2b, out: b2a, pair: p}

	go h(responder)

	return initiator, nil
}

type pair struct {
	done chan struct{}
	once sync.Once
}

type chanSession struct {
	counterparty string
	in           <-chan interface{}
	out          chan<- interface{}
	pair         *pair
}

func (r *chanSession) Counterparty() string {
	return r.counterparty
}

func (r *chanSession) Send(payload interface{}) error {
	select {
	case r.out <- payload:
		return nil
	case <-r.pair.done:
		return ErrClosed
	}
}

func (r *chanSession) Receive(ctx context.Context, out interface{}) error {
	select {
	case payload, ok := <-r.in:
		if !ok {
			return ErrClosed
		}
		return Decode(payload, out)
	case <-r.pair.done:
		return ErrClosed
	case <-ctx.Done():
		return errors.Wrap(ErrTimeout, ctx.Err().Error())
	}
}

func (r *chanSession) Close() error {
	r.pair.once.Do(func() {
		close(r.pair.done)
	})

	return nil
}
