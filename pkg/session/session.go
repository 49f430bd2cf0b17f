/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package session is the messaging layer between parties. A coordinator
// suspends only at session round-trips; a timed-out round-trip fails the
// whole coordinator invocation, which is safe to restart because no ledger
// mutation happens before full commitment.
package session

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/identity"
)

var (
	ErrTimeout    = errors.New("session timed out")
	ErrClosed     = errors.New("session closed")
	ErrUnexpected = errors.New("unexpected payload type")
)

// Session is one duplex conversation with a counterparty.
//go:generate mockery -name=Session
type Session interface {
	// Counterparty is the party on the other end.
	Counterparty() string

	// Send delivers a payload to the counterparty.
	Send(payload interface{}) error

	// Receive waits for the next payload and stores it in out, which must
	// be a pointer to the expected type. A payload of any other type fails
	// with ErrUnexpected.
	Receive(ctx context.Context, out interface{}) error

	Close() error
}

// Dialer opens sessions to resolved parties.
//go:generate mockery -name=Dialer
type Dialer interface {
	Open(ctx context.Context, party *identity.PartyIdentity) (Session, error)
}

// Decode stores payload into out, enforcing the expected type. Shared by
// transport implementations.
func Decode(payload, out interface{}) error {
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Ptr || ov.IsNil() {
		return errors.New("receive target must be a non-nil pointer")
	}

	pv := reflect.ValueOf(payload)
	if !pv.Type().AssignableTo(ov.Elem().Type()) {
		return errors.Wrapf(ErrUnexpected, "got %T", payload)
	}

	ov.Elem().Set(pv)
	return nil
}
