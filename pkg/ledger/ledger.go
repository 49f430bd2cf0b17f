/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import "github.com/pkg/errors"

var (
	// ErrStateConflict is returned by the notary when an input state has
	// already been consumed. Callers must re-fetch current state before
	// retrying, never resubmit blindly.
	ErrStateConflict = errors.New("state conflict")

	// ErrNotFound is returned by registry queries for unpublished keys.
	ErrNotFound = errors.New("not found")
)

// Service is the contract consumed from the external ledger. Submit performs
// the server-side structural check of an unsigned transaction, Notarize
// serializes state consumption and stamps finality, QueryRegistry reads the
// immutable schema/creddef registry, and PersistFinalized records a
// finalized transaction in one party's local view.
//go:generate mockery -name=Service
type Service interface {
	Submit(tx *Transaction) error
	Notarize(tx *Transaction) (*Transaction, error)
	QueryRegistry(key string) (string, error)
	PersistFinalized(party string, tx *Transaction) error
}
