/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/ledger"
)

const (
	ClaimC      = "Claim"
	ClaimProofC = "ClaimProof"
	TxC         = "Transaction"
)

// ErrNotFound is returned when no live record matches the requested id.
var ErrNotFound = errors.New("record not found")

// Provider storage provider interface
type Provider interface {
	// OpenStore opens a store with given name space and returns the handle
	OpenStore(name string) (Store, error)

	// CloseStore closes store of given name space
	CloseStore(name string) error

	// Close closes all stores created under this store provider
	Close() error
}

// Store is one party's local view of the ledger. Records are only ever
// written by finality propagation; claims are marked spent, never deleted.
//go:generate mockery -name=Store
type Store interface {
	InsertClaim(c *ClaimRecord) error
	GetClaim(claimID string) (*ClaimRecord, error)
	SpendClaim(claimID string) error

	InsertClaimProof(p *ClaimProofRecord) error
	GetClaimProof(id string) (*ClaimProofRecord, error)

	InsertTransaction(tx *ledger.Transaction) error
	GetTransaction(id string) (*ledger.Transaction, error)
}

// ClaimRecord wraps a ClaimState with its vault bookkeeping.
type ClaimRecord struct {
	State *claim.ClaimState `bson:"state" json:"state"`
	TxID  string            `bson:"tx_id" json:"tx_id"`
	Spent bool              `bson:"spent" json:"spent"`
}

// ClaimProofRecord wraps a ClaimProofState with its vault bookkeeping.
type ClaimProofRecord struct {
	State *claim.ClaimProofState `bson:"state" json:"state"`
	TxID  string                 `bson:"tx_id" json:"tx_id"`
}
