/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/ledger"
)

// ErrNotFound is returned when a schema or credential definition has not
// been published.
var ErrNotFound = errors.New("registry entry not found")

// Client resolves schema and credential-definition references against the
// ledger's registry. Entries are immutable once published, so resolved
// identifiers are cached.
type Client struct {
	ledger Query

	lock  sync.RWMutex
	cache map[string]string
}

func New(ledger Query) *Client {
	return &Client{
		ledger: ledger,
		cache:  map[string]string{},
	}
}

// ResolveSchemaID maps a schema description to its published identifier.
func (r *Client) ResolveSchemaID(details claim.SchemaDetails) (string, error) {
	return r.lookup(details.RegistryKey())
}

// ResolveCredDefID maps a (schema, owner) pair to the owner's published
// credential-definition identifier.
func (r *Client) ResolveCredDefID(schemaID, owner string) (string, error) {
	ref := claim.CredentialDefinitionRef{SchemaID: schemaID, Owner: owner}
	return r.lookup(ref.RegistryKey())
}

// CredDefExists reports whether a credential definition with the given
// identifier has been published.
func (r *Client) CredDefExists(credDefID string) (bool, error) {
	_, err := r.lookup(fmt.Sprintf("creddef-id/%s", credDefID))
	if errors.Cause(err) == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *Client) lookup(key string) (string, error) {
	r.lock.RLock()
	id, ok := r.cache[key]
	r.lock.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.ledger.QueryRegistry(key)
	if errors.Cause(err) == ledger.ErrNotFound {
		return "", errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return "", errors.Wrapf(err, "registry lookup for %s failed", key)
	}

	r.lock.Lock()
	r.cache[key] = id
	r.lock.Unlock()

	return id, nil
}
