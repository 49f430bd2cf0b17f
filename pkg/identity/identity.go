/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrUnknownParty is returned when no identity matches the requested name.
var ErrUnknownParty = errors.New("unknown party")

// PartyIdentity is the network-addressable identity of one participant.
type PartyIdentity struct {
	Name     string `json:"name" yaml:"name"`
	Verkey   string `json:"verkey" yaml:"verkey"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// Membership is the externally supplied view of network membership, including
// the designated notarizing authority.
type Membership struct {
	Notary  string          `yaml:"notary"`
	Parties []PartyIdentity `yaml:"parties"`
}

// Resolver maps logical party names to identities.
//go:generate mockery -name=Resolver
type Resolver interface {
	Resolve(name string) (*PartyIdentity, error)
	Notary() (*PartyIdentity, error)
}

// StaticResolver resolves against a fixed membership list. Lookups are
// read-only and side-effect free.
type StaticResolver struct {
	lock    sync.RWMutex
	notary  string
	parties map[string]*PartyIdentity
}

func NewStaticResolver(m *Membership) *StaticResolver {
	r := &StaticResolver{
		notary:  m.Notary,
		parties: map[string]*PartyIdentity{},
	}

	for i := range m.Parties {
		p := m.Parties[i]
		r.parties[p.Name] = &p
	}

	return r
}

func (r *StaticResolver) Resolve(name string) (*PartyIdentity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok := r.parties[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownParty, name)
	}

	return p, nil
}

func (r *StaticResolver) Notary() (*PartyIdentity, error) {
	return r.Resolve(r.notary)
}

// Register adds or replaces a party in the membership view. Used when wallets
// are generated at startup rather than loaded from file.
func (r *StaticResolver) Register(p PartyIdentity) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.parties[p.Name] = &p
}

// LoadMembership reads a membership file in yaml format.
func LoadMembership(file string) (*Membership, error) {
	d, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read membership file %s", file)
	}

	m := &Membership{}
	err = yaml.Unmarshal(d, m)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse membership file")
	}

	if m.Notary == "" {
		return nil, errors.New("membership file does not designate a notary")
	}

	return m, nil
}
