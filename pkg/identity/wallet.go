/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/google/tink/go/signature/subtle"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Wallet holds one party's signing key. The private key never leaves the
// wallet; counterparties verify signatures against the base58 verkey carried
// by the party's identity.
type Wallet struct {
	identity PartyIdentity
	signer   *subtle.ED25519Signer
}

func NewWallet(name, endpoint string) (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate signing key")
	}

	signer, err := subtle.NewED25519SignerFromPrivateKey(&priv)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create signer")
	}

	return &Wallet{
		identity: PartyIdentity{
			Name:     name,
			Verkey:   base58.Encode(pub),
			Endpoint: endpoint,
		},
		signer: signer,
	}, nil
}

func (r *Wallet) Identity() PartyIdentity {
	return r.identity
}

func (r *Wallet) Name() string {
	return r.identity.Name
}

func (r *Wallet) Sign(data []byte) ([]byte, error) {
	sig, err := r.signer.Sign(data)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sign")
	}

	return sig, nil
}

// Verify checks sig over data against a party's base58 verkey.
func Verify(verkey string, data, sig []byte) error {
	raw, err := base58.Decode(verkey)
	if err != nil {
		return errors.Wrap(err, "invalid verkey encoding")
	}

	pub := ed25519.PublicKey(raw)
	verifier, err := subtle.NewED25519VerifierFromPublicKey(&pub)
	if err != nil {
		return errors.Wrap(err, "unable to create verifier")
	}

	err = verifier.Verify(sig, data)
	if err != nil {
		return errors.Wrap(err, "signature verification failed")
	}

	return nil
}
