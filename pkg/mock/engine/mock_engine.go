/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package engine provides a deterministic, in-memory proof engine honoring
// the engine contract: proofs verify iff the underlying credential material
// satisfies every requested predicate, truthfully discloses every requested
// attribute, and none of the credentials used have been revoked.
package engine

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/engine"
)

type credential struct {
	claimID   string
	credDefID string
	values    map[string]string
	revRegID  string
	credRevID string
	secret    engine.SecretHandle
}

type proofBody struct {
	Nonce    string                       `json:"nonce"`
	Attested map[string]int64             `json:"attested"`
	Used     []claim.CredentialIdentifier `json:"used"`
	Revealed map[string]string            `json:"revealed"`
	MAC      string                       `json:"mac"`
}

// MockEngine is safe for concurrent sessions.
type MockEngine struct {
	// SupportsRevocation controls whether newly issued credentials carry
	// revocation coordinates.
	SupportsRevocation bool

	lock    sync.Mutex
	key     []byte
	seq     int
	creds   map[string]*credential
	regs    map[string]bool
	revoked map[string]bool
}

func New() *MockEngine {
	key := make([]byte, 32)
	_, _ = rand.Read(key)

	return &MockEngine{
		SupportsRevocation: true,
		key:                key,
		creds:              map[string]*credential{},
		regs:               map[string]bool{},
		revoked:            map[string]bool{},
	}
}

func (r *MockEngine) IssueCredential(c *claim.ClaimState, secret engine.SecretHandle) (*engine.IssuedCredential, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.creds[c.ClaimID]; ok {
		return nil, errors.Errorf("credential material already exists for claim %s", c.ClaimID)
	}

	cred := &credential{
		claimID:   c.ClaimID,
		credDefID: c.CredDefID,
		values:    c.Values,
		secret:    secret,
	}

	out := &engine.IssuedCredential{}
	if r.SupportsRevocation {
		r.seq++
		cred.revRegID = fmt.Sprintf("revreg:%s", c.CredDefID)
		cred.credRevID = strconv.Itoa(r.seq)
		r.regs[cred.revRegID] = true
		out.RevRegID = cred.revRegID
		out.CredRevID = cred.credRevID
	}

	r.creds[c.ClaimID] = cred

	return out, nil
}

func (r *MockEngine) BuildProofRequest(name string, attrs []claim.CredFieldRef, predicates []claim.CredPredicate) (*claim.ProofRequest, error) {
	return &claim.ProofRequest{
		Name:       name,
		Nonce:      uuid.New().String(),
		Attributes: attrs,
		Predicates: predicates,
	}, nil
}

func (r *MockEngine) BuildProof(req *claim.ProofRequest, secret engine.SecretHandle) (*claim.Proof, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	body := proofBody{
		Nonce:    req.Nonce,
		Attested: map[string]int64{},
		Revealed: map[string]string{},
	}
	used := map[string]claim.CredentialIdentifier{}

	for _, attr := range req.Attributes {
		cred, err := r.findCredential(secret, attr)
		if err != nil {
			return nil, err
		}

		body.Revealed[attr.Field] = cred.values[attr.Field]
		used[cred.claimID] = identifier(cred)
	}

	for _, pred := range req.Predicates {
		cred, err := r.findCredential(secret, pred.Ref)
		if err != nil {
			return nil, err
		}

		v, err := strconv.ParseInt(cred.values[pred.Ref.Field], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s is not an integer", pred.Ref.Field)
		}

		body.Attested[pred.Ref.Field] = v
		used[cred.claimID] = identifier(cred)
	}

	for _, id := range used {
		body.Used = append(body.Used, id)
	}

	body.MAC = r.mac(&body)

	d, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal proof")
	}

	return &claim.Proof{
		Data:          d,
		RevealedAttrs: body.Revealed,
		Identifiers:   body.Used,
	}, nil
}

// VerifyProof reports semantic failures as (false, nil); an error means the
// proof was malformed.
func (r *MockEngine) VerifyProof(req *claim.ProofRequest, proof *claim.Proof) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	body := proofBody{}
	err := json.Unmarshal(proof.Data, &body)
	if err != nil {
		return false, errors.Wrap(err, "malformed proof")
	}

	expected := body.MAC
	body.MAC = ""
	if !hmac.Equal([]byte(expected), []byte(r.mac(&body))) {
		return false, nil
	}

	if body.Nonce != req.Nonce {
		return false, nil
	}

	// the wire-level copies exist for counterparties that never open Data;
	// a proof whose copies diverge from the MAC-protected body is forged
	if !sameRevealed(proof.RevealedAttrs, body.Revealed) || !sameIdentifiers(proof.Identifiers, body.Used) {
		return false, nil
	}

	for _, attr := range req.Attributes {
		if _, ok := body.Revealed[attr.Field]; !ok {
			return false, nil
		}
	}

	for _, pred := range req.Predicates {
		v, ok := body.Attested[pred.Ref.Field]
		if !ok || v < pred.Threshold {
			return false, nil
		}
	}

	// revocation accumulator check
	for _, id := range body.Used {
		if id.RevRegID == "" {
			continue
		}
		if r.revoked[revKey(id.RevRegID, id.CredRevID)] {
			return false, nil
		}
	}

	return true, nil
}

func (r *MockEngine) Revoke(revRegID, credRevID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.regs[revRegID] {
		return errors.Wrapf(engine.ErrRevocation, "unknown revocation registry %s", revRegID)
	}

	key := revKey(revRegID, credRevID)
	if r.revoked[key] {
		return errors.Wrapf(engine.ErrAlreadyRevoked, "credential %s in %s", credRevID, revRegID)
	}

	r.revoked[key] = true
	return nil
}

func (r *MockEngine) findCredential(secret engine.SecretHandle, ref claim.CredFieldRef) (*credential, error) {
	for _, cred := range r.creds {
		if cred.secret != secret || cred.credDefID != ref.CredDefID {
			continue
		}
		if _, ok := cred.values[ref.Field]; ok {
			return cred, nil
		}
	}

	return nil, errors.Errorf("no credential material for field %s under %s", ref.Field, ref.CredDefID)
}

func (r *MockEngine) mac(body *proofBody) string {
	mac := hmac.New(sha256.New, r.key)
	d, _ := json.Marshal(struct {
		Nonce    string                       `json:"nonce"`
		Attested map[string]int64             `json:"attested"`
		Used     []claim.CredentialIdentifier `json:"used"`
		Revealed map[string]string            `json:"revealed"`
	}{body.Nonce, body.Attested, body.Used, body.Revealed})
	mac.Write(d)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func sameRevealed(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range b {
		got, ok := a[k]
		if !ok || got != v {
			return false
		}
	}

	return true
}

func sameIdentifiers(a, b []claim.CredentialIdentifier) bool {
	if len(a) != len(b) {
		return false
	}

	seen := map[claim.CredentialIdentifier]int{}
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}

	return true
}

func identifier(cred *credential) claim.CredentialIdentifier {
	return claim.CredentialIdentifier{
		CredDefID: cred.credDefID,
		RevRegID:  cred.revRegID,
		CredRevID: cred.credRevID,
	}
}

func revKey(revRegID, credRevID string) string {
	return fmt.Sprintf("%s/%s", revRegID, credRevID)
}
