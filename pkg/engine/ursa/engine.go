/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ursa implements the proof engine contract over libursa's CL
// signature scheme. One Engine instance models the external proof system for
// a network: credential definitions are registered by issuers, master
// secrets by subjects, and proofs are bound to the requesting nonce.
//
// Revocation is tracked in engine-local registries and enforced during
// VerifyProof; the CL accumulator math stays inside libursa.
package ursa

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/engine"
)

type credDef struct {
	def       *ursa.CredentialDef
	schema    *ursa.CredentialSchemaHandle
	nonSchema *ursa.NonCredentialSchemaHandle
	fields    []string
	revocable bool
}

type credRecord struct {
	credDefID string
	values    map[string]string
	secret    engine.SecretHandle
	revRegID  string
	credRevID string
}

type Engine struct {
	lock    sync.Mutex
	defs    map[string]*credDef
	secrets map[engine.SecretHandle]string
	creds   map[string]*credRecord
	seq     int
	regs    map[string]bool
	revoked map[string]bool
}

func New() *Engine {
	return &Engine{
		defs:    map[string]*credDef{},
		secrets: map[engine.SecretHandle]string{},
		creds:   map[string]*credRecord{},
		regs:    map[string]bool{},
		revoked: map[string]bool{},
	}
}

// RegisterCredentialDefinition creates CL issuer keys for a credential
// definition. Must precede issuance against that definition.
func (r *Engine) RegisterCredentialDefinition(credDefID string, fields []string, revocable bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.defs[credDefID]; ok {
		return errors.Errorf("credential definition %s already registered", credDefID)
	}

	schema, err := buildCredentialSchema(fields)
	if err != nil {
		return err
	}

	nonSchema, err := buildNonCredentialSchema()
	if err != nil {
		return err
	}

	def, err := ursa.NewCredentialDef(schema, nonSchema, false)
	if err != nil {
		return errors.Wrap(err, "unable to create credential definition keys")
	}

	r.defs[credDefID] = &credDef{
		def:       def,
		schema:    schema,
		nonSchema: nonSchema,
		fields:    fields,
		revocable: revocable,
	}

	return nil
}

// RegisterSecret creates a master secret for a subject.
func (r *Engine) RegisterSecret(handle engine.SecretHandle) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.secrets[handle]; ok {
		return errors.Errorf("secret %s already registered", handle)
	}

	ms, err := ursa.NewMasterSecret()
	if err != nil {
		return errors.Wrap(err, "unable to create master secret")
	}

	js, err := ms.ToJSON()
	if err != nil {
		return errors.Wrap(err, "unable to serialize master secret")
	}

	val := struct {
		MS string `json:"ms"`
	}{}
	err = jsonUnmarshal(js, &val)
	if err != nil {
		return err
	}

	r.secrets[handle] = val.MS
	return nil
}

func (r *Engine) IssueCredential(c *claim.ClaimState, secret engine.SecretHandle) (*engine.IssuedCredential, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	def, ok := r.defs[c.CredDefID]
	if !ok {
		return nil, errors.Errorf("credential definition %s is not registered", c.CredDefID)
	}

	if _, ok := r.secrets[secret]; !ok {
		return nil, errors.Errorf("secret %s is not registered", secret)
	}

	if _, ok := r.creds[c.ClaimID]; ok {
		return nil, errors.Errorf("credential material already exists for claim %s", c.ClaimID)
	}

	cred := &credRecord{
		credDefID: c.CredDefID,
		values:    c.Values,
		secret:    secret,
	}

	out := &engine.IssuedCredential{}
	if def.revocable {
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

func (r *Engine) BuildProofRequest(name string, attrs []claim.CredFieldRef, predicates []claim.CredPredicate) (*claim.ProofRequest, error) {
	nonce, err := ursa.NewNonce()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create proof request nonce")
	}

	js, err := nonce.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "unable to serialize nonce")
	}

	return &claim.ProofRequest{
		Name:       name,
		Nonce:      string(js),
		Attributes: attrs,
		Predicates: predicates,
	}, nil
}

func (r *Engine) BuildProof(req *claim.ProofRequest, secret engine.SecretHandle) (*claim.Proof, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ms, ok := r.secrets[secret]
	if !ok {
		return nil, errors.Errorf("secret %s is not registered", secret)
	}

	groups, err := r.groupByCredDef(req, secret)
	if err != nil {
		return nil, err
	}

	proofBuilder, err := ursa.NewProofBuilder()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create proof builder")
	}

	err = proofBuilder.AddCommonAttribute("master_secret")
	if err != nil {
		return nil, errors.Wrap(err, "unable to add common attribute")
	}

	revealed := map[string]string{}
	var identifiers []claim.CredentialIdentifier

	for _, g := range groups {
		def := r.defs[g.cred.credDefID]

		values, err := buildValues(ms, def.fields, g.cred.values)
		if err != nil {
			return nil, err
		}

		credSig, err := signCredential(def, values)
		if err != nil {
			return nil, err
		}

		subProof, err := buildSubProofRequest(g.attrs, g.predicates)
		if err != nil {
			return nil, err
		}

		err = proofBuilder.AddSubProofRequest(subProof, def.schema, def.nonSchema, credSig, values, def.def.PubKey)
		if err != nil {
			return nil, errors.Wrap(err, "unable to add sub proof")
		}

		for _, a := range g.attrs {
			revealed[a] = g.cred.values[a]
		}

		identifiers = append(identifiers, claim.CredentialIdentifier{
			CredDefID: g.cred.credDefID,
			RevRegID:  g.cred.revRegID,
			CredRevID: g.cred.credRevID,
		})
	}

	reqNonce, err := ursa.NonceFromJSON(req.Nonce)
	if err != nil {
		return nil, errors.Wrap(err, "invalid proof request nonce")
	}

	proof, err := proofBuilder.Finalize(reqNonce)
	if err != nil {
		return nil, errors.Wrap(err, "unable to finalize proof")
	}

	d, err := proof.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "unable to serialize proof")
	}

	return &claim.Proof{
		Data:          d,
		RevealedAttrs: revealed,
		Identifiers:   identifiers,
	}, nil
}

// VerifyProof reports cryptographic and revocation failures as (false, nil).
// Binding of the disclosed raw values relies on the CL revealed-values check
// inside libursa. Revocation status comes from engine-side records: a proof
// touching a revocable definition must name material this engine issued and
// has not revoked, so stripping identifiers cannot launder a revoked
// credential.
func (r *Engine) VerifyProof(req *claim.ProofRequest, proof *claim.Proof) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ids := map[string]claim.CredentialIdentifier{}
	for _, id := range proof.Identifiers {
		ids[id.CredDefID] = id
	}

	verifier, err := ursa.NewProofVerifier()
	if err != nil {
		return false, errors.Wrap(err, "unable to create proof verifier")
	}

	for _, g := range groupRefs(req) {
		def, ok := r.defs[g.credDefID]
		if !ok {
			return false, errors.Errorf("credential definition %s is not registered", g.credDefID)
		}

		if def.revocable {
			id, ok := ids[g.credDefID]
			if !ok || !r.issuedCredential(g.credDefID, id.RevRegID, id.CredRevID) {
				return false, nil
			}
			if r.revoked[revKey(id.RevRegID, id.CredRevID)] {
				return false, nil
			}
		}

		subProof, err := buildSubProofRequest(g.attrs, g.predicates)
		if err != nil {
			return false, err
		}

		err = verifier.AddSubProofRequest(subProof, def.schema, def.nonSchema, def.def.PubKey)
		if err != nil {
			return false, errors.Wrap(err, "unable to add sub proof request")
		}
	}

	cryptoProof, err := ursa.ProofFromJSON(proof.Data)
	if err != nil {
		return false, errors.Wrap(err, "invalid proof format")
	}
	defer func() { _ = cryptoProof.Free() }()

	reqNonce, err := ursa.NonceFromJSON(req.Nonce)
	if err != nil {
		return false, errors.Wrap(err, "invalid proof request nonce")
	}

	err = verifier.Verify(cryptoProof, reqNonce)
	if err != nil {
		return false, nil
	}

	return true, nil
}

func (r *Engine) Revoke(revRegID, credRevID string) error {
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

type proofGroup struct {
	cred       *credRecord
	attrs      []string
	predicates []claim.CredPredicate
}

func (r *Engine) groupByCredDef(req *claim.ProofRequest, secret engine.SecretHandle) ([]*proofGroup, error) {
	groups := map[string]*proofGroup{}

	group := func(ref claim.CredFieldRef) (*proofGroup, error) {
		g, ok := groups[ref.CredDefID]
		if ok {
			return g, nil
		}

		cred, err := r.findCredential(secret, ref)
		if err != nil {
			return nil, err
		}

		g = &proofGroup{cred: cred}
		groups[ref.CredDefID] = g
		return g, nil
	}

	var out []*proofGroup
	for _, attr := range req.Attributes {
		g, err := group(attr)
		if err != nil {
			return nil, err
		}
		g.attrs = append(g.attrs, attr.Field)
	}

	for _, pred := range req.Predicates {
		g, err := group(pred.Ref)
		if err != nil {
			return nil, err
		}
		g.predicates = append(g.predicates, pred)
	}

	for _, g := range groups {
		out = append(out, g)
	}

	return out, nil
}

// issuedCredential reports whether the named revocation coordinates belong
// to credential material this engine actually issued under the definition.
func (r *Engine) issuedCredential(credDefID, revRegID, credRevID string) bool {
	if revRegID == "" || !r.regs[revRegID] {
		return false
	}

	for _, cred := range r.creds {
		if cred.credDefID == credDefID && cred.revRegID == revRegID && cred.credRevID == credRevID {
			return true
		}
	}

	return false
}

func (r *Engine) findCredential(secret engine.SecretHandle, ref claim.CredFieldRef) (*credRecord, error) {
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

type refGroup struct {
	credDefID  string
	attrs      []string
	predicates []claim.CredPredicate
}

func groupRefs(req *claim.ProofRequest) []*refGroup {
	groups := map[string]*refGroup{}
	var out []*refGroup

	group := func(credDefID string) *refGroup {
		g, ok := groups[credDefID]
		if !ok {
			g = &refGroup{credDefID: credDefID}
			groups[credDefID] = g
			out = append(out, g)
		}
		return g
	}

	for _, attr := range req.Attributes {
		g := group(attr.CredDefID)
		g.attrs = append(g.attrs, attr.Field)
	}
	for _, pred := range req.Predicates {
		g := group(pred.Ref.CredDefID)
		g.predicates = append(g.predicates, pred)
	}

	return out
}

func revKey(revRegID, credRevID string) string {
	return fmt.Sprintf("%s/%s", revRegID, credRevID)
}
