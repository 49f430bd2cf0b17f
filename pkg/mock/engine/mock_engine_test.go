package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/engine"
)

func issue(t *testing.T, target *MockEngine) *claim.ClaimState {
	c := &claim.ClaimState{
		ClaimID:   "claim-1",
		CredDefID: "creddef-1",
		Values:    map[string]string{"name": "John Smith", "yearofbirth": "1988"},
		Issuer:    "acme",
		Subject:   "alice",
	}

	issued, err := target.IssueCredential(c, engine.SecretHandle("alice"))
	require.NoError(t, err)
	c.RevRegID = issued.RevRegID
	c.CredRevID = issued.CredRevID

	return c
}

func request(t *testing.T, target *MockEngine, threshold int64) *claim.ProofRequest {
	ref := claim.CredFieldRef{Field: "yearofbirth", SchemaID: "schema-1", CredDefID: "creddef-1"}
	req, err := target.BuildProofRequest("age-check",
		[]claim.CredFieldRef{{Field: "name", SchemaID: "schema-1", CredDefID: "creddef-1"}},
		[]claim.CredPredicate{{Ref: ref, Threshold: threshold}})
	require.NoError(t, err)

	return req
}

func TestMockEngine_ProofRoundTrip(t *testing.T) {
	t.Run("valid proof verifies", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)
		require.Equal(t, "John Smith", proof.RevealedAttrs["name"])

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.True(t, ok)
	})
	t.Run("predicate below threshold fails", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 2026)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("proof is bound to the request nonce", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		other := request(t, target, 1978)
		ok, err := target.VerifyProof(other, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("tampered disclosure fails the mac", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		tampered := make([]byte, len(proof.Data))
		copy(tampered, proof.Data)
		for i := range tampered {
			if tampered[i] == '8' {
				tampered[i] = '9'
				break
			}
		}
		proof.Data = tampered

		ok, err := target.VerifyProof(req, proof)
		if err == nil {
			require.False(t, ok)
		}
	})
	t.Run("rewritten disclosure copy fails", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		proof.RevealedAttrs = map[string]string{"name": "Jane Smith"}

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("rewritten identifier copy fails", func(t *testing.T) {
		target := New()
		issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		stripped := make([]claim.CredentialIdentifier, len(proof.Identifiers))
		for i, id := range proof.Identifiers {
			id.RevRegID = ""
			id.CredRevID = ""
			stripped[i] = id
		}
		proof.Identifiers = stripped

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("wrong secret cannot build", func(t *testing.T) {
		target := New()
		issue(t, target)

		_, err := target.BuildProof(request(t, target, 1978), "mallory")
		require.Error(t, err)
	})
}

func TestMockEngine_Revocation(t *testing.T) {
	t.Run("revoked credential no longer verifies", func(t *testing.T) {
		target := New()
		c := issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		require.NoError(t, target.Revoke(c.RevRegID, c.CredRevID))

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("unknown registry", func(t *testing.T) {
		target := New()

		err := target.Revoke("revreg:bogus", "1")
		require.Error(t, err)
	})
	t.Run("double revoke", func(t *testing.T) {
		target := New()
		c := issue(t, target)

		require.NoError(t, target.Revoke(c.RevRegID, c.CredRevID))
		err := target.Revoke(c.RevRegID, c.CredRevID)
		require.Error(t, err)
	})
	t.Run("no revocation support", func(t *testing.T) {
		target := New()
		target.SupportsRevocation = false

		c := &claim.ClaimState{
			ClaimID:   "claim-1",
			CredDefID: "creddef-1",
			Values:    map[string]string{"name": "John Smith"},
		}
		issued, err := target.IssueCredential(c, "alice")
		require.NoError(t, err)
		require.Empty(t, issued.RevRegID)
		require.Empty(t, issued.CredRevID)
	})
}
