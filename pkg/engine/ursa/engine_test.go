package ursa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/engine"
)

func issue(t *testing.T, target *Engine) *engine.IssuedCredential {
	require.NoError(t, target.RegisterCredentialDefinition("creddef-1", []string{"name", "yearofbirth"}, true))
	require.NoError(t, target.RegisterSecret("alice"))

	issued, err := target.IssueCredential(&claim.ClaimState{
		ClaimID:   "claim-1",
		CredDefID: "creddef-1",
		Values:    map[string]string{"name": "John Smith", "yearofbirth": "1988"},
		Issuer:    "acme",
		Subject:   "alice",
	}, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, issued.RevRegID)

	return issued
}

func request(t *testing.T, target *Engine, threshold int64) *claim.ProofRequest {
	ref := claim.CredFieldRef{Field: "yearofbirth", SchemaID: "schema-1", CredDefID: "creddef-1"}
	req, err := target.BuildProofRequest("age-check",
		[]claim.CredFieldRef{{Field: "name", SchemaID: "schema-1", CredDefID: "creddef-1"}},
		[]claim.CredPredicate{{Ref: ref, Threshold: threshold}})
	require.NoError(t, err)

	return req
}

func TestEngine_ProofRoundTrip(t *testing.T) {
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
	t.Run("threshold outside int32 is refused", func(t *testing.T) {
		target := New()
		issue(t, target)

		_, err := target.BuildProof(request(t, target, math.MaxInt32+1), "alice")
		require.Error(t, err)
	})
}

func TestEngine_Revocation(t *testing.T) {
	t.Run("revoked credential no longer verifies", func(t *testing.T) {
		target := New()
		issued := issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		require.NoError(t, target.Revoke(issued.RevRegID, issued.CredRevID))

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("stripped identifiers do not bypass revocation", func(t *testing.T) {
		target := New()
		issued := issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		require.NoError(t, target.Revoke(issued.RevRegID, issued.CredRevID))

		proof.Identifiers = []claim.CredentialIdentifier{{CredDefID: "creddef-1"}}

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("fabricated coordinates do not verify", func(t *testing.T) {
		target := New()
		issued := issue(t, target)

		req := request(t, target, 1978)
		proof, err := target.BuildProof(req, "alice")
		require.NoError(t, err)

		require.NoError(t, target.Revoke(issued.RevRegID, issued.CredRevID))

		proof.Identifiers = []claim.CredentialIdentifier{{
			CredDefID: "creddef-1",
			RevRegID:  issued.RevRegID,
			CredRevID: "999",
		}}

		ok, err := target.VerifyProof(req, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
