package ursa

import (
	"encoding/json"
	"math"

	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"
	"github.com/pkg/errors"

	"github.com/scoir/attestor/pkg/claim"
)

// signCredential issues a fresh CL signature over the credential values with
// the definition's keys. Blinding follows the issuance exchange the wrapper
// expects, with the engine playing both sides.
func signCredential(def *credDef, values *ursa.CredentialValues) (*ursa.CredentialSignature, error) {
	credentialNonce, err := ursa.NewNonce()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create credential nonce")
	}

	blinded, err := ursa.BlindCredentialSecrets(def.def.PubKey, def.def.KeyCorrectnessProof, credentialNonce, values)
	if err != nil {
		return nil, errors.Wrap(err, "unable to blind credential secrets")
	}

	issuanceNonce, err := ursa.NewNonce()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create issuance nonce")
	}

	signParams := ursa.NewSignatureParams()
	signParams.ProverID = "attestor-prover"
	signParams.BlindedCredentialSecrets = blinded.Handle
	signParams.BlindedCredentialSecretsCorrectnessProof = blinded.CorrectnessProof
	signParams.CredentialNonce = credentialNonce
	signParams.CredentialIssuanceNonce = issuanceNonce
	signParams.CredentialValues = values
	signParams.CredentialPubKey = def.def.PubKey
	signParams.CredentialPrivKey = def.def.PrivKey

	credSig, credSigKP, err := signParams.SignCredential()
	if err != nil {
		return nil, errors.Wrap(err, "unable to sign credential")
	}

	err = credSig.ProcessCredentialSignature(values, credSigKP, blinded.BlindingFactor, def.def.PubKey, issuanceNonce)
	if err != nil {
		return nil, errors.Wrap(err, "unable to process credential signature")
	}

	return credSig, nil
}

func buildValues(ms string, fields []string, raw map[string]string) (*ursa.CredentialValues, error) {
	builder, err := ursa.NewValueBuilder()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create value builder")
	}

	err = builder.AddDecHidden("master_secret", ms)
	if err != nil {
		return nil, errors.Wrap(err, "unable to add master secret")
	}

	for _, f := range fields {
		_, enc := ursa.EncodeValue(raw[f])
		err = builder.AddDecKnown(AttrCommonView(f), enc)
		if err != nil {
			return nil, errors.Wrap(err, "unable to add credential value")
		}
	}

	return builder.Finalize()
}

func buildSubProofRequest(attrs []string, predicates []claim.CredPredicate) (*ursa.SubProofRequestHandle, error) {
	subProofBuilder, err := ursa.NewSubProofRequestBuilder()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create sub proof request builder")
	}

	for _, name := range attrs {
		err := subProofBuilder.AddRevealedAttr(AttrCommonView(name))
		if err != nil {
			return nil, errors.Wrap(err, "unable to add revealed attribute")
		}
	}

	for _, predicate := range predicates {
		// libursa predicates are int32; refuse rather than truncate
		if predicate.Threshold > math.MaxInt32 || predicate.Threshold < math.MinInt32 {
			return nil, errors.Errorf("predicate threshold %d is outside the supported range", predicate.Threshold)
		}

		err = subProofBuilder.AddPredicate(AttrCommonView(predicate.Ref.Field), "GE", int32(predicate.Threshold))
		if err != nil {
			return nil, errors.Wrap(err, "unable to add predicate to sub proof")
		}
	}

	return subProofBuilder.Finalize()
}

func jsonUnmarshal(d []byte, out interface{}) error {
	err := json.Unmarshal(d, out)
	return errors.Wrap(err, "unable to unmarshal")
}
