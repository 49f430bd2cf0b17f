package ursa

import (
	"strings"

	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"
	"github.com/pkg/errors"
)

func buildNonCredentialSchema() (*ursa.NonCredentialSchemaHandle, error) {
	nonSchemaBuilder, err := ursa.NewNonCredentialSchemaBuilder()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create non cred schema builder")
	}

	err = nonSchemaBuilder.AddAttr("master_secret")
	if err != nil {
		return nil, errors.Wrap(err, "unable to add master secret")
	}

	return nonSchemaBuilder.Finalize()
}

func buildCredentialSchema(fields []string) (*ursa.CredentialSchemaHandle, error) {
	schemaBuilder, err := ursa.NewCredentialSchemaBuilder()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create schema builder")
	}

	for _, f := range fields {
		err := schemaBuilder.AddAttr(AttrCommonView(f))
		if err != nil {
			return nil, errors.Wrap(err, "unable to add schema attribute")
		}
	}

	return schemaBuilder.Finalize()
}

func AttrCommonView(attr string) string {
	return strings.ToLower(strings.Replace(attr, " ", "", -1))
}
