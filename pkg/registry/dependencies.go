package registry

import "github.com/scoir/attestor/pkg/claim"

//go:generate mockery -name=Query
type Query interface {
	QueryRegistry(key string) (string, error)
}

// Reader is the resolution surface consumed by the protocol coordinators.
//go:generate mockery -name=Reader
type Reader interface {
	ResolveSchemaID(details claim.SchemaDetails) (string, error)
	ResolveCredDefID(schemaID, owner string) (string, error)
	CredDefExists(credDefID string) (bool, error)
}
