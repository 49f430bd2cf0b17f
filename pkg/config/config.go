package config

import "github.com/scoir/attestor/pkg/framework"

type Provider interface {
	Load(file string) Config
}

type Config interface {
	WithDatastore(opts ...Option) Config
	DataStore() (*framework.DatastoreConfig, error)

	WithAMQP(opts ...Option) Config
	AMQPAddress() string
	AMQPConfig() (*framework.AMQPConfig, error)

	MembershipFile() string

	GetString(s string) string
	GetInt(s string) int

	Endpoint(s string) (*framework.Endpoint, error)
}
