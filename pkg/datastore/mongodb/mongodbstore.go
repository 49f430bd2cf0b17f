/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/ledger"
)

type Config struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// Provider represents a Mongo DB implementation of the datastore.Provider interface
type Provider struct {
	db     *mongo.Database
	stores map[string]*mongoDBStore
	sync.RWMutex
}

type mongoDBStore struct {
	claims *mongo.Collection
	proofs *mongo.Collection
	txs    *mongo.Collection
}

// NewProvider instantiates Provider
func NewProvider(config *Config) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config missing")
	}

	tM := reflect.TypeOf(bson.M{})
	reg := bson.NewRegistryBuilder().RegisterTypeMapEntry(bsontype.EmbeddedDocument, tM).Build()
	clientOpts := options.Client().SetRegistry(reg).ApplyURI(config.URL)

	mongoClient, err := mongo.NewClient(clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "error creating mongo client")
	}

	err = mongoClient.Connect(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo")
	}
	db := mongoClient.Database(config.Database)

	p := &Provider{
		db:     db,
		stores: map[string]*mongoDBStore{}}

	return p, nil
}

// OpenStore opens the vault collections for the given name space.
func (r *Provider) OpenStore(name string) (datastore.Store, error) {
	r.Lock()
	defer r.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	store := &mongoDBStore{
		claims: r.db.Collection(fmt.Sprintf("%s_%s", name, datastore.ClaimC)),
		proofs: r.db.Collection(fmt.Sprintf("%s_%s", name, datastore.ClaimProofC)),
		txs:    r.db.Collection(fmt.Sprintf("%s_%s", name, datastore.TxC)),
	}

	r.stores[name] = store

	return store, nil
}

// Close closes the provider.
func (r *Provider) Close() error {
	r.Lock()
	defer r.Unlock()

	r.stores = make(map[string]*mongoDBStore)

	return nil
}

// CloseStore closes a previously opened store
func (r *Provider) CloseStore(name string) error {
	r.Lock()
	defer r.Unlock()

	_, exists := r.stores[name]
	if !exists {
		return nil
	}

	delete(r.stores, name)

	return r.db.Client().Disconnect(context.Background())
}

func (r *mongoDBStore) InsertClaim(c *datastore.ClaimRecord) error {
	_, err := r.claims.InsertOne(context.Background(), c)
	if err != nil {
		return errors.Wrap(err, "unable to insert claim")
	}

	return nil
}

func (r *mongoDBStore) GetClaim(claimID string) (*datastore.ClaimRecord, error) {
	out := &datastore.ClaimRecord{}
	err := r.claims.FindOne(context.Background(), bson.M{"state.claim_id": claimID}).Decode(out)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrap(datastore.ErrNotFound, claimID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load claim")
	}

	return out, nil
}

func (r *mongoDBStore) SpendClaim(claimID string) error {
	res, err := r.claims.UpdateOne(context.Background(),
		bson.M{"state.claim_id": claimID},
		bson.M{"$set": bson.M{"spent": true}})
	if err != nil {
		return errors.Wrap(err, "unable to mark claim spent")
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(datastore.ErrNotFound, claimID)
	}

	return nil
}

func (r *mongoDBStore) InsertClaimProof(p *datastore.ClaimProofRecord) error {
	_, err := r.proofs.InsertOne(context.Background(), p)
	if err != nil {
		return errors.Wrap(err, "unable to insert claim proof")
	}

	return nil
}

func (r *mongoDBStore) GetClaimProof(id string) (*datastore.ClaimProofRecord, error) {
	out := &datastore.ClaimProofRecord{}
	err := r.proofs.FindOne(context.Background(), bson.M{"state.id": id}).Decode(out)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrap(datastore.ErrNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load claim proof")
	}

	return out, nil
}

func (r *mongoDBStore) InsertTransaction(tx *ledger.Transaction) error {
	_, err := r.txs.InsertOne(context.Background(), tx)
	if err != nil {
		return errors.Wrap(err, "unable to insert transaction")
	}

	return nil
}

func (r *mongoDBStore) GetTransaction(id string) (*ledger.Transaction, error) {
	out := &ledger.Transaction{}
	err := r.txs.FindOne(context.Background(), bson.M{"id": id}).Decode(out)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrap(datastore.ErrNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to load transaction")
	}

	return out, nil
}
