/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scoir/attestor/pkg/agent"
	"github.com/scoir/attestor/pkg/amqp/rabbitmq"
	"github.com/scoir/attestor/pkg/claim"
	"github.com/scoir/attestor/pkg/commit"
	"github.com/scoir/attestor/pkg/datastore"
	"github.com/scoir/attestor/pkg/datastore/mem"
	"github.com/scoir/attestor/pkg/engine"
	ursaengine "github.com/scoir/attestor/pkg/engine/ursa"
	"github.com/scoir/attestor/pkg/identity"
	"github.com/scoir/attestor/pkg/ledger"
	"github.com/scoir/attestor/pkg/ledger/memledger"
	"github.com/scoir/attestor/pkg/protocol/verification"
	"github.com/scoir/attestor/pkg/session"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Runs the issue / verify / revoke scenario on an in-process network",
	Long:  `Runs the issue / verify / revoke scenario on an in-process network`,
	Run:   runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

type demoProvider struct {
	wallet   *identity.Wallet
	resolver identity.Resolver
	ledger   ledger.Service
	engine   engine.ProofEngine
	dsp      datastore.Provider
	dialer   session.Dialer
}

func (r *demoProvider) Wallet() *identity.Wallet               { return r.wallet }
func (r *demoProvider) Resolver() identity.Resolver            { return r.resolver }
func (r *demoProvider) Ledger() ledger.Service                 { return r.ledger }
func (r *demoProvider) ProofEngine() engine.ProofEngine        { return r.engine }
func (r *demoProvider) Datastore() (datastore.Provider, error) { return r.dsp, nil }
func (r *demoProvider) Dialer() session.Dialer                 { return r.dialer }

func runDemo(_ *cobra.Command, _ []string) {
	loadConfig(false)
	ctx := context.Background()

	eng := ursaengine.New()
	hub := session.NewHub()

	resolver := identity.NewStaticResolver(&identity.Membership{Notary: "notary"})

	wallets := map[string]*identity.Wallet{}
	for _, name := range []string{"notary", "acme", "alice", "thrift"} {
		w, err := identity.NewWallet(name, "")
		if err != nil {
			log.Fatalln("unable to create wallet for", name, err)
		}
		wallets[name] = w
		resolver.Register(w.Identity())
	}

	lgr := memledger.New(wallets["notary"], resolver)

	dsp := storageProvider()

	var opts []agent.Option
	if pub := notifier(); pub != nil {
		defer pub.Close()
		opts = append(opts, agent.WithNotifier(pub))

		lst := finalityListener()
		defer lst.Close()
		obs := commit.NewObserver(lst, func(tx *ledger.Transaction) {
			log.Println("observed finalized transaction", tx.ID, string(tx.Command.Type))
		})
		go func() {
			err := obs.Listen(ctx)
			if err != nil {
				log.Println("finality observer stopped", err)
			}
		}()
	}

	agents := map[string]*agent.Agent{}
	for _, name := range []string{"acme", "alice", "thrift"} {
		a, err := agent.NewAgent(&demoProvider{
			wallet:   wallets[name],
			resolver: resolver,
			ledger:   lgr,
			engine:   eng,
			dsp:      dsp,
			dialer:   hub.DialerFor(name),
		}, opts...)
		if err != nil {
			log.Fatalln("unable to create agent for", name, err)
		}
		agents[name] = a
		lgr.RegisterVault(name, a.Store())
	}

	hub.Handle("alice", agents["alice"].ProofHandler(ctx))

	err := eng.RegisterSecret(agents["alice"].Secret())
	if err != nil {
		log.Fatalln("unable to register master secret", err)
	}

	details := claim.SchemaDetails{Name: "Person", Version: "1.0", Owner: "acme"}
	schemaID := uuid.New().String()
	credDefID := uuid.New().String()

	lgr.PublishSchema(details.RegistryKey(), schemaID)
	lgr.PublishCredDef(claim.CredentialDefinitionRef{SchemaID: schemaID, Owner: "acme"}.RegistryKey(), credDefID, schemaID)

	err = eng.RegisterCredentialDefinition(credDefID, []string{"name", "yearofbirth"}, true)
	if err != nil {
		log.Fatalln("unable to register credential definition", err)
	}

	claimID := uuid.New().String()
	_, err = agents["acme"].IssueClaim(ctx, claimID, credDefID, map[string]string{
		"name":        "John Smith",
		"yearofbirth": "1988",
	}, "alice")
	if err != nil {
		log.Fatalln("issuance failed", err)
	}
	log.Println("acme issued claim", claimID, "about alice")

	attrs := []verification.Attribute{
		{Schema: details, CredDefOwner: "acme", Field: "name", Value: "John Smith"},
	}
	before1978 := []verification.Predicate{
		{Schema: details, CredDefOwner: "acme", Field: "yearofbirth", Threshold: 1978},
	}
	after2026 := []verification.Predicate{
		{Schema: details, CredDefOwner: "acme", Field: "yearofbirth", Threshold: 2026},
	}

	log.Println("born on or after 1978:", agents["thrift"].VerifyClaim(ctx, "alice", "age-check", attrs, before1978))
	log.Println("born on or after 2026:", agents["thrift"].VerifyClaim(ctx, "alice", "age-check", attrs, after2026))

	err = agents["acme"].RevokeClaim(ctx, claimID)
	if err != nil {
		log.Fatalln("revocation failed", err)
	}
	log.Println("acme revoked claim", claimID)

	log.Println("born on or after 1978:", agents["thrift"].VerifyClaim(ctx, "alice", "age-check", attrs, before1978))
}

func storageProvider() datastore.Provider {
	if conf == nil {
		return mem.NewProvider()
	}

	dc, err := conf.WithDatastore().DataStore()
	if err != nil {
		log.Fatalln("invalid datastore config", err)
	}

	dsp, err := dc.StorageProvider()
	if err != nil {
		log.Fatalln("unable to create storage provider", err)
	}

	return dsp
}

func notifier() *rabbitmq.Publisher {
	addr, queue, ok := amqpEndpoint()
	if !ok {
		return nil
	}

	pub, err := rabbitmq.NewPublisher(addr, queue)
	if err != nil {
		log.Fatalln("unable to connect finality notifier", err)
	}

	return pub
}

func finalityListener() *rabbitmq.Listener {
	addr, queue, ok := amqpEndpoint()
	if !ok {
		return nil
	}

	lst, err := rabbitmq.NewListener(addr, queue)
	if err != nil {
		log.Fatalln("unable to connect finality listener", err)
	}

	return lst
}

func amqpEndpoint() (addr, queue string, ok bool) {
	if conf == nil || conf.GetString("amqp.host") == "" {
		return "", "", false
	}

	ac, err := conf.WithAMQP().AMQPConfig()
	if err != nil {
		log.Fatalln("invalid amqp config", err)
	}

	queue = ac.Queue
	if queue == "" {
		queue = "attestor-finality"
	}

	return ac.Endpoint(), queue, true
}
