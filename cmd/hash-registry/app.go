package main

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/code-payments/hash-registry/pkg/config/env"
	pgutil "github.com/code-payments/hash-registry/pkg/database/postgres"
	"github.com/code-payments/hash-registry/pkg/grpc/app"
	"github.com/code-payments/hash-registry/pkg/ledger"
	"github.com/code-payments/hash-registry/pkg/ledger/account"
	memory_account_store "github.com/code-payments/hash-registry/pkg/ledger/account/memory"
	postgres_account_store "github.com/code-payments/hash-registry/pkg/ledger/account/postgres"
	"github.com/code-payments/hash-registry/pkg/metrics"
	"github.com/code-payments/hash-registry/pkg/rate"
	"github.com/code-payments/hash-registry/pkg/registry"
	"github.com/code-payments/hash-registry/pkg/registry/web"
	"github.com/code-payments/hash-registry/pkg/solana"
	"github.com/code-payments/hash-registry/pkg/solana/hashrecord"
)

const httpShutdownTimeout = 10 * time.Second

type hashRegistryApp struct {
	log *logrus.Entry

	db         *sql.DB
	geoDb      *maxminddb.Reader
	httpServer *http.Server

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Init implements app.App.Init
func (a *hashRegistryApp) Init(appConfig app.Config, metricsProvider *newrelic.Application) error {
	a.log = logrus.StandardLogger().WithField("type", "hash-registry/app")
	a.shutdownCh = make(chan struct{})

	ctx := metrics.NewContext(context.Background(), metricsProvider)

	conf, err := decodeConfig(appConfig)
	if err != nil {
		return err
	}

	program, err := conf.programPublicKey()
	if err != nil {
		return err
	}
	authority, err := conf.authorityPrivateKey()
	if err != nil {
		return err
	}
	authorityPublicKey := authority.Public().(ed25519.PublicKey)

	if len(conf.ProgramPublicKey) == 0 || len(conf.AuthorityPrivateKey) == 0 {
		a.log.Warn("using generated program or authority keys, records won't survive a restart")
	}
	a.log.WithFields(logrus.Fields{
		"program":   base58.Encode(program),
		"authority": base58.Encode(authorityPublicKey),
		"store":     conf.Store,
	}).Info("initializing hash registry")

	store, err := a.newAccountStore(conf)
	if err != nil {
		return err
	}

	runtime := ledger.New(store)
	if err := runtime.RegisterProgram(program, hashrecord.NewProcessor().Process); err != nil {
		return errors.Wrap(err, "error registering hash record program")
	}

	if err := topUpAuthority(ctx, runtime, authorityPublicKey, conf.AirdropLamports); err != nil {
		return err
	}

	reader, err := a.newAccountReader(ctx, conf, runtime)
	if err != nil {
		return err
	}

	service := registry.New(runtime, reader, authority, program, registry.WithEnvConfigs())

	var limiter rate.Limiter = &rate.NoLimiter{}
	if conf.RateLimitPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(conf.RateLimitPerSecond))
	}

	if len(conf.MaxmindDbPath) > 0 {
		a.geoDb, err = maxminddb.Open(conf.MaxmindDbPath)
		if err != nil {
			return errors.Wrap(err, "error opening maxmind db")
		}
	}

	mux := http.NewServeMux()
	for path, handler := range web.NewServer(service, limiter, a.geoDb).GetHandlers() {
		mux.HandleFunc(metrics.WrapHTTPHandler(metricsProvider, path, handler))
	}

	a.httpServer = &http.Server{
		Addr:         conf.HTTPListenAddress,
		Handler:      mux,
		ReadTimeout:  conf.HTTPReadTimeout,
		WriteTimeout: conf.HTTPWriteTimeout,
	}

	go func() {
		a.log.WithField("address", conf.HTTPListenAddress).Info("http server listening")

		err := a.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			a.log.WithError(err).Error("http server stopped")
		}
		a.shutdown()
	}()

	return nil
}

func (a *hashRegistryApp) newAccountStore(conf *config) (account.Store, error) {
	switch conf.Store {
	case postgresStoreType:
		pgConfig := &pgutil.Config{
			User:               conf.PostgresUser,
			Password:           conf.PostgresPassword,
			Host:               conf.PostgresHost,
			Port:               conf.PostgresPort,
			DbName:             conf.PostgresDbName,
			UseAwsIam:          conf.PostgresUseAwsIam,
			MaxOpenConnections: conf.PostgresMaxOpenConnections,
			MaxIdleConnections: conf.PostgresMaxIdleConnections,
		}

		var awsConfig *aws.Config
		if pgConfig.UseAwsIam {
			loaded, err := external.LoadDefaultAWSConfig()
			if err != nil {
				return nil, errors.Wrap(err, "error loading aws config")
			}
			awsConfig = &loaded
		}

		var err error
		a.db, err = pgutil.Open(pgConfig, awsConfig)
		if err != nil {
			return nil, errors.Wrap(err, "error opening postgres")
		}

		return postgres_account_store.New(a.db), nil
	default:
		return memory_account_store.New(), nil
	}
}

// newAccountReader returns the reader backing document hash lookups. Reads go
// through the local ledger unless an RPC endpoint is configured, in which case
// the process verifies records anchored on that cluster and must not accept
// writes.
func (a *hashRegistryApp) newAccountReader(ctx context.Context, conf *config, runtime *ledger.Runtime) (registry.AccountReader, error) {
	if len(conf.SolanaRpcEndpoint) == 0 {
		return runtime, nil
	}

	if !env.NewBoolConfig(registry.DisableAddDocumentHashConfigEnvName, false).Get(ctx) {
		return nil, errors.Errorf("%s must be set when reading through rpc", registry.DisableAddDocumentHashConfigEnvName)
	}

	client := solana.New(solana.ResolveEndpoint(conf.SolanaRpcEndpoint))
	commitment := solana.CommitmentFromString(conf.SolanaCommitment)

	slot, err := client.GetSlot(commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error reaching solana rpc endpoint")
	}
	a.log.WithFields(logrus.Fields{
		"endpoint":   conf.SolanaRpcEndpoint,
		"commitment": commitment,
		"slot":       slot,
	}).Info("reading document hashes through rpc")

	return registry.NewRPCAccountReader(client, commitment), nil
}

// topUpAuthority airdrops enough lamports for the authority to reach target.
func topUpAuthority(ctx context.Context, runtime *ledger.Runtime, authority ed25519.PublicKey, target uint64) error {
	var balance uint64
	info, err := runtime.GetAccountInfo(ctx, authority)
	switch err {
	case nil:
		balance = info.Lamports
	case solana.ErrNoAccountInfo:
	default:
		return errors.Wrap(err, "error getting authority balance")
	}

	if balance >= target {
		return nil
	}

	if err := runtime.Airdrop(ctx, authority, target-balance); err != nil {
		return errors.Wrap(err, "error funding authority")
	}
	return nil
}

// RegisterWithGRPC implements app.App.RegisterWithGRPC
func (a *hashRegistryApp) RegisterWithGRPC(server *grpc.Server) {
}

// ShutdownChan implements app.App.ShutdownChan
func (a *hashRegistryApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop
func (a *hashRegistryApp) Stop() {
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()

		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("failed to gracefully stop http server")
		}
	}

	if a.geoDb != nil {
		a.geoDb.Close()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.shutdown()
}

func (a *hashRegistryApp) shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}
