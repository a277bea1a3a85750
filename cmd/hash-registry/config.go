package main

import (
	"crypto/ed25519"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/grpc/app"
)

const (
	memoryStoreType   = "memory"
	postgresStoreType = "postgres"
)

// config is the hash registry's section of the app config.
type config struct {
	HTTPListenAddress string        `mapstructure:"http_listen_address"`
	HTTPReadTimeout   time.Duration `mapstructure:"http_read_timeout"`
	HTTPWriteTimeout  time.Duration `mapstructure:"http_write_timeout"`

	// ProgramPublicKey and AuthorityPrivateKey are base58 encoded. Random keys
	// are generated when empty, which is only suitable for local development.
	ProgramPublicKey    string `mapstructure:"program_public_key"`
	AuthorityPrivateKey string `mapstructure:"authority_private_key"`

	// AirdropLamports is the balance the authority is topped up to on boot
	AirdropLamports uint64 `mapstructure:"airdrop_lamports"`

	Store string `mapstructure:"store"`

	PostgresUser               string `mapstructure:"postgres_user"`
	PostgresPassword           string `mapstructure:"postgres_password"`
	PostgresHost               string `mapstructure:"postgres_host"`
	PostgresPort               int    `mapstructure:"postgres_port"`
	PostgresDbName             string `mapstructure:"postgres_db_name"`
	PostgresUseAwsIam          bool   `mapstructure:"postgres_use_aws_iam"`
	PostgresMaxOpenConnections int    `mapstructure:"postgres_max_open_connections"`
	PostgresMaxIdleConnections int    `mapstructure:"postgres_max_idle_connections"`

	// SolanaRpcEndpoint switches document hash reads to a Solana cluster. It
	// accepts a full URL or one of devnet, testnet and mainnet.
	SolanaRpcEndpoint string `mapstructure:"solana_rpc_endpoint"`
	SolanaCommitment  string `mapstructure:"solana_commitment"`

	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`

	MaxmindDbPath string `mapstructure:"maxmind_db_path"`
}

var defaultConfig = config{
	HTTPListenAddress: ":8080",
	HTTPReadTimeout:   10 * time.Second,
	HTTPWriteTimeout:  60 * time.Second,

	AirdropLamports: 1_000_000_000_000,

	Store: memoryStoreType,

	PostgresPort: 5432,

	SolanaCommitment: "finalized",

	RateLimitPerSecond: 10,
}

func decodeConfig(raw app.Config) (*config, error) {
	decoded := defaultConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return nil, errors.Wrap(err, "invalid app config")
	}

	if err := decoded.validate(); err != nil {
		return nil, err
	}
	return &decoded, nil
}

func (c *config) validate() error {
	if len(c.HTTPListenAddress) == 0 {
		return errors.New("http_listen_address is required")
	}

	switch c.Store {
	case memoryStoreType:
	case postgresStoreType:
		if len(c.PostgresHost) == 0 || len(c.PostgresUser) == 0 || len(c.PostgresDbName) == 0 {
			return errors.New("postgres_host, postgres_user and postgres_db_name are required for the postgres store")
		}
		if !c.PostgresUseAwsIam && len(c.PostgresPassword) == 0 {
			return errors.New("postgres_password is required without aws iam")
		}
	default:
		return errors.Errorf("unsupported store type: %s", c.Store)
	}

	if c.RateLimitPerSecond < 0 {
		return errors.New("rate_limit_per_second cannot be negative")
	}

	return nil
}

func (c *config) programPublicKey() (ed25519.PublicKey, error) {
	if len(c.ProgramPublicKey) == 0 {
		pub, _, err := ed25519.GenerateKey(nil)
		return pub, err
	}

	decoded, err := base58.Decode(c.ProgramPublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid program_public_key")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.New("program_public_key must be 32 bytes")
	}
	return decoded, nil
}

func (c *config) authorityPrivateKey() (ed25519.PrivateKey, error) {
	if len(c.AuthorityPrivateKey) == 0 {
		_, priv, err := ed25519.GenerateKey(nil)
		return priv, err
	}

	decoded, err := base58.Decode(c.AuthorityPrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority_private_key")
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, errors.New("authority_private_key must be 64 bytes")
	}
	return decoded, nil
}
