package main

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/grpc/app"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	conf, err := decodeConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, *conf)
}

func TestDecodeConfig_Overrides(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	conf, err := decodeConfig(app.Config{
		"http_listen_address":   ":9000",
		"http_read_timeout":     "5s",
		"program_public_key":    base58.Encode(pub),
		"authority_private_key": base58.Encode(priv),
		"airdrop_lamports":      "42",
		"store":                 "postgres",
		"postgres_user":         "user",
		"postgres_password":     "password",
		"postgres_host":         "localhost",
		"postgres_port":         "6543",
		"postgres_db_name":      "registry",
		"rate_limit_per_second": 2.5,
	})
	require.NoError(t, err)

	assert.Equal(t, ":9000", conf.HTTPListenAddress)
	assert.Equal(t, 5*time.Second, conf.HTTPReadTimeout)
	assert.EqualValues(t, 42, conf.AirdropLamports)
	assert.Equal(t, postgresStoreType, conf.Store)
	assert.Equal(t, 6543, conf.PostgresPort)
	assert.Equal(t, 2.5, conf.RateLimitPerSecond)

	program, err := conf.programPublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, program)

	authority, err := conf.authorityPrivateKey()
	require.NoError(t, err)
	assert.Equal(t, priv, authority)
}

func TestDecodeConfig_Validation(t *testing.T) {
	for _, raw := range []app.Config{
		{"http_listen_address": ""},
		{"store": "redis"},
		{"store": "postgres"},
		{"store": "postgres", "postgres_host": "localhost", "postgres_user": "user", "postgres_db_name": "db"},
		{"rate_limit_per_second": -1},
	} {
		_, err := decodeConfig(raw)
		assert.Error(t, err, raw)
	}

	_, err := decodeConfig(app.Config{
		"store":                "postgres",
		"postgres_host":        "localhost",
		"postgres_user":        "user",
		"postgres_db_name":     "db",
		"postgres_use_aws_iam": true,
	})
	assert.NoError(t, err)
}

func TestConfigKeys(t *testing.T) {
	conf := defaultConfig

	generatedProgram, err := conf.programPublicKey()
	require.NoError(t, err)
	assert.Len(t, generatedProgram, ed25519.PublicKeySize)

	generatedAuthority, err := conf.authorityPrivateKey()
	require.NoError(t, err)
	assert.Len(t, generatedAuthority, ed25519.PrivateKeySize)

	conf.ProgramPublicKey = "not-base58-0OIl"
	_, err = conf.programPublicKey()
	assert.Error(t, err)

	conf.ProgramPublicKey = base58.Encode([]byte{1, 2, 3})
	_, err = conf.programPublicKey()
	assert.Error(t, err)

	conf.AuthorityPrivateKey = base58.Encode(make([]byte, ed25519.PublicKeySize))
	_, err = conf.authorityPrivateKey()
	assert.Error(t, err)
}
