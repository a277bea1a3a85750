package registry

import (
	"time"

	"github.com/code-payments/hash-registry/pkg/config"
	"github.com/code-payments/hash-registry/pkg/config/env"
	"github.com/code-payments/hash-registry/pkg/config/memory"
	"github.com/code-payments/hash-registry/pkg/config/wrapper"
)

const (
	envConfigPrefix = "HASH_REGISTRY_SERVICE_"

	AccountLamportsConfigEnvName = envConfigPrefix + "ACCOUNT_LAMPORTS"
	defaultAccountLamports       = 2_000_000_000 // 2 SOL

	DisableAddDocumentHashConfigEnvName = envConfigPrefix + "DISABLE_ADD_DOCUMENT_HASH"
	defaultDisableAddDocumentHash       = false

	AddDocumentHashTimeoutConfigEnvName = envConfigPrefix + "ADD_DOCUMENT_HASH_TIMEOUT"
	defaultAddDocumentHashTimeout       = 30 * time.Second
)

type conf struct {
	accountLamports        config.Uint64
	disableAddDocumentHash config.Bool
	addDocumentHashTimeout config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			accountLamports:        env.NewUint64Config(AccountLamportsConfigEnvName, defaultAccountLamports),
			disableAddDocumentHash: env.NewBoolConfig(DisableAddDocumentHashConfigEnvName, defaultDisableAddDocumentHash),
			addDocumentHashTimeout: env.NewDurationConfig(AddDocumentHashTimeoutConfigEnvName, defaultAddDocumentHashTimeout),
		}
	}
}

type testOverrides struct {
	accountLamports        uint64
	disableAddDocumentHash bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			accountLamports:        wrapper.NewUint64Config(memory.NewConfig(overrides.accountLamports), defaultAccountLamports),
			disableAddDocumentHash: wrapper.NewBoolConfig(memory.NewConfig(overrides.disableAddDocumentHash), defaultDisableAddDocumentHash),
			addDocumentHashTimeout: wrapper.NewDurationConfig(memory.NewConfig(defaultAddDocumentHashTimeout), defaultAddDocumentHashTimeout),
		}
	}
}
