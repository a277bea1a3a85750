package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoint(t *testing.T) {
	assert.Equal(t, string(EnvironmentDev), ResolveEndpoint("devnet"))
	assert.Equal(t, string(EnvironmentTest), ResolveEndpoint("TestNet"))
	assert.Equal(t, string(EnvironmentProd), ResolveEndpoint("mainnet"))
	assert.Equal(t, string(EnvironmentProd), ResolveEndpoint("mainnet-beta"))
	assert.Equal(t, "http://localhost:8899", ResolveEndpoint("http://localhost:8899"))
}
