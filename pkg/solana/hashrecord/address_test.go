package hashrecord

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/solana"
)

func TestSeed(t *testing.T) {
	assert.Equal(t, "0_0", Seed(0, 0))
	assert.Equal(t, "1_2", Seed(1, 2))
	assert.Equal(t, "255_255", Seed(255, 255))
	assert.Equal(t, "10_1", Seed(10, 1))
}

func TestGetHashAccountAddress(t *testing.T) {
	authority, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	program, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	for _, tc := range []struct {
		hospitalId uint8
		reportId   uint8
		expected   string
	}{
		{0, 0, "A5jAfw8q6KKXa2fbbQae1ujXiv4mrL8LXHtML77Cg97J"},
		{1, 2, "82Qk71NZaNGGKuUpMBUGtnTXDrwK5hJ2KrpBQRnXzLAL"},
		{255, 255, "BBd3dU4yvH9DREzhx1mEYBo88cYMcdPYamA7B4eXtU1V"},
	} {
		actual, err := GetHashAccountAddress(&GetHashAccountAddressArgs{
			Authority:  authority,
			HospitalId: tc.hospitalId,
			ReportId:   tc.reportId,
			Program:    program,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(actual))
	}
}

func TestGetHashAccountAddress_Distinct(t *testing.T) {
	authority, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, ids := range [][2]uint8{{1, 12}, {11, 2}, {1, 2}, {12, 1}, {2, 1}} {
		address, err := GetHashAccountAddress(&GetHashAccountAddressArgs{
			Authority:  authority,
			HospitalId: ids[0],
			ReportId:   ids[1],
			Program:    program,
		})
		require.NoError(t, err)

		_, ok := seen[string(address)]
		assert.False(t, ok)
		seen[string(address)] = struct{}{}
	}

	// Same ids under a different authority
	otherAuthority, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	address, err := GetHashAccountAddress(&GetHashAccountAddressArgs{
		Authority:  otherAuthority,
		HospitalId: 1,
		ReportId:   2,
		Program:    program,
	})
	require.NoError(t, err)
	_, ok := seen[string(address)]
	assert.False(t, ok)
}

func TestGetHashAccountAddress_IllegalProgram(t *testing.T) {
	authority, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	program := make([]byte, ed25519.PublicKeySize)
	copy(program[ed25519.PublicKeySize-len("ProgramDerivedAddress"):], "ProgramDerivedAddress")

	_, err = GetHashAccountAddress(&GetHashAccountAddressArgs{
		Authority: authority,
		Program:   program,
	})
	assert.Equal(t, solana.ErrIllegalOwner, err)
	assert.Equal(t, solana.InstructionErrorIllegalOwner, toDerivationError(err))
	assert.Equal(t, solana.InstructionErrorMaxSeedLengthExceeded, toDerivationError(solana.ErrMaxSeedLengthExceeded))
	assert.Equal(t, solana.InstructionErrorInvalidSeeds, toDerivationError(solana.ErrInvalidPublicKey))
}
