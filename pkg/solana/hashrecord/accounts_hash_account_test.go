package hashrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAccount(t *testing.T) {
	var empty HashAccount
	require.NoError(t, empty.Unmarshal(make([]byte, HashAccountSize)))
	assert.True(t, empty.IsEmpty())

	hash := testHash("report")
	account := HashAccount{Hash: hash}
	assert.False(t, account.IsEmpty())
	assert.Equal(t, string(hash), account.String())

	marshalled := account.Marshal()
	require.Len(t, marshalled, HashAccountSize)

	var unmarshalled HashAccount
	require.NoError(t, unmarshalled.Unmarshal(append(marshalled, 1, 2, 3)))
	assert.Equal(t, hash, unmarshalled.Hash)

	assert.Equal(t, ErrInvalidHashAccountSize, unmarshalled.Unmarshal(marshalled[:HashAccountSize-1]))
}
