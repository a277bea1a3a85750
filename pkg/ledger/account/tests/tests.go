package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/hash-registry/pkg/ledger/account"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRoundTrip,
		testUpdate,
		testUpdateIsAtomic,
		testGetAllByOwner,
		testReturnedRecordsAreCopies,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s account.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()
		time.Sleep(time.Millisecond)

		_, err := s.Get(ctx, "address")
		assert.Equal(t, account.ErrAccountNotFound, err)

		record := &account.Record{
			Address:  "address",
			Owner:    "owner",
			Lamports: 1336320,
			Data:     make([]byte, 64),
		}
		cloned := record.Clone()

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))
		assert.True(t, record.LastUpdatedAt.After(start))

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.Equal(t, record.Id, actual.Id)
		assertEquivalentRecords(t, &cloned, actual)

		assert.Equal(t, account.ErrAccountExists, s.Put(ctx, &account.Record{
			Address: "address",
			Owner:   "other",
		}))

		actual, err = s.Get(ctx, "address")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		assert.Error(t, s.Put(ctx, &account.Record{Owner: "owner"}))
		assert.Error(t, s.Put(ctx, &account.Record{Address: "other"}))
	})
}

func testUpdate(t *testing.T, s account.Store) {
	t.Run("testUpdate", func(t *testing.T) {
		ctx := context.Background()

		record := &account.Record{
			Address:  "address",
			Owner:    "owner",
			Lamports: 100,
			Data:     make([]byte, 4),
		}
		require.NoError(t, s.Put(ctx, record))

		updateTime := time.Now()
		time.Sleep(time.Millisecond)

		record.Owner = "program"
		record.Lamports = 50
		record.Data = []byte{1, 2, 3, 4}
		cloned := record.Clone()
		require.NoError(t, s.Update(ctx, record))
		assert.True(t, record.LastUpdatedAt.After(updateTime))

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.True(t, actual.CreatedAt.Before(updateTime))
		assert.True(t, actual.LastUpdatedAt.After(updateTime))

		assert.Equal(t, account.ErrAccountNotFound, s.Update(ctx, &account.Record{
			Address: "missing",
			Owner:   "owner",
		}))

		require.NoError(t, s.Update(ctx))
	})
}

func testUpdateIsAtomic(t *testing.T, s account.Store) {
	t.Run("testUpdateIsAtomic", func(t *testing.T) {
		ctx := context.Background()

		first := &account.Record{
			Address:  "first",
			Owner:    "owner",
			Lamports: 100,
		}
		second := &account.Record{
			Address:  "second",
			Owner:    "owner",
			Lamports: 200,
		}
		require.NoError(t, s.Put(ctx, first))
		require.NoError(t, s.Put(ctx, second))

		first.Lamports = 0
		second.Lamports = 300
		missing := &account.Record{
			Address:  "missing",
			Owner:    "owner",
			Lamports: 1,
		}
		assert.Equal(t, account.ErrAccountNotFound, s.Update(ctx, first, missing, second))

		actual, err := s.Get(ctx, "first")
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Lamports)

		actual, err = s.Get(ctx, "second")
		require.NoError(t, err)
		assert.EqualValues(t, 200, actual.Lamports)

		require.NoError(t, s.Update(ctx, first, second))

		actual, err = s.Get(ctx, "first")
		require.NoError(t, err)
		assert.EqualValues(t, 0, actual.Lamports)

		actual, err = s.Get(ctx, "second")
		require.NoError(t, err)
		assert.EqualValues(t, 300, actual.Lamports)
	})
}

func testGetAllByOwner(t *testing.T, s account.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByOwner(ctx, "program")
		assert.Equal(t, account.ErrAccountNotFound, err)

		var expected []*account.Record
		for i := 0; i < 5; i++ {
			owner := "program"
			if i%2 == 1 {
				owner = "other"
			}

			record := &account.Record{
				Address: fmt.Sprintf("address%d", i),
				Owner:   owner,
				Data:    []byte{byte(i)},
			}
			require.NoError(t, s.Put(ctx, record))

			if owner == "program" {
				cloned := record.Clone()
				expected = append(expected, &cloned)
			}
		}

		actual, err := s.GetAllByOwner(ctx, "program")
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}
	})
}

func testReturnedRecordsAreCopies(t *testing.T, s account.Store) {
	t.Run("testReturnedRecordsAreCopies", func(t *testing.T) {
		ctx := context.Background()

		record := &account.Record{
			Address: "address",
			Owner:   "owner",
			Data:    []byte{1, 2, 3},
		}
		require.NoError(t, s.Put(ctx, record))
		record.Data[0] = 9

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, actual.Data)

		actual.Data[1] = 9

		actual, err = s.Get(ctx, "address")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, actual.Data)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *account.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, len(obj1.Data), len(obj2.Data))
	if len(obj1.Data) > 0 {
		assert.Equal(t, obj1.Data, obj2.Data)
	}
	assert.Equal(t, obj1.Executable, obj2.Executable)
}
