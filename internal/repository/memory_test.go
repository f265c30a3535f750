package repository_test

import (
	"context"
	"testing"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/akimenko/ledger-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccountStoreSaveAssignsID(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	a := &models.Account{AccountNumber: "ACC1", OwnerName: "Alice", Balance: decimal.RequireFromString("100.00")}

	require.NoError(t, store.Save(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := store.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACC1", got.AccountNumber)
	assert.True(t, got.Balance.Equal(a.Balance))
}

func TestMemoryAccountStoreFindByNumber(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	a := &models.Account{AccountNumber: "ACC1", Balance: decimal.Zero}
	require.NoError(t, store.Save(context.Background(), a))

	got, err := store.FindByAccountNumber(context.Background(), "ACC1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = store.FindByAccountNumber(context.Background(), "MISSING")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = store.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestMemoryAccountStoreUpsert(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	a := &models.Account{AccountNumber: "ACC1", Balance: decimal.RequireFromString("10.00")}
	require.NoError(t, store.Save(context.Background(), a))
	id := a.ID

	a.Balance = decimal.RequireFromString("25.50")
	require.NoError(t, store.Save(context.Background(), a))
	assert.Equal(t, id, a.ID, "upsert must keep the identity")

	got, err := store.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("25.50")))
}

func TestMemoryAccountStoreDuplicateNumber(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	require.NoError(t, store.Save(context.Background(), &models.Account{AccountNumber: "ACC1", Balance: decimal.Zero}))
	err := store.Save(context.Background(), &models.Account{AccountNumber: "ACC1", Balance: decimal.Zero})
	assert.ErrorIs(t, err, models.ErrDuplicateAccountNumber)
}

func TestMemoryAccountStoreCopiesOut(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	a := &models.Account{AccountNumber: "ACC1", Balance: decimal.RequireFromString("10.00")}
	require.NoError(t, store.Save(context.Background(), a))

	got, err := store.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	got.Balance = decimal.RequireFromString("999.00")

	fresh, err := store.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(decimal.RequireFromString("10.00")), "mutating a returned copy must not affect the store")
}

func TestMemoryAccountStoreFindAllSorted(t *testing.T) {
	store := repository.NewMemoryAccountStore()
	for _, n := range []string{"B2", "A1", "C3"} {
		require.NoError(t, store.Save(context.Background(), &models.Account{AccountNumber: n, Balance: decimal.Zero}))
	}
	all, err := store.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A1", all[0].AccountNumber)
	assert.Equal(t, "C3", all[2].AccountNumber)
}

func TestMemoryTransactionStoreJournal(t *testing.T) {
	store := repository.NewMemoryTransactionStore()
	src, dst, other := uuid.New(), uuid.New(), uuid.New()

	t1 := models.NewTransaction(src, dst, decimal.RequireFromString("10.00"))
	t1.Status = models.StatusSuccess
	require.NoError(t, store.Save(context.Background(), t1))
	assert.NotEqual(t, uuid.Nil, t1.ID)

	t2 := models.NewTransaction(dst, other, decimal.RequireFromString("5.00"))
	t2.Status = models.StatusFailed
	require.NoError(t, store.Save(context.Background(), t2))

	got, err := store.FindByID(context.Background(), t1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, got.Status)

	_, err = store.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)

	bySource, err := store.FindBySourceAccountID(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, t1.ID, bySource[0].ID)

	byTarget, err := store.FindByTargetAccountID(context.Background(), dst)
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	assert.Equal(t, t1.ID, byTarget[0].ID)

	all, err := store.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, t1.ID, all[0].ID, "journal must stay in commit order")
}

func TestMemoryStoresHonorContext(t *testing.T) {
	accounts := repository.NewMemoryAccountStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := accounts.FindAll(ctx)
	require.Error(t, err)
	assert.True(t, models.IsStorageError(err))

	err = accounts.Save(ctx, &models.Account{AccountNumber: "ACC1", Balance: decimal.Zero})
	require.Error(t, err)
	assert.True(t, models.IsStorageError(err))
}
