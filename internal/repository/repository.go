package repository

import (
	"context"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/google/uuid"
)

// AccountStore is the persistence contract for account records. Save is an
// upsert keyed by identity: the store assigns the ID on first save. Lookups
// return models.ErrAccountNotFound for missing rows and *models.StorageError
// for transient failures.
type AccountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, number string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	FindAll(ctx context.Context) ([]*models.Account, error)
}

// TransactionStore is the persistence contract for the transaction journal.
// The journal is append-only; Save with a zero ID assigns one.
type TransactionStore interface {
	Save(ctx context.Context, tx *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindBySourceAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error)
	FindByTargetAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error)
	FindAll(ctx context.Context) ([]*models.Transaction, error)
}
