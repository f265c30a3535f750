package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/google/uuid"
)

// MemoryAccountStore is a mutex-guarded in-memory AccountStore. It hands out
// copies so callers can never mutate stored state directly. Used by the test
// suites and for running the service without a database.
type MemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
	byNumber map[string]uuid.UUID
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[uuid.UUID]models.Account),
		byNumber: make(map[string]uuid.UUID),
	}
}

// FindByID retrieves a copy of the account with the given identifier.
func (s *MemoryAccountStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("find account by id", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

// FindByAccountNumber retrieves a copy of the account with the given number.
func (s *MemoryAccountStore) FindByAccountNumber(ctx context.Context, number string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("find account by number", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byNumber[number]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	a := s.accounts[id]
	return &a, nil
}

// Save upserts an account, assigning an ID on first save.
func (s *MemoryAccountStore) Save(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("save account", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if account.ID == uuid.Nil {
		if _, taken := s.byNumber[account.AccountNumber]; taken {
			return models.ErrDuplicateAccountNumber
		}
		account.ID = uuid.New()
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	s.accounts[account.ID] = *account
	s.byNumber[account.AccountNumber] = account.ID
	return nil
}

// FindAll lists copies of every account, ordered by account number.
func (s *MemoryAccountStore) FindAll(ctx context.Context) ([]*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("list accounts", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

// MemoryTransactionStore is a mutex-guarded in-memory TransactionStore. The
// journal is an append-only slice in commit order.
type MemoryTransactionStore struct {
	mu      sync.Mutex
	journal []models.Transaction
	byID    map[uuid.UUID]int
}

// NewMemoryTransactionStore creates an empty in-memory transaction store.
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{byID: make(map[uuid.UUID]int)}
}

// Save appends a transaction record, assigning an ID if missing.
func (s *MemoryTransactionStore) Save(ctx context.Context, tx *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("save transaction", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	s.byID[tx.ID] = len(s.journal)
	s.journal = append(s.journal, *tx)
	return nil
}

// FindByID retrieves a copy of the transaction with the given identifier.
func (s *MemoryTransactionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("find transaction", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	t := s.journal[idx]
	return &t, nil
}

// FindBySourceAccountID lists transactions debiting the given account.
func (s *MemoryTransactionStore) FindBySourceAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	return s.filter(ctx, func(t *models.Transaction) bool { return t.SourceAccountID == accountID })
}

// FindByTargetAccountID lists transactions crediting the given account.
func (s *MemoryTransactionStore) FindByTargetAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	return s.filter(ctx, func(t *models.Transaction) bool { return t.TargetAccountID == accountID })
}

// FindAll lists the whole journal in commit order.
func (s *MemoryTransactionStore) FindAll(ctx context.Context) ([]*models.Transaction, error) {
	return s.filter(ctx, func(*models.Transaction) bool { return true })
}

func (s *MemoryTransactionStore) filter(ctx context.Context, keep func(*models.Transaction) bool) ([]*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("list transactions", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for i := range s.journal {
		if keep(&s.journal[i]) {
			cp := s.journal[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}
