package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresAccountStore provides account persistence backed by PostgreSQL.
type PostgresAccountStore struct {
	db *sql.DB
}

// NewPostgresAccountStore initializes a new account store.
func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

// FindByID retrieves an account by identifier.
func (s *PostgresAccountStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT id, account_number, owner_name, balance, created_at, updated_at
		FROM ledger.accounts
		WHERE id = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, id), "find account by id")
}

// FindByAccountNumber retrieves an account by its unique account number.
func (s *PostgresAccountStore) FindByAccountNumber(ctx context.Context, number string) (*models.Account, error) {
	query := `
		SELECT id, account_number, owner_name, balance, created_at, updated_at
		FROM ledger.accounts
		WHERE account_number = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, number), "find account by number")
}

// Save upserts an account. A zero ID marks a new account; the store assigns
// the identifier before the insert.
func (s *PostgresAccountStore) Save(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
		query := `
			INSERT INTO ledger.accounts (id, account_number, owner_name, balance, created_at, updated_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING created_at, updated_at`
		err := s.db.QueryRowContext(ctx, query, account.ID, account.AccountNumber, account.OwnerName, account.Balance).
			Scan(&account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			account.ID = uuid.Nil
			if isUniqueViolation(err) {
				return models.ErrDuplicateAccountNumber
			}
			return models.NewStorageError("insert account", err)
		}
		return nil
	}

	query := `
		UPDATE ledger.accounts
		SET owner_name = $2, balance = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, account.ID, account.OwnerName, account.Balance).
		Scan(&account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrAccountNotFound
	}
	if err != nil {
		return models.NewStorageError("update account", err)
	}
	return nil
}

// FindAll lists every account.
func (s *PostgresAccountStore) FindAll(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT id, account_number, owner_name, balance, created_at, updated_at
		FROM ledger.accounts
		ORDER BY account_number`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, models.NewStorageError("list accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a := &models.Account{}
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.OwnerName, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, models.NewStorageError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list accounts", err)
	}
	return accounts, nil
}

func (s *PostgresAccountStore) scanAccount(row *sql.Row, op string) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.AccountNumber, &a.OwnerName, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, models.NewStorageError(op, err)
	}
	return a, nil
}

// PostgresTransactionStore provides journal persistence backed by PostgreSQL.
type PostgresTransactionStore struct {
	db *sql.DB
}

// NewPostgresTransactionStore initializes a new transaction store.
func NewPostgresTransactionStore(db *sql.DB) *PostgresTransactionStore {
	return &PostgresTransactionStore{db: db}
}

// Save appends a transaction record. The journal is append-only: records are
// only ever inserted, and the status column carries the terminal value the
// engine assigned before the save.
func (s *PostgresTransactionStore) Save(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	query := `
		INSERT INTO ledger.transactions (id, source_account_id, target_account_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query, tx.ID, tx.SourceAccountID, tx.TargetAccountID, tx.Amount, tx.Status, tx.CreatedAt)
	if err != nil {
		return models.NewStorageError("insert transaction", err)
	}
	return nil
}

// FindByID retrieves a transaction by identifier.
func (s *PostgresTransactionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT id, source_account_id, target_account_id, amount, status, created_at
		FROM ledger.transactions
		WHERE id = $1`
	t := &models.Transaction{}
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.SourceAccountID, &t.TargetAccountID, &t.Amount, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("find transaction", err)
	}
	return t, nil
}

// FindBySourceAccountID lists transactions debiting the given account.
func (s *PostgresTransactionStore) FindBySourceAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	return s.findByColumn(ctx, "source_account_id", accountID)
}

// FindByTargetAccountID lists transactions crediting the given account.
func (s *PostgresTransactionStore) FindByTargetAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	return s.findByColumn(ctx, "target_account_id", accountID)
}

// FindAll lists the whole journal in commit order.
func (s *PostgresTransactionStore) FindAll(ctx context.Context) ([]*models.Transaction, error) {
	query := `
		SELECT id, source_account_id, target_account_id, amount, status, created_at
		FROM ledger.transactions
		ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, models.NewStorageError("list transactions", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PostgresTransactionStore) findByColumn(ctx context.Context, column string, accountID uuid.UUID) ([]*models.Transaction, error) {
	query := `
		SELECT id, source_account_id, target_account_id, amount, status, created_at
		FROM ledger.transactions
		WHERE ` + column + ` = $1
		ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, models.NewStorageError("list transactions by account", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		if err := rows.Scan(&t.ID, &t.SourceAccountID, &t.TargetAccountID, &t.Amount, &t.Status, &t.CreatedAt); err != nil {
			return nil, models.NewStorageError("scan transaction", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list transactions", err)
	}
	return txs, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
