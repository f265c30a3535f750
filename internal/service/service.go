package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/akimenko/ledger-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Alerter delivers operator alerts for failures that require manual
// reconciliation, such as a lost audit record.
type Alerter interface {
	Alert(subject, body string) error
}

// Service is the ledger engine. It validates and executes transfers,
// guarantees an audit record for every attempt that resolved both accounts,
// and serializes transfers touching the same account.
type Service struct {
	accounts repository.AccountStore
	journal  repository.TransactionStore
	log      *logrus.Logger
	alerter  Alerter
	timeout  time.Duration

	// locks holds one mutex per account id, created lazily. Transfers
	// acquire both account locks in ascending id order so that opposite
	// transfers between the same pair cannot deadlock.
	locks sync.Map
}

// NewService initializes a new ledger engine. alerter may be nil; timeout
// bounds each transfer attempt and expiry is treated as a storage failure.
func NewService(accounts repository.AccountStore, journal repository.TransactionStore, log *logrus.Logger, alerter Alerter, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		accounts: accounts,
		journal:  journal,
		log:      log,
		alerter:  alerter,
		timeout:  timeout,
	}
}

// CreateAccount creates a new account with the given number, owner and
// opening balance. The account number must be unique and the balance
// non-negative with at most two decimal places.
func (s *Service) CreateAccount(ctx context.Context, accountNumber, ownerName string, balance decimal.Decimal) (*models.Account, error) {
	if accountNumber == "" {
		return nil, models.ErrInvalidAccountNumber
	}
	if balance.IsNegative() || !balance.Equal(balance.Round(2)) {
		return nil, models.ErrInvalidAmount
	}

	account := &models.Account{
		AccountNumber: accountNumber,
		OwnerName:     ownerName,
		Balance:       balance,
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created: %s (owner %s)", account.AccountNumber, account.OwnerName)
	return account, nil
}

// GetAccount retrieves an account by identifier.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number.
func (s *Service) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	return s.accounts.FindByAccountNumber(ctx, number)
}

// ListAccounts lists all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.accounts.FindAll(ctx)
}

// GetTransaction retrieves a transaction record by identifier.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return s.journal.FindByID(ctx, id)
}

// ListTransactions lists the whole transaction journal.
func (s *Service) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return s.journal.FindAll(ctx)
}

// ListTransactionsByAccount lists every transaction that debits or credits
// the given account, ordered by creation time.
func (s *Service) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	outgoing, err := s.journal.FindBySourceAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.journal.FindByTargetAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	all := append(outgoing, incoming...)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

// Transfer moves amount from the source account to the target account as a
// single atomic operation. Once both accounts have been resolved, every
// outcome — success, rejection or storage failure — leaves exactly one
// transaction record with a terminal status. Balances are never left
// half-applied: either both the debit and the credit are committed, or
// neither is.
func (s *Service) Transfer(ctx context.Context, sourceNumber, targetNumber string, amount decimal.Decimal) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// First resolution only learns the account ids for lock ordering; the
	// balances used for the decision are re-read under the locks.
	source, err := s.accounts.FindByAccountNumber(ctx, sourceNumber)
	if err != nil {
		return nil, err
	}
	target, err := s.accounts.FindByAccountNumber(ctx, targetNumber)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPair(source.ID, target.ID)
	defer unlock()

	source, err = s.accounts.FindByAccountNumber(ctx, sourceNumber)
	if err != nil {
		return nil, err
	}
	target, err = s.accounts.FindByAccountNumber(ctx, targetNumber)
	if err != nil {
		return nil, err
	}

	tx := models.NewTransaction(source.ID, target.ID, amount)

	if source.ID == target.ID {
		return s.recordFailure(tx, models.ErrSameAccount)
	}
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return s.recordFailure(tx, models.ErrInvalidAmount)
	}
	if source.Balance.LessThan(amount) {
		return s.recordFailure(tx, models.ErrInsufficientFunds)
	}

	sourceBalanceBefore := source.Balance
	source.Balance = source.Balance.Sub(amount)
	target.Balance = target.Balance.Add(amount)

	if err := s.accounts.Save(ctx, source); err != nil {
		s.log.Warnf("Transfer %s -> %s: debit write failed: %v", sourceNumber, targetNumber, err)
		if auditErr := s.persistFailed(tx); auditErr != nil {
			return nil, auditErr
		}
		return tx, err
	}
	if err := s.accounts.Save(ctx, target); err != nil {
		s.log.Warnf("Transfer %s -> %s: credit write failed, restoring source balance: %v", sourceNumber, targetNumber, err)
		s.restoreBalance(source, sourceBalanceBefore)
		if auditErr := s.persistFailed(tx); auditErr != nil {
			return nil, auditErr
		}
		return tx, err
	}

	tx.Status = models.StatusSuccess
	if err := s.journal.Save(ctx, tx); err != nil {
		return nil, s.reportAuditLoss(tx, err)
	}

	s.log.Infof("Transfer %s -> %s of %s succeeded (transaction %s)", sourceNumber, targetNumber, amount.StringFixed(2), tx.ID)
	return tx, nil
}

// recordFailure marks the transaction FAILED, persists it and returns the
// domain cause. If the audit write itself fails, the loss is escalated
// instead of the original cause.
func (s *Service) recordFailure(tx *models.Transaction, cause error) (*models.Transaction, error) {
	if err := s.persistFailed(tx); err != nil {
		return nil, err
	}
	s.log.Infof("Transfer %s -> %s of %s failed (transaction %s): %v",
		tx.SourceAccountID, tx.TargetAccountID, tx.Amount.StringFixed(2), tx.ID, cause)
	return tx, cause
}

// persistFailed writes the FAILED record on a detached context, since the
// transfer deadline may already have expired and the audit write is
// unconditional.
func (s *Service) persistFailed(tx *models.Transaction) error {
	tx.Status = models.StatusFailed
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.journal.Save(ctx, tx); err != nil {
		return s.reportAuditLoss(tx, err)
	}
	return nil
}

// reportAuditLoss handles the fatal case where the final journal write
// failed: the attempt is logged, the operator is alerted and the error is
// surfaced for manual reconciliation.
func (s *Service) reportAuditLoss(tx *models.Transaction, err error) error {
	s.log.Errorf("Audit record for transfer %s -> %s (%s, status %s) could not be persisted: %v",
		tx.SourceAccountID, tx.TargetAccountID, tx.Amount.StringFixed(2), tx.Status, err)
	if s.alerter != nil {
		body := fmt.Sprintf(
			"A transaction record could not be persisted and requires manual reconciliation.\n\n"+
				"Source account: %s\nTarget account: %s\nAmount: %s\nStatus: %s\nTime: %s\nError: %v\n",
			tx.SourceAccountID, tx.TargetAccountID, tx.Amount.StringFixed(2), tx.Status,
			tx.CreatedAt.Format(time.RFC3339), err)
		if alertErr := s.alerter.Alert("Ledger audit record lost", body); alertErr != nil {
			s.log.Errorf("Failed to send audit-loss alert: %v", alertErr)
		}
	}
	return fmt.Errorf("%w: %w", models.ErrAuditWriteFailed, err)
}

// restoreBalance writes the source account back with its pre-transfer
// balance after the credit write failed. Best effort: if the write-back also
// fails the operator is alerted, since the debit is now committed without a
// matching credit.
func (s *Service) restoreBalance(account *models.Account, balance decimal.Decimal) {
	account.Balance = balance
	// Detached context: the transfer deadline may already have expired and
	// the write-back must still be attempted.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.accounts.Save(ctx, account); err != nil {
		s.log.Errorf("Failed to restore balance of account %s after aborted transfer: %v", account.AccountNumber, err)
		if s.alerter != nil {
			body := fmt.Sprintf(
				"Account %s (%s) was debited by an aborted transfer and the balance write-back failed.\n"+
					"Expected balance: %s\nError: %v\n",
				account.AccountNumber, account.ID, balance.StringFixed(2), err)
			if alertErr := s.alerter.Alert("Ledger balance write-back failed", body); alertErr != nil {
				s.log.Errorf("Failed to send write-back alert: %v", alertErr)
			}
		}
	}
}

// lockPair locks the mutexes of both accounts in ascending id order and
// returns a function releasing them. A single lock is taken when both ids
// are equal. Transfers between disjoint pairs never contend.
func (s *Service) lockPair(a, b uuid.UUID) func() {
	first, second := a, b
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	m1 := s.lockFor(first)
	m1.Lock()
	if first == second {
		return m1.Unlock
	}
	m2 := s.lockFor(second)
	m2.Lock()
	return func() {
		m2.Unlock()
		m1.Unlock()
	}
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return m.(*sync.Mutex)
}
