package reconcile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/akimenko/ledger-service/internal/reconcile"
	"github.com/akimenko/ledger-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type recordingAlerter struct {
	mu       sync.Mutex
	subjects []string
}

func (a *recordingAlerter) Alert(subject, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subjects = append(a.subjects, subject)
	return nil
}

func TestAuditCleanLedger(t *testing.T) {
	accounts := repository.NewMemoryAccountStore()
	journal := repository.NewMemoryTransactionStore()
	require.NoError(t, accounts.Save(context.Background(), &models.Account{
		AccountNumber: "ACC1",
		Balance:       decimal.RequireFromString("100.00"),
	}))
	tx := models.NewTransaction(uuid.New(), uuid.New(), decimal.RequireFromString("10.00"))
	tx.Status = models.StatusSuccess
	require.NoError(t, journal.Save(context.Background(), tx))

	auditor := reconcile.NewAuditor(accounts, journal, testLogger(), nil, time.Minute)
	findings, err := auditor.Findings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAuditFindsNegativeBalance(t *testing.T) {
	accounts := repository.NewMemoryAccountStore()
	journal := repository.NewMemoryTransactionStore()
	require.NoError(t, accounts.Save(context.Background(), &models.Account{
		AccountNumber: "ACC1",
		Balance:       decimal.RequireFromString("-3.50"),
	}))

	auditor := reconcile.NewAuditor(accounts, journal, testLogger(), nil, time.Minute)
	findings, err := auditor.Findings(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "negative balance")
	assert.Contains(t, findings[0], "ACC1")
}

func TestAuditFindsStuckPending(t *testing.T) {
	accounts := repository.NewMemoryAccountStore()
	journal := repository.NewMemoryTransactionStore()

	stale := models.NewTransaction(uuid.New(), uuid.New(), decimal.RequireFromString("10.00"))
	stale.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, journal.Save(context.Background(), stale))

	// A fresh PENDING transaction is still within the grace period.
	fresh := models.NewTransaction(uuid.New(), uuid.New(), decimal.RequireFromString("5.00"))
	require.NoError(t, journal.Save(context.Background(), fresh))

	auditor := reconcile.NewAuditor(accounts, journal, testLogger(), nil, time.Minute)
	findings, err := auditor.Findings(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], stale.ID.String())
}

func TestAuditRunAlertsOperator(t *testing.T) {
	accounts := repository.NewMemoryAccountStore()
	journal := repository.NewMemoryTransactionStore()
	require.NoError(t, accounts.Save(context.Background(), &models.Account{
		AccountNumber: "ACC1",
		Balance:       decimal.RequireFromString("-1.00"),
	}))

	alerter := &recordingAlerter{}
	auditor := reconcile.NewAuditor(accounts, journal, testLogger(), alerter, time.Minute)
	require.NoError(t, auditor.Run(context.Background()))

	alerter.mu.Lock()
	defer alerter.mu.Unlock()
	require.Len(t, alerter.subjects, 1)
	assert.Equal(t, "Ledger audit findings", alerter.subjects[0])
}
