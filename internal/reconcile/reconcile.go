// Package reconcile implements the periodic ledger audit. It looks for
// transactions stuck in PENDING beyond a grace period and for negative
// balances, both of which indicate a failure that needs operator attention.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/akimenko/ledger-service/internal/repository"
	"github.com/akimenko/ledger-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Auditor scans the stores for inconsistencies.
type Auditor struct {
	accounts repository.AccountStore
	journal  repository.TransactionStore
	log      *logrus.Logger
	alerter  service.Alerter
	grace    time.Duration
}

// NewAuditor initializes a new auditor. alerter may be nil; grace is how long
// a transaction may remain PENDING before it is reported.
func NewAuditor(accounts repository.AccountStore, journal repository.TransactionStore, log *logrus.Logger, alerter service.Alerter, grace time.Duration) *Auditor {
	if grace <= 0 {
		grace = time.Minute
	}
	return &Auditor{
		accounts: accounts,
		journal:  journal,
		log:      log,
		alerter:  alerter,
		grace:    grace,
	}
}

// Findings performs one audit pass and returns a description of every
// inconsistency found. It returns an error only when a store could not be
// read.
func (a *Auditor) Findings(ctx context.Context) ([]string, error) {
	var findings []string

	accounts, err := a.accounts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	for _, acc := range accounts {
		if acc.Balance.IsNegative() {
			findings = append(findings, fmt.Sprintf(
				"account %s (%s) has negative balance %s", acc.AccountNumber, acc.ID, acc.Balance.StringFixed(2)))
		}
	}

	txs, err := a.journal.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	cutoff := time.Now().Add(-a.grace)
	for _, tx := range txs {
		if tx.Status == models.StatusPending && tx.CreatedAt.Before(cutoff) {
			findings = append(findings, fmt.Sprintf(
				"transaction %s is still PENDING since %s", tx.ID, tx.CreatedAt.Format(time.RFC3339)))
		}
	}
	return findings, nil
}

// Run performs a single audit pass, logs every finding and alerts the
// operator when anything was found.
func (a *Auditor) Run(ctx context.Context) error {
	findings, err := a.Findings(ctx)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		a.log.Debug("Audit pass clean")
		return nil
	}

	for _, f := range findings {
		a.log.Errorf("Audit finding: %s", f)
	}
	if a.alerter != nil {
		body := fmt.Sprintf("The ledger audit found %d issue(s):\n\n%s\n", len(findings), strings.Join(findings, "\n"))
		if err := a.alerter.Alert("Ledger audit findings", body); err != nil {
			a.log.Errorf("Failed to send audit alert: %v", err)
		}
	}
	return nil
}
