// Package export renders the transaction journal as an XML statement for
// offline auditing.
package export

import (
	"time"

	"github.com/akimenko/ledger-service/internal/models"
	"github.com/beevik/etree"
)

// Statement builds an XML document containing every given transaction in
// order. The document is self-contained: amounts are formatted with two
// decimal places and timestamps as RFC 3339.
func Statement(txs []*models.Transaction) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("statement")
	root.CreateAttr("generated_at", time.Now().UTC().Format(time.RFC3339))

	list := root.CreateElement("transactions")
	for _, tx := range txs {
		e := list.CreateElement("transaction")
		e.CreateAttr("id", tx.ID.String())
		e.CreateAttr("status", tx.Status)
		e.CreateElement("source_account_id").SetText(tx.SourceAccountID.String())
		e.CreateElement("target_account_id").SetText(tx.TargetAccountID.String())
		e.CreateElement("amount").SetText(tx.Amount.StringFixed(2))
		e.CreateElement("date").SetText(tx.CreatedAt.UTC().Format(time.RFC3339))
	}

	doc.Indent(2)
	return doc
}
