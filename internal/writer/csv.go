package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// Header is the CSV column order.
var Header = []string{"Date", "Time", "Provider", "Type", "Amount", "Fee", "Recipient", "Number", "Code", "Balance"}

// CSVWriter writes parsed transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
	// IncludeFailed also writes rows for messages that did not parse, with
	// the raw message in the Recipient column.
	IncludeFailed bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.ParsedTransaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, txns)
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, txns []models.ParsedTransaction) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, txn := range txns {
		if !txn.Success && !w.IncludeFailed {
			continue
		}
		if err := writer.Write(row(txn)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func row(txn models.ParsedTransaction) []string {
	if !txn.Success {
		return []string{"", "", string(txn.Provider), "unparsed", "", "", txn.RawMessage, "", "", ""}
	}
	txType := string(txn.TransactionType)
	if txn.BankTransferType != "" {
		txType = string(txn.BankTransferType)
	}
	return []string{
		txn.Date,
		txn.Time,
		string(txn.Provider),
		txType,
		formatAmount(txn.Amount),
		formatAmount(txn.TransactionCost),
		txn.Recipient,
		txn.RecipientNumber,
		txn.TransactionCode,
		formatAmount(txn.NewBalance),
	}
}

// formatAmount renders a present amount with two decimals. Absent amounts
// are empty, so a missing fee stays distinguishable from a zero fee.
func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.StringFixed(2)
}
