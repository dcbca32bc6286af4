package parser

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// Legacy bank alerts carry a single movement with an optional charge:
//
//	Equity Bank: Your account 0123456789 has been credited with KES 25,000.00 from EMPLOYER NAME on 23Dec24. Ref: SAL123456. Balance: KES 67,890.00
//	KCB: KES 2,500.00 withdrawn from your account at KCB ATM MOI AVENUE on 23/12/24. Charges KES 33.00. Available balance KES 10,467.00
//
// The counterparty ends at " on <date>", a sentence break, or a trailing
// account/reference clause.
var (
	bankFrom = regexp.MustCompile(`\s(?i:from)\s+(.+?)(?:\s+(?i:on)\s+\d|\s+(?i:account|ref)\b|\.\s|\.$|$)`)
	bankTo   = regexp.MustCompile(`\s(?i:to|at)\s+(.+?)(?:\s+(?i:on)\s+\d|\s+(?i:account|ref)\b|\.\s|\.$|$)`)

	// "account 0123456789", "A/C No. 992****013"
	bankAccountPattern = regexp.MustCompile(`(?i:\baccount|\ba/c)\s*(?i:no\.?|number)?\s*:?\s*(\d[\d*]{4,}\d)`)

	// "from your account" and "to your account" are not counterparties.
	ownAccountPattern = regexp.MustCompile(`^(?i:your\s+(?:account|a/c))`)
)

var legacyBankMatchers = []Matcher{
	{Name: "bank_debit", Applies: keyword("debited", "withdrawn"), Extract: bankExtractor(models.TypeDebit)},
	{Name: "bank_credit", Applies: keyword("credited", "received"), Extract: bankExtractor(models.TypeCredit)},
	{Name: "bank_transfer_legacy", Applies: keyword("transfer"), Extract: bankExtractor(models.TypeTransfer)},
}

func bankExtractor(txType models.TransactionType) func(string) models.ParsedTransaction {
	return func(msg string) models.ParsedTransaction {
		amounts := extractAmounts(msg)
		tx := models.ParsedTransaction{TransactionType: txType}
		if len(amounts) > 0 {
			tx.Amount = decimal.NewNullDecimal(amounts[0])
		}

		tx.Recipient = bankCounterparty(msg, txType)

		switch fee, ok := bankCharges(msg); {
		case ok:
			tx.TransactionCost = decimal.NewNullDecimal(fee)
		case txType == models.TypeCredit:
			tx.TransactionCost = decimal.NewNullDecimal(decimal.Zero)
		}

		bal := resolveBalance(msg, amounts)
		tx.Balance, tx.NewBalance = bal, bal

		if acct := extractMaskedAccount(msg); acct != "" {
			tx.AccountNumber = acct
		} else if m := bankAccountPattern.FindStringSubmatch(msg); m != nil {
			tx.AccountNumber = m[1]
		}

		refs := extractReferences(msg)
		tx.Reference = refs.Generic
		tx.BankReference = refs.Bank
		if tx.BankReference == "" {
			tx.BankReference = refs.Generic
		}
		tx.TransactionCode = refs.primary()

		tx.Date, tx.Time = extractDateTime(msg)
		return tx
	}
}

// bankCharges reads a fee only when the alert names it.
func bankCharges(msg string) (decimal.Decimal, bool) {
	if fee, ok := extractFee(msg); ok {
		return fee, true
	}
	return extractCharges(msg)
}

func bankCounterparty(msg string, txType models.TransactionType) string {
	patterns := []*regexp.Regexp{bankTo, bankFrom}
	if txType == models.TypeCredit {
		patterns = []*regexp.Regexp{bankFrom, bankTo}
	}
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(msg, -1) {
			name := cleanName(m[1])
			if name == "" || ownAccountPattern.MatchString(name) {
				continue
			}
			return name
		}
	}
	return ""
}
