package parser

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// Airtel Money notifications share one shape across kinds:
//
//	Airtel Money: TID ABC1234567. You have sent Ksh 500.00 to PETER OTIENO 254733123456 on 23/12/24 at 11:20 AM. Fee Ksh 10.00. Bal Ksh 4,490.00.
//
// Fees are read only from an explicit fee keyword and default to zero.
var (
	airtelTo        = regexp.MustCompile(`\s(?i:to)\s+(.+?)\.?\s+(?i:on)\s+\d{1,2}/`)
	airtelToLoose   = regexp.MustCompile(`\s(?i:to)\s+(.+?)(?:\.\s|\.$|$)`)
	airtelFrom      = regexp.MustCompile(`\s(?i:from)\s+(.+?)\.?\s+(?i:on)\s+\d{1,2}/`)
	airtelFromLoose = regexp.MustCompile(`\s(?i:from)\s+(.+?)(?:\.\s|\.$|$)`)
)

var airtelMatchers = []Matcher{
	{Name: "airtel_payment", Applies: keyword("paid"), Extract: airtelExtractor(models.TypePayment)},
	{Name: "airtel_send", Applies: keyword("sent"), Extract: airtelExtractor(models.TypeSendMoney)},
	{Name: "airtel_received", Applies: keyword("received"), Extract: airtelExtractor(models.TypeReceived)},
}

func airtelExtractor(txType models.TransactionType) func(string) models.ParsedTransaction {
	return func(msg string) models.ParsedTransaction {
		amounts := extractAmounts(msg)
		tx := models.ParsedTransaction{TransactionType: txType}
		if len(amounts) > 0 {
			tx.Amount = decimal.NewNullDecimal(amounts[0])
		}

		var party string
		if txType == models.TypeReceived {
			party = captureFirst(msg, 1, airtelFrom, airtelFromLoose)
		} else {
			party = captureFirst(msg, 1, airtelTo, airtelToLoose)
		}
		tx.Recipient, tx.RecipientNumber = splitNamePhone(party)

		tx.TransactionCost = decimal.NewNullDecimal(decimal.Zero)
		if txType != models.TypeReceived {
			if fee, ok := extractFee(msg); ok {
				tx.TransactionCost = decimal.NewNullDecimal(fee)
			} else if fee, ok := firstMoney(airtelFeePattern, msg); ok {
				tx.TransactionCost = decimal.NewNullDecimal(fee)
			}
		}

		bal := resolveBalance(msg, amounts)
		tx.Balance, tx.NewBalance = bal, bal

		refs := extractReferences(msg)
		tx.Reference = refs.Generic
		tx.TransactionCode = refs.primary()

		tx.Date, tx.Time = extractDateTime(msg)
		return tx
	}
}
