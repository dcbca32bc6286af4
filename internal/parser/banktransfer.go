package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// Bank-originated transfers into mobile money (NCBA style). The bank never
// reports the M-Pesa charge, so these records ask the consumer for the fee.
//
//	Your Mpesa Till transfer of KES 8,247.00 to 65575 Naivas Kitengela BANK REF. FTX25320XAREM MPESA REF. TKGSG4268Q completed successfully.
//	Dear Customer, your MPESA transfer of KES. 1,500.00 to JANE WANJIKU (254722000111) has been processed successfully. MPESA ref number TKH1234ABC.
//	Your Mpesa Paybill payment of KES 3,500.00 to 888880 Account KPLC PREPAID 54321 BANK REF. FTX253208KPL MPESA REF. TKG1234XYZ.
//	Your account 992****013 has been debited with KES 8,247.00 on 16/11/25 at 10:41 AM. Ref: FTX25320XAREM
const nameEndExpr = `(?:\s+(?i:bank\s+ref)|\s+(?i:m-?pesa\s+ref)|\s+(?i:on)\s+\d|\s+(?i:has\s+been|was|is|completed)\b|\.\s|\.$|$)`

var (
	tillTransferPattern = regexp.MustCompile(`(?i:till\s+transfer\s+of)\s+` + moneyExpr + `\s+(?i:to)\s+(\d+)\s+(.+?)` + nameEndExpr)

	mobileTransferPattern      = regexp.MustCompile(`(?i:m-?pesa\s+transfer\s+of)\s+` + moneyExpr + `\s+(?i:to)\s+(.+?)\s*\(\s*\+?(\d{9,12})\s*\)`)
	mobileTransferPatternLoose = regexp.MustCompile(`(?i:m-?pesa\s+transfer\s+of)\s+` + moneyExpr + `\s+(?i:to)\s+(.+?)` + nameEndExpr)

	paybillTransferPattern = regexp.MustCompile(`(?i:paybill\s+(?:transfer|payment)\s+of)\s+` + moneyExpr + `\s+(?i:to)\s+(\d+)\s+(?i:account)\s*:?\s*(.+?)` + nameEndExpr)

	debitNotificationPattern = regexp.MustCompile(`(?i:has\s+been\s+debited\s+with)\s+` + moneyExpr)

	// Reworded transfers: "transfer to JANE of KES 500.00", "to till 65575 Naivas"
	looseRecipientPattern = regexp.MustCompile(`\s(?i:to)\s+(?i:(?:till|paybill)(?:\s+(?:no\.?|number))?\s+)?(.+?)(?:\s+(?i:of)\s|` + nameEndExpr + `)`)
	numberedPartyPattern  = regexp.MustCompile(`^(\d{4,7})\s+(.+)$`)

	isTill    = words("till")
	isPaybill = words("paybill")
)

var bankTransferMatchers = []Matcher{
	{Name: "bank_to_till", Applies: keyword("till transfer"), Extract: extractBankToTill},
	{Name: "bank_to_mpesa", Applies: keyword("mpesa transfer of", "m-pesa transfer of"), Extract: extractBankToMobile},
	{Name: "bank_to_paybill", Applies: keyword("paybill transfer", "paybill payment"), Extract: extractBankToPaybill},
	{Name: "bank_debit_notification", Applies: keyword("has been debited with"), Extract: extractDebitNotification},
	{Name: "bank_transfer_loose", Applies: keyword("mpesa", "m-pesa", "till", "paybill"), Extract: extractBankTransferLoose},
}

// bankTransferBase sets the fields shared by every bank-to-mobile record.
func bankTransferBase(msg string, kind models.BankTransferType) models.ParsedTransaction {
	tx := models.ParsedTransaction{
		TransactionType:   models.TypeBankTransfer,
		BankTransferType:  kind,
		RequiresManualFee: true,
	}

	refs := extractReferences(msg)
	tx.BankReference = refs.Bank
	tx.MpesaReference = refs.Mpesa
	tx.Reference = refs.Bank
	if tx.Reference == "" {
		tx.Reference = refs.Generic
	}
	tx.TransactionCode = refs.primary()

	tx.AccountNumber = extractMaskedAccount(msg)
	tx.Date, tx.Time = extractDateTime(msg)

	bal := resolveBalanceKeyword(msg)
	tx.Balance, tx.NewBalance = bal, bal
	return tx
}

// resolveBalanceKeyword skips the positional fallback: transfer
// confirmations carry no balance column.
func resolveBalanceKeyword(msg string) decimal.NullDecimal {
	if bal, ok := extractBalance(msg); ok {
		return decimal.NewNullDecimal(bal)
	}
	return decimal.NullDecimal{}
}

// amountOrFirst parses a grammar-captured amount, falling back to the first
// money literal in msg.
func amountOrFirst(captured, msg string) decimal.NullDecimal {
	if captured != "" {
		if amt, err := parseAmount(captured); err == nil {
			return decimal.NewNullDecimal(amt)
		}
	}
	if amounts := extractAmounts(msg); len(amounts) > 0 {
		return decimal.NewNullDecimal(amounts[0])
	}
	return decimal.NullDecimal{}
}

func extractBankToTill(msg string) models.ParsedTransaction {
	tx := bankTransferBase(msg, models.BankToTill)
	var captured string
	if m := tillTransferPattern.FindStringSubmatch(msg); m != nil {
		captured = m[1]
		tx.RecipientNumber = m[2]
		tx.Recipient = cleanName(m[3])
	}
	tx.Amount = amountOrFirst(captured, msg)
	return tx
}

func extractBankToMobile(msg string) models.ParsedTransaction {
	tx := bankTransferBase(msg, models.BankToMpesa)
	var captured string
	if m := mobileTransferPattern.FindStringSubmatch(msg); m != nil {
		captured = m[1]
		tx.Recipient = cleanName(m[2])
		tx.RecipientNumber = m[3]
	} else if m := mobileTransferPatternLoose.FindStringSubmatch(msg); m != nil {
		captured = m[1]
		tx.Recipient, tx.RecipientNumber = splitNamePhone(m[2])
	}
	if tx.RecipientNumber == "" {
		tx.RecipientNumber = extractPhone(msg)
	}
	tx.Amount = amountOrFirst(captured, msg)

	// The bank side issues no reference on this format; the M-Pesa code is
	// the one the recipient sees.
	if tx.MpesaReference != "" {
		tx.TransactionCode = tx.MpesaReference
	}
	return tx
}

func extractBankToPaybill(msg string) models.ParsedTransaction {
	tx := bankTransferBase(msg, models.BankToPaybill)
	var captured string
	if m := paybillTransferPattern.FindStringSubmatch(msg); m != nil {
		captured = m[1]
		tx.RecipientNumber = m[2]
		tx.Recipient = cleanName(m[3])
	}
	tx.Amount = amountOrFirst(captured, msg)
	return tx
}

func extractDebitNotification(msg string) models.ParsedTransaction {
	tx := models.ParsedTransaction{TransactionType: models.TypeBankDebit}

	var captured string
	if m := debitNotificationPattern.FindStringSubmatch(msg); m != nil {
		captured = m[1]
	}
	tx.Amount = amountOrFirst(captured, msg)

	// Most alerts omit the charge; the fee stays unknown unless named.
	if fee, ok := bankCharges(msg); ok {
		tx.TransactionCost = decimal.NewNullDecimal(fee)
	}

	tx.AccountNumber = extractMaskedAccount(msg)
	if tx.AccountNumber == "" {
		if m := bankAccountPattern.FindStringSubmatch(msg); m != nil {
			tx.AccountNumber = m[1]
		}
	}

	refs := extractReferences(msg)
	tx.BankReference = refs.Bank
	if tx.BankReference == "" {
		tx.BankReference = refs.Generic
	}
	tx.Reference = tx.BankReference
	tx.TransactionCode = refs.primary()

	tx.Date, tx.Time = extractDateTime(msg)

	bal := resolveBalanceKeyword(msg)
	tx.Balance, tx.NewBalance = bal, bal
	return tx
}

// extractBankTransferLoose is the last resort for confirmations whose
// wording none of the grammars above recognise. It keeps whatever amount
// and recipient it can find.
func extractBankTransferLoose(msg string) models.ParsedTransaction {
	lower := strings.ToLower(msg)
	kind := models.BankToMpesa
	switch {
	case isTill(lower):
		kind = models.BankToTill
	case isPaybill(lower):
		kind = models.BankToPaybill
	}

	tx := bankTransferBase(msg, kind)
	tx.Amount = amountOrFirst("", msg)

	var party string
	if m := looseRecipientPattern.FindStringSubmatch(msg); m != nil {
		party = cleanName(m[1])
	}
	if m := numberedPartyPattern.FindStringSubmatch(party); m != nil && kind != models.BankToMpesa {
		tx.RecipientNumber = m[1]
		tx.Recipient = cleanName(m[2])
	} else {
		tx.Recipient, tx.RecipientNumber = splitNamePhone(party)
	}
	if tx.RecipientNumber == "" && kind == models.BankToMpesa {
		tx.RecipientNumber = extractPhone(msg)
	}
	return tx
}
