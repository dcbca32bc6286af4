package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// M-Pesa confirmations look like:
//
//	SHK1ABC123 Confirmed. Ksh500.00 paid to JAVA HOUSE - SARIT CENTRE. on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00. New M-PESA balance is Ksh15,234.50.
//	SLM3DEF789 Confirmed. Ksh1,000.00 sent to JOHN DOE 254712345678 on 23/12/24 at 3:45 PM. ...
//	SHL2XYZ456 Confirmed. You have received Ksh2,500.00 from JANE SMITH 254798765432 on 23/12/24 at 5:30 PM. ...
//	SHK5GHI012 Confirmed.on 23/12/24 at 10:00 AMWithdraw Ksh2,000.00 from 123456 - NAIROBI CBD AGENT New M-PESA balance is ...
//
// The counterparty runs up to " on DD/MM/YY"; messages without a date fall
// back to the first sentence break.
var (
	mpesaPaidTo      = regexp.MustCompile(`(?i:paid\s+to)\s+(.+?)\.?\s+(?i:on)\s+\d{1,2}/`)
	mpesaPaidToLoose = regexp.MustCompile(`(?i:paid\s+to)\s+(.+?)(?:\.\s|\.$|$)`)

	mpesaSentTo      = regexp.MustCompile(`(?i:sent\s+to)\s+(.+?)\.?\s+(?i:on)\s+\d{1,2}/`)
	mpesaSentToLoose = regexp.MustCompile(`(?i:sent\s+to)\s+(.+?)(?:\.\s|\.$|$)`)

	mpesaReceivedFrom      = regexp.MustCompile(`(?i:received)\s+` + moneyExpr + `\s+(?i:from)\s+(.+?)\.?\s+(?i:on)\s+\d{1,2}/`)
	mpesaReceivedFromLoose = regexp.MustCompile(`(?i:received)\s+` + moneyExpr + `\s+(?i:from)\s+(.+?)(?:\.\s|\.$|$)`)

	mpesaWithdrawFrom = regexp.MustCompile(`(?i:withdraw)\s+` + moneyExpr + `\s+(?i:from)\s+(.+?)(?:\s+(?i:new\s+m-?pesa\s+balance)|\.\s|\.$|$)`)

	// "for account 123456" after a paybill recipient
	forAccountPattern = regexp.MustCompile(`\s+(?i:for\s+account)\s+(\S+)$`)

	// "123456 - NAIROBI CBD AGENT"
	agentPattern = regexp.MustCompile(`^(\d+)\s*-\s*(.+)$`)
)

var mpesaMatchers = []Matcher{
	{Name: "mpesa_payment", Applies: keyword("paid to"), Extract: extractMpesaPayment},
	{Name: "mpesa_send", Applies: keyword("sent to"), Extract: extractMpesaSend},
	{Name: "mpesa_received", Applies: keyword("received"), Extract: extractMpesaReceived},
	{Name: "mpesa_withdraw", Applies: keyword("withdraw"), Extract: extractMpesaWithdraw},
}

// mpesaBase fills the fields every M-Pesa confirmation shares: the first
// amount, the balance, references and the timestamp.
func mpesaBase(msg string, txType models.TransactionType) (models.ParsedTransaction, []decimal.Decimal) {
	amounts := extractAmounts(msg)
	tx := models.ParsedTransaction{TransactionType: txType}
	if len(amounts) > 0 {
		tx.Amount = decimal.NewNullDecimal(amounts[0])
	}

	bal := resolveBalance(msg, amounts)
	tx.Balance, tx.NewBalance = bal, bal

	refs := extractReferences(msg)
	tx.MpesaReference = refs.Mpesa
	tx.Reference = refs.Generic
	tx.TransactionCode = refs.primary()

	tx.Date, tx.Time = extractDateTime(msg)
	return tx, amounts
}

func extractMpesaPayment(msg string) models.ParsedTransaction {
	tx, amounts := mpesaBase(msg, models.TypePayment)
	tx.Recipient = captureFirst(msg, 1, mpesaPaidTo, mpesaPaidToLoose)

	// Merchant payments always carry a cost line; when it is missing the
	// cost is zero.
	tx.TransactionCost = resolveFee(msg, amounts, tx.Balance)
	if !tx.TransactionCost.Valid {
		tx.TransactionCost = decimal.NewNullDecimal(decimal.Zero)
	}
	return tx
}

func extractMpesaSend(msg string) models.ParsedTransaction {
	tx, amounts := mpesaBase(msg, models.TypeSendMoney)

	party := captureFirst(msg, 1, mpesaSentTo, mpesaSentToLoose)
	if m := forAccountPattern.FindStringSubmatch(party); m != nil {
		tx.AccountNumber = cleanName(m[1])
		party = party[:len(party)-len(m[0])]
	}
	tx.Recipient, tx.RecipientNumber = splitNamePhone(party)

	tx.TransactionCost = resolveFee(msg, amounts, tx.Balance)
	return tx
}

func extractMpesaReceived(msg string) models.ParsedTransaction {
	tx, _ := mpesaBase(msg, models.TypeReceived)

	party := captureFirst(msg, 2, mpesaReceivedFrom, mpesaReceivedFromLoose)
	tx.Recipient, tx.RecipientNumber = splitNamePhone(party)

	// Incoming money is never charged to the receiver.
	tx.TransactionCost = decimal.NewNullDecimal(decimal.Zero)
	return tx
}

func extractMpesaWithdraw(msg string) models.ParsedTransaction {
	tx, amounts := mpesaBase(msg, models.TypeWithdraw)

	agent := captureFirst(msg, 2, mpesaWithdrawFrom)
	if m := agentPattern.FindStringSubmatch(agent); m != nil {
		tx.RecipientNumber = m[1]
		tx.Recipient = cleanName(m[2])
	} else {
		tx.Recipient = agent
	}

	tx.TransactionCost = resolveFee(msg, amounts, tx.Balance)
	return tx
}

// captureFirst returns group idx of the first pattern that matches msg.
func captureFirst(msg string, idx int, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(msg); m != nil && len(m) > idx {
			return cleanName(m[idx])
		}
	}
	return ""
}

// splitNamePhone separates "JOHN DOE 254712345678" into name and phone.
func splitNamePhone(party string) (name, phone string) {
	phone = extractPhone(party)
	if phone == "" {
		return cleanName(party), ""
	}
	name = strings.Replace(party, phone, "", 1)
	return cleanName(normalize(name)), phone
}
