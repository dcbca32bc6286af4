package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money literals: a currency marker (Ksh, Kshs, KES, optionally followed by
// ".") then a number with optional thousands separators and 0 or 2 decimals.
const (
	currencyExpr = `(?:[Kk][Ss][Hh][Ss]?|KES|[Kk]es)\.?\s?`
	numberExpr   = `(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)`
	moneyExpr    = currencyExpr + numberExpr
)

var (
	// Ksh500.00, KES 25,000.00, KES. 1,500.00
	moneyPattern = regexp.MustCompile(`\b` + moneyExpr)

	// Transaction cost, Ksh0.00 / Transaction fee: KES 30
	feePattern = regexp.MustCompile(`(?i:transaction\s+(?:cost|fee|charge)s?)\s*[,:]?\s*` + moneyExpr)

	// Legacy bank alerts: "Charges KES 30.00", "charge of KES 55"
	chargesPattern = regexp.MustCompile(`(?i:\bcharges?)\s*[,:]?\s*(?i:of\s+)?` + moneyExpr)

	// Airtel: "Fee Ksh 10", "Fee: KES 0"
	airtelFeePattern = regexp.MustCompile(`(?i:\bfee)\s*[,:]?\s*` + moneyExpr)

	// New M-PESA balance is Ksh15,234.50 / Balance: KES 67,890.00 / Bal Ksh 1,000
	balancePattern = regexp.MustCompile(`(?i:\bbal(?:ance)?)\.?\s*(?i:is\s*|:\s*)?` + moneyExpr)

	// BANK REF. FTX25320XAREM
	bankRefPattern = regexp.MustCompile(`(?i:\bbank\s+ref(?:erence)?)\.?\s*(?i:number\s+|no\.?\s*)?:?\s*([A-Z0-9]{6,})`)

	// MPESA REF. TKGSG4268Q / MPESA ref number TKH1234ABC
	mpesaRefPattern = regexp.MustCompile(`(?i:\bm-?pesa\s+ref(?:erence)?)\.?\s*(?i:number\s+|no\.?\s*)?:?\s*([A-Z0-9]{6,})`)

	// Ref: SAL123456 / Ref FTX25320XAREM. The keyword needs a separator so
	// words such as REFUNDED are not split into a reference.
	genericRefPattern = regexp.MustCompile(`(?i:\bref(?:erence)?)(?:\s*[:.]\s*|\s+)([A-Z0-9]{4,})`)

	// Bare mobile-money transaction code, e.g. SHK1ABC123
	codePattern = regexp.MustCompile(`\b[A-Z0-9]{10}\b`)

	phonePattern         = regexp.MustCompile(`\b254\d{9}\b`)
	maskedAccountPattern = regexp.MustCompile(`\b\d{3}\*+\d{3}\b`)

	// DD/MM/YY or DD/MM/YYYY, optionally "at HH:MM[ AM/PM]"
	dateTimePattern = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))(?:\s+at\s+(\d{1,2}:\d{2}(?:\s?[AaPp][Mm])?))?`)

	// 23Dec24, used by some bank alerts
	compactDatePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\d{2}(?:\d{2})?)\b`)
)

// normalize collapses every whitespace run to a single space.
func normalize(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}

// parseAmount converts a captured number like "15,234.50" to a decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return decimal.NewFromString(s)
}

// extractAmounts returns every money literal in msg, left to right.
func extractAmounts(msg string) []decimal.Decimal {
	var amounts []decimal.Decimal
	for _, m := range moneyPattern.FindAllStringSubmatch(msg, -1) {
		amt, err := parseAmount(m[1])
		if err != nil {
			continue
		}
		amounts = append(amounts, amt)
	}
	return amounts
}

// firstMoney returns the value captured by a keyword-anchored money pattern.
func firstMoney(pattern *regexp.Regexp, msg string) (decimal.Decimal, bool) {
	m := pattern.FindStringSubmatch(msg)
	if m == nil {
		return decimal.Decimal{}, false
	}
	amt, err := parseAmount(m[1])
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amt, true
}

// extractFee returns the value introduced by "Transaction cost/fee/charge".
func extractFee(msg string) (decimal.Decimal, bool) {
	return firstMoney(feePattern, msg)
}

func extractCharges(msg string) (decimal.Decimal, bool) {
	return firstMoney(chargesPattern, msg)
}

// extractBalance returns the keyword-anchored balance ("balance is KES X").
func extractBalance(msg string) (decimal.Decimal, bool) {
	return firstMoney(balancePattern, msg)
}

// resolveBalance prefers the keyword match; with three or more amounts and
// no keyword the last amount is taken.
func resolveBalance(msg string, amounts []decimal.Decimal) decimal.NullDecimal {
	if bal, ok := extractBalance(msg); ok {
		return decimal.NewNullDecimal(bal)
	}
	if len(amounts) >= 3 {
		return decimal.NewNullDecimal(amounts[len(amounts)-1])
	}
	return decimal.NullDecimal{}
}

// resolveFee applies the fee disambiguation: an explicit fee keyword always
// wins; otherwise the second amount is the fee unless it equals the balance.
func resolveFee(msg string, amounts []decimal.Decimal, balance decimal.NullDecimal) decimal.NullDecimal {
	if fee, ok := extractFee(msg); ok {
		return decimal.NewNullDecimal(fee)
	}
	if len(amounts) < 2 {
		return decimal.NullDecimal{}
	}
	second := amounts[1]
	if balance.Valid && second.Equal(balance.Decimal) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(second)
}

// references holds every reference code found in a message.
type references struct {
	Bank    string
	Mpesa   string
	Generic string
	Code    string // bare 10-character token
}

// primary returns the most decision-relevant code. Named references beat
// the bare token.
func (r references) primary() string {
	for _, v := range []string{r.Mpesa, r.Generic, r.Bank, r.Code} {
		if v != "" {
			return v
		}
	}
	return ""
}

func extractReferences(msg string) references {
	var refs references
	rest := msg
	if m := bankRefPattern.FindStringSubmatch(msg); m != nil {
		refs.Bank = m[1]
		rest = bankRefPattern.ReplaceAllString(rest, " ")
	}
	if m := mpesaRefPattern.FindStringSubmatch(msg); m != nil {
		refs.Mpesa = m[1]
		rest = mpesaRefPattern.ReplaceAllString(rest, " ")
	}
	if m := genericRefPattern.FindStringSubmatch(rest); m != nil {
		refs.Generic = m[1]
	}
	refs.Code = extractCode(msg)
	return refs
}

// extractCode returns the first bare 10-character uppercase token mixing
// letters and digits. Pure digit runs are account numbers, not codes.
func extractCode(msg string) string {
	for _, tok := range codePattern.FindAllString(msg, -1) {
		if hasLetterAndDigit(tok) {
			return tok
		}
	}
	return ""
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func extractPhone(msg string) string {
	return phonePattern.FindString(msg)
}

func extractMaskedAccount(msg string) string {
	return maskedAccountPattern.FindString(msg)
}

// extractDateTime returns the raw date and time strings, either of which may
// be empty.
func extractDateTime(msg string) (date, clock string) {
	if m := dateTimePattern.FindStringSubmatch(msg); m != nil {
		return m[1], strings.ToUpper(m[2])
	}
	if m := compactDatePattern.FindStringSubmatch(msg); m != nil {
		return m[1], ""
	}
	return "", ""
}

// cleanName trims whitespace and trailing punctuation from a captured name.
func cleanName(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".,;:-"))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
