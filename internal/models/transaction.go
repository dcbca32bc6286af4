package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Provider is the coarse source of a message.
type Provider string

const (
	ProviderMpesa   Provider = "M-Pesa"
	ProviderAirtel  Provider = "Airtel Money"
	ProviderBank    Provider = "Bank"
	ProviderUnknown Provider = "Unknown"
)

// TransactionType is the fine-grained kind of a parsed message.
type TransactionType string

const (
	TypePayment      TransactionType = "payment"
	TypeSendMoney    TransactionType = "send_money"
	TypeReceived     TransactionType = "received"
	TypeWithdraw     TransactionType = "withdraw"
	TypeDebit        TransactionType = "debit"
	TypeCredit       TransactionType = "credit"
	TypeTransfer     TransactionType = "transfer"
	TypeBankTransfer TransactionType = "bank_transfer"
	TypeBankDebit    TransactionType = "bank_debit"
)

// MarshalJSON renders an unset type as null.
func (t TransactionType) MarshalJSON() ([]byte, error) {
	return nullableString(string(t))
}

// BankTransferType is set only on bank_transfer records.
type BankTransferType string

const (
	BankToTill    BankTransferType = "bank_to_till"
	BankToMpesa   BankTransferType = "bank_to_mpesa"
	BankToPaybill BankTransferType = "bank_to_paybill"
)

// MarshalJSON renders an unset transfer type as null.
func (t BankTransferType) MarshalJSON() ([]byte, error) {
	return nullableString(string(t))
}

func nullableString(s string) ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

// ParsedTransaction is the result of one parse attempt. Optional strings are
// empty when absent and left out of JSON; the two type fields and the amounts
// render as null instead.
type ParsedTransaction struct {
	Success          bool             `json:"success"`
	Provider         Provider         `json:"provider"`
	TransactionType  TransactionType  `json:"transactionType"`
	BankTransferType BankTransferType `json:"bankTransferType"`

	Amount            decimal.NullDecimal `json:"amount"`
	TransactionCost   decimal.NullDecimal `json:"transactionCost"`
	RequiresManualFee bool                `json:"requiresManualFee"`

	Recipient       string `json:"recipient,omitempty"`
	RecipientNumber string `json:"recipientNumber,omitempty"`
	AccountNumber   string `json:"accountNumber,omitempty"`

	Reference       string `json:"reference,omitempty"`
	BankReference   string `json:"bankReference,omitempty"`
	MpesaReference  string `json:"mpesaReference,omitempty"`
	TransactionCode string `json:"transactionCode,omitempty"`

	Balance    decimal.NullDecimal `json:"balance"`
	NewBalance decimal.NullDecimal `json:"newBalance"`

	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`

	RawMessage string `json:"rawMessage"`
	Error      string `json:"error,omitempty"`
	Matcher    string `json:"matcher,omitempty"` // debug: which matcher produced the record
}

// IsDebitNotification reports whether the record is a bank debit alert.
func (t ParsedTransaction) IsDebitNotification() bool {
	return t.Success && t.TransactionType == TypeBankDebit
}

// IsTransferConfirmation reports whether the record confirms a bank-originated transfer.
func (t ParsedTransaction) IsTransferConfirmation() bool {
	return t.Success && t.BankTransferType != ""
}

// Failed returns the no-match record for raw. Only the raw message and the
// diagnostic error survive.
func Failed(raw, errMsg string) ParsedTransaction {
	return ParsedTransaction{
		Success:    false,
		Provider:   ProviderUnknown,
		RawMessage: raw,
		Error:      errMsg,
	}
}
