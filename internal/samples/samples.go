// Package samples holds canonical example messages for every supported
// format. The UI loads them as "try an example" inputs and the parser tests
// use them as their seed corpus.
package samples

import "strings"

// Sample is one named example message.
type Sample struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Format      string `json:"format"`
	Message     string `json:"message"`
	Combined    bool   `json:"combined,omitempty"` // Message holds a debit notification plus a confirmation
	Description string `json:"description,omitempty"`
}

const (
	FormatMpesa        = "mpesa"
	FormatAirtel       = "airtel"
	FormatBank         = "bank"
	FormatBankTransfer = "bank_transfer"
	FormatUnknown      = "unknown"
)

// Names of the catalog entries.
const (
	MpesaPayment         = "mpesa_payment"
	MpesaSend            = "mpesa_send"
	MpesaReceived        = "mpesa_received"
	MpesaWithdraw        = "mpesa_withdraw"
	MpesaPaybill         = "mpesa_paybill"
	AirtelSend           = "airtel_send"
	AirtelReceived       = "airtel_received"
	AirtelPayment        = "airtel_payment"
	BankCredit           = "bank_credit"
	BankDebit            = "bank_debit"
	BankTransfer         = "bank_transfer"
	BankDebitAlert       = "bank_debit_notification"
	BankToTill           = "bank_to_till"
	BankToTillCombined   = "bank_to_till_combined"
	BankToMobile         = "bank_to_mobile"
	BankToMobileCombined = "bank_to_mobile_combined"
	BankToPaybill        = "bank_to_paybill"
	Unrecognized         = "unrecognized"
)

const (
	tillDebitAlert   = "Your account 992****013 has been debited with KES 8,247.00 on 16/11/25 at 10:41 AM. Ref: FTX25320XAREM"
	tillConfirmation = "Your Mpesa Till transfer of KES 8,247.00 to 65575 Naivas Kitengela BANK REF. FTX25320XAREM MPESA REF. TKGSG4268Q completed successfully."

	mobileDebitAlert   = "Your account 992****013 has been debited with KES 1,500.00 on 17/11/25 at 08:05 AM. Ref: FTX25321MOBX"
	mobileConfirmation = "Dear Customer, your MPESA transfer of KES. 1,500.00 to JANE WANJIKU (254722000111) has been processed successfully. MPESA ref number TKH1234ABC."
)

var catalog = []Sample{
	{
		Name:    MpesaPayment,
		Label:   "M-Pesa: Buy Goods payment",
		Format:  FormatMpesa,
		Message: "SHK1ABC123 Confirmed. Ksh500.00 paid to JAVA HOUSE - SARIT CENTRE. on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00. New M-PESA balance is Ksh15,234.50.",
	},
	{
		Name:    MpesaSend,
		Label:   "M-Pesa: Send money",
		Format:  FormatMpesa,
		Message: "SLM3DEF789 Confirmed. Ksh1,000.00 sent to JOHN DOE 254712345678 on 23/12/24 at 3:45 PM. Transaction cost, Ksh7.00. New M-PESA balance is Ksh14,227.50.",
	},
	{
		Name:    MpesaReceived,
		Label:   "M-Pesa: Money received",
		Format:  FormatMpesa,
		Message: "SHL2XYZ456 Confirmed. You have received Ksh2,500.00 from JANE SMITH 254798765432 on 23/12/24 at 5:30 PM. New M-PESA balance is Ksh16,727.50.",
	},
	{
		Name:    MpesaWithdraw,
		Label:   "M-Pesa: Agent withdrawal",
		Format:  FormatMpesa,
		Message: "SHK5GHI012 Confirmed.on 23/12/24 at 10:00 AMWithdraw Ksh2,000.00 from 123456 - NAIROBI CBD AGENT New M-PESA balance is Ksh12,227.50. Transaction cost, Ksh29.00.",
	},
	{
		Name:    MpesaPaybill,
		Label:   "M-Pesa: Paybill",
		Format:  FormatMpesa,
		Message: "SHM7JKL345 Confirmed. Ksh1,200.00 sent to KPLC PREPAID for account 54321 on 24/12/24 at 9:12 AM. New M-PESA balance is Ksh11,027.50. Transaction cost, Ksh15.00.",
	},
	{
		Name:    AirtelSend,
		Label:   "Airtel Money: Send money",
		Format:  FormatAirtel,
		Message: "Airtel Money: TID ABC1234567. You have sent Ksh 500.00 to PETER OTIENO 254733123456 on 23/12/24 at 11:20 AM. Fee Ksh 10.00. Bal Ksh 4,490.00.",
	},
	{
		Name:    AirtelReceived,
		Label:   "Airtel Money: Money received",
		Format:  FormatAirtel,
		Message: "Airtel Money: TID ABC7654321. You have received Ksh 1,200.00 from MARY ATIENO 254734567890 on 23/12/24 at 1:05 PM. Bal Ksh 5,690.00.",
	},
	{
		Name:    AirtelPayment,
		Label:   "Airtel Money: Merchant payment",
		Format:  FormatAirtel,
		Message: "Airtel Money: TID ABC9988776. You have paid Ksh 350.00 to QUICKMART KILIMANI on 23/12/24 at 6:40 PM. Bal Ksh 5,340.00.",
	},
	{
		Name:    BankCredit,
		Label:   "Bank: Account credited",
		Format:  FormatBank,
		Message: "Equity Bank: Your account 0123456789 has been credited with KES 25,000.00 from EMPLOYER NAME on 23Dec24. Ref: SAL123456. Balance: KES 67,890.00",
	},
	{
		Name:    BankDebit,
		Label:   "Bank: ATM withdrawal",
		Format:  FormatBank,
		Message: "KCB: KES 2,500.00 withdrawn from your account at KCB ATM MOI AVENUE on 23/12/24. Charges KES 33.00. Available balance KES 10,467.00",
	},
	{
		Name:    BankTransfer,
		Label:   "Bank: Transfer to another account",
		Format:  FormatBank,
		Message: "Co-op Bank: Transfer of KES 15,000.00 to SAMUEL KAMAU on 23/12/24 was successful. Ref: TRF998877. Charges KES 50.00.",
	},
	{
		Name:    BankDebitAlert,
		Label:   "Bank: Debit notification",
		Format:  FormatBankTransfer,
		Message: tillDebitAlert,
	},
	{
		Name:    BankToTill,
		Label:   "Bank to Till: Confirmation",
		Format:  FormatBankTransfer,
		Message: tillConfirmation,
	},
	{
		Name:        BankToTillCombined,
		Label:       "Bank to Till: Debit + confirmation",
		Format:      FormatBankTransfer,
		Message:     tillDebitAlert + "\n\n" + tillConfirmation,
		Combined:    true,
		Description: "Paste both SMS; the debit notification supplies the date, time and account.",
	},
	{
		Name:    BankToMobile,
		Label:   "Bank to M-Pesa user: Confirmation",
		Format:  FormatBankTransfer,
		Message: mobileConfirmation,
	},
	{
		Name:     BankToMobileCombined,
		Label:    "Bank to M-Pesa user: Debit + confirmation",
		Format:   FormatBankTransfer,
		Message:  mobileDebitAlert + "\n" + mobileConfirmation,
		Combined: true,
	},
	{
		Name:    BankToPaybill,
		Label:   "Bank to Paybill: Confirmation",
		Format:  FormatBankTransfer,
		Message: "Your Mpesa Paybill payment of KES 3,500.00 to 888880 Account KPLC PREPAID 54321 BANK REF. FTX253208KPL MPESA REF. TKG1234XYZ.",
	},
	{
		Name:    Unrecognized,
		Label:   "Unrecognized text",
		Format:  FormatUnknown,
		Message: "Hi, are we still meeting for lunch tomorrow at the usual place?",
	},
}

// All returns a copy of the catalog in display order.
func All() []Sample {
	out := make([]Sample, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the sample with the given name, ignoring case.
func Get(name string) (Sample, bool) {
	for _, s := range catalog {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sample{}, false
}

// ByFormat returns the samples of one format.
func ByFormat(format string) []Sample {
	var out []Sample
	for _, s := range catalog {
		if s.Format == format {
			out = append(out, s)
		}
	}
	return out
}

// MustGet is like Get but panics when the sample is missing. Tests use it.
func MustGet(name string) Sample {
	s, ok := Get(name)
	if !ok {
		panic("samples: unknown sample " + name)
	}
	return s
}
