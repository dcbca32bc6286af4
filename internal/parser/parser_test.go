package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
	"github.com/insightdelivered/mobile-money-parser/internal/samples"
)

func TestParse_Scenarios(t *testing.T) {
	t.Run("merchant payment", func(t *testing.T) {
		got := Parse("SHK1ABC123 Confirmed. Ksh500.00 paid to JAVA HOUSE - SARIT CENTRE. on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00. New M-PESA balance is Ksh15,234.50.")
		require.True(t, got.Success)
		assert.Equal(t, models.ProviderMpesa, got.Provider)
		assert.Equal(t, models.TypePayment, got.TransactionType)
		assertDecimal(t, "500.00", got.Amount, "amount")
		assertDecimal(t, "0.00", got.TransactionCost, "transactionCost")
		assert.Equal(t, "JAVA HOUSE - SARIT CENTRE", got.Recipient)
		assertDecimal(t, "15234.50", got.NewBalance, "newBalance")
	})

	t.Run("send money", func(t *testing.T) {
		got := Parse("SLM3DEF789 Confirmed. Ksh1,000.00 sent to JOHN DOE 254712345678 on 23/12/24 at 3:45 PM. Transaction cost, Ksh7.00. New M-PESA balance is Ksh14,227.50.")
		require.True(t, got.Success)
		assertDecimal(t, "1000.00", got.Amount, "amount")
		assertDecimal(t, "7.00", got.TransactionCost, "transactionCost")
		assert.Equal(t, "254712345678", got.RecipientNumber)
	})

	t.Run("combined bank to till", func(t *testing.T) {
		got := Parse(samples.MustGet(samples.BankToTillCombined).Message)
		require.True(t, got.Success)
		assert.Equal(t, models.TypeBankTransfer, got.TransactionType)
		assert.Equal(t, models.BankToTill, got.BankTransferType)
		assertDecimal(t, "8247", got.Amount, "amount")
		assert.Equal(t, "65575", got.RecipientNumber)
		assert.Equal(t, "Naivas Kitengela", got.Recipient)
		assert.Equal(t, "FTX25320XAREM", got.BankReference)
		assert.Equal(t, "TKGSG4268Q", got.MpesaReference)
		assert.True(t, got.RequiresManualFee)
	})

	t.Run("bank credit", func(t *testing.T) {
		got := Parse("Equity Bank: Your account 0123456789 has been credited with KES 25,000.00 from EMPLOYER NAME on 23Dec24. Ref: SAL123456. Balance: KES 67,890.00")
		require.True(t, got.Success)
		assert.Equal(t, models.TypeCredit, got.TransactionType)
		assertDecimal(t, "25000.00", got.Amount, "amount")
		assertDecimal(t, "67890.00", got.Balance, "balance")
	})

	t.Run("trailing word starting with ref", func(t *testing.T) {
		got := Parse("SHK1ABC123 Confirmed. Ksh500.00 paid to SHOP X on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00. New M-PESA balance is Ksh1,000.00. REFUNDED")
		require.True(t, got.Success)
		assert.Equal(t, "SHK1ABC123", got.TransactionCode)
		assert.Empty(t, got.Reference)
	})

	t.Run("unrecognized", func(t *testing.T) {
		got := Parse("Hi, are we still meeting for lunch tomorrow at the usual place?")
		assert.False(t, got.Success)
		assert.False(t, got.Amount.Valid)
		assert.Empty(t, got.TransactionType)
	})
}

func TestParse_Idempotent(t *testing.T) {
	for _, s := range samples.All() {
		t.Run(s.Name, func(t *testing.T) {
			assert.Equal(t, Parse(s.Message), Parse(s.Message))
		})
	}
}

func TestParse_AmountGatesSuccess(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Ksh",
		"M-PESA balance is low",
		"You have received money",
		"bank transfer of KES abc",
		strings.Repeat("Ksh500.00 paid to ", 50),
	}
	for _, s := range samples.All() {
		inputs = append(inputs, s.Message)
	}

	for _, in := range inputs {
		got := Parse(in)
		assert.Equal(t, got.Amount.Valid, got.Success, "input %q", in)
		if !got.Success {
			assert.Equal(t, models.ProviderUnknown, got.Provider)
			assert.Equal(t, in, got.RawMessage)
		}
	}
}

func TestParse_FailureClearsFields(t *testing.T) {
	got := Parse(samples.MustGet(samples.Unrecognized).Message)

	want := models.Failed(samples.MustGet(samples.Unrecognized).Message, "")
	assert.Equal(t, want, got)
}

func TestParse_ReceivedIsFree(t *testing.T) {
	for _, s := range samples.All() {
		got := ParseText(s.Message)
		if got.TransactionType != models.TypeReceived {
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			require.True(t, got.TransactionCost.Valid)
			assert.True(t, got.TransactionCost.Decimal.IsZero())
			assert.False(t, got.RequiresManualFee)
		})
	}
}

func TestParse_ManualFeeMatchesAbsentFee(t *testing.T) {
	for _, s := range samples.All() {
		t.Run(s.Name, func(t *testing.T) {
			got := ParseText(s.Message)
			if !got.Success {
				return
			}
			assert.Equal(t, !got.TransactionCost.Valid, got.RequiresManualFee)
			if got.TransactionType == models.TypeBankTransfer {
				assert.True(t, got.RequiresManualFee)
			}
		})
	}
}

func TestParse_EveryCatalogEntryMatchesItsFormat(t *testing.T) {
	providers := map[string]models.Provider{
		samples.FormatMpesa:        models.ProviderMpesa,
		samples.FormatAirtel:       models.ProviderAirtel,
		samples.FormatBank:         models.ProviderBank,
		samples.FormatBankTransfer: models.ProviderBank,
		samples.FormatUnknown:      models.ProviderUnknown,
	}

	for _, s := range samples.All() {
		t.Run(s.Name, func(t *testing.T) {
			got := ParseText(s.Message)
			assert.Equal(t, providers[s.Format], got.Provider)
			assert.Equal(t, s.Format != samples.FormatUnknown, got.Success)
		})
	}
}

func TestEngine_RecoversMatcherPanic(t *testing.T) {
	engine := NewEngine(WithRoutes([]Route{{
		Name:     "broken",
		Provider: models.ProviderMpesa,
		Applies:  always,
		Matchers: []Matcher{{
			Name:    "broken_matcher",
			Applies: always,
			Extract: func(string) models.ParsedTransaction {
				var m map[string]int
				m["x"]++
				return models.ParsedTransaction{}
			},
		}},
	}}))

	var got models.ParsedTransaction
	require.NotPanics(t, func() { got = engine.Parse("Ksh500.00 paid to SHOP") })

	assert.False(t, got.Success)
	assert.Equal(t, models.ProviderUnknown, got.Provider)
	assert.Equal(t, "Ksh500.00 paid to SHOP", got.RawMessage)
	assert.Contains(t, got.Error, "broken_matcher: unexpected failure")
}

func TestEngine_CustomRoute(t *testing.T) {
	tkash := Route{
		Name:     "tkash",
		Provider: models.ProviderUnknown,
		Applies:  keyword("t-kash"),
		Matchers: []Matcher{{
			Name:    "tkash_send",
			Applies: keyword("sent"),
			Extract: airtelExtractor(models.TypeSendMoney),
		}},
	}
	engine := NewEngine(WithRoutes(append([]Route{tkash}, DefaultRoutes()...)))

	got := engine.Parse("T-Kash: You have sent Ksh 150.00 to MAMA MBOGA on 05/01/25.")
	require.True(t, got.Success)
	assert.Equal(t, "tkash_send", got.Matcher)
	assert.Equal(t, "MAMA MBOGA", got.Recipient)
	assertDecimal(t, "150", got.Amount, "amount")

	// Default routes still apply after the custom one.
	assert.True(t, engine.Parse(samples.MustGet(samples.MpesaSend).Message).Success)
}

func TestEngine_FirstRouteWins(t *testing.T) {
	// Mentions M-Pesa, so the M-Pesa route is the only one tried even
	// though the bank grammar would have matched.
	got := Parse("Your account has been credited with KES 500.00 via M-PESA.")
	assert.False(t, got.Success)
}

func TestEngine_BankBrandsMatchWholeWords(t *testing.T) {
	cases := []struct {
		name     string
		msg      string
		provider models.Provider
		matcher  string
	}{
		{
			name:     "KCB inside a transaction code",
			msg:      "QKCB1ABCDE Confirmed. Ksh500.00 paid to SHOP X on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00.",
			provider: models.ProviderUnknown,
			matcher:  "mpesa_payment",
		},
		{
			name:     "ABSA inside a transaction code",
			msg:      "QABSA12345 Confirmed. Ksh500.00 paid to SHOP X on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00.",
			provider: models.ProviderUnknown,
			matcher:  "mpesa_payment",
		},
		{
			name:     "DTB inside a recipient name",
			msg:      "QHK7DTBX12 Confirmed. Ksh500.00 paid to DTBROS STORES on 23/12/24 at 2:15 PM. Transaction cost, Ksh0.00.",
			provider: models.ProviderUnknown,
			matcher:  "mpesa_payment",
		},
		{
			name:     "ABSA as a sender name",
			msg:      "ABSA: KES 1,000.00 debited on 23/12/24. Charges KES 30.00.",
			provider: models.ProviderBank,
			matcher:  "bank_debit",
		},
		{
			name:     "I&M as a sender name",
			msg:      "I&M: KES 4,000.00 withdrawn at SARIT ATM on 23/12/24.",
			provider: models.ProviderBank,
			matcher:  "bank_debit",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.msg)
			require.True(t, got.Success, "parse failed: %s", got.Error)
			assert.Equal(t, tc.provider, got.Provider)
			assert.Equal(t, tc.matcher, got.Matcher)
		})
	}
}

func TestEngine_WithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := zerolog.New(buf).Level(zerolog.DebugLevel)
	engine := NewEngine(WithLogger(log))

	engine.Parse(samples.MustGet(samples.MpesaPayment).Message)

	out := buf.String()
	assert.Contains(t, out, `"component":"parser"`)
	assert.Contains(t, out, `"route":"mpesa"`)
	assert.Contains(t, out, `"matcher":"mpesa_payment"`)
}

func TestDefaultRoutesOrder(t *testing.T) {
	var names []string
	for _, r := range DefaultRoutes() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"bank_transfer", "mpesa", "airtel", "bank", "fallback"}, names)
}

func TestFinalize(t *testing.T) {
	fee := decimal.NewNullDecimal(decimal.NewFromInt(-5))
	bal := decimal.NewNullDecimal(decimal.NewFromInt(100))

	got := finalize(models.ParsedTransaction{
		TransactionType:  models.TypeDebit,
		BankTransferType: models.BankToTill,
		Amount:           decimal.NewNullDecimal(decimal.NewFromInt(10)),
		TransactionCost:  fee,
		NewBalance:       bal,
	})

	assert.True(t, got.Success)
	assert.Empty(t, got.BankTransferType)
	assert.False(t, got.TransactionCost.Valid)
	assert.True(t, got.RequiresManualFee)
	assertDecimal(t, "100", got.Balance, "balance")
}
