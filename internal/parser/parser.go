// Package parser turns mobile-money and bank notification texts into
// structured transaction records.
//
// Parsing is pure and stateless: every entry point returns a record and
// never panics, so an Engine may be shared across goroutines.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// Matcher owns the grammar of one message family.
type Matcher struct {
	// Name labels records produced by this matcher.
	Name string
	// Applies reports whether the family's grammar signal is present in the
	// lowercased message.
	Applies func(lower string) bool
	// Extract pulls fields out of the whitespace-normalized message.
	Extract func(msg string) models.ParsedTransaction
}

// Route pairs a classification signal with the matchers tried, in order,
// when the signal fires.
type Route struct {
	Name     string
	Provider models.Provider
	Applies  func(lower string) bool
	Matchers []Matcher
	// Correlate tries the multi-message correlator first when the input
	// spans several lines.
	Correlate bool
}

var (
	bankTransferSignals = []string{
		"till transfer", "your mpesa transfer", "your m-pesa transfer",
		"paybill transfer", "paybill payment", "bank ref", "has been debited with",
	}
	mpesaSignals  = []string{"m-pesa", "mpesa", "safaricom"}
	airtelSignals = []string{"airtel money"}

	// Brand names are short enough to occur inside transaction codes, so
	// they only count as whole words.
	bankSignals = []string{
		"bank", "account", "a/c", "equity", "kcb", "co-op", "coop", "ncba",
		"absa", "stanbic", "dtb", "i&m", "standard chartered",
	}
)

// DefaultRoutes is the decision order used by NewEngine. The first route
// whose signal fires is the only one tried.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "bank_transfer", Provider: models.ProviderBank, Applies: keyword(bankTransferSignals...), Matchers: bankTransferMatchers, Correlate: true},
		{Name: "mpesa", Provider: models.ProviderMpesa, Applies: keyword(mpesaSignals...), Matchers: mpesaMatchers},
		{Name: "airtel", Provider: models.ProviderAirtel, Applies: keyword(airtelSignals...), Matchers: airtelMatchers},
		{Name: "bank", Provider: models.ProviderBank, Applies: words(bankSignals...), Matchers: legacyBankMatchers},
		{Name: "fallback", Provider: models.ProviderUnknown, Applies: always, Matchers: mpesaMatchers},
	}
}

// keyword builds a case-insensitive substring predicate. Needles must be
// lowercase.
func keyword(needles ...string) func(string) bool {
	return func(lower string) bool {
		return containsAny(lower, needles)
	}
}

// words builds a predicate matching any needle as a whole word. Needles
// must be lowercase.
func words(needles ...string) func(string) bool {
	quoted := make([]string, len(needles))
	for i, n := range needles {
		quoted[i] = regexp.QuoteMeta(n)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return re.MatchString
}

func always(string) bool { return true }

// Engine classifies and extracts messages. The zero value is not usable;
// construct with NewEngine.
type Engine struct {
	log    zerolog.Logger
	routes []Route
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Engines are silent by default.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log.With().Str("component", "parser").Logger()
	}
}

// WithRoutes replaces the dispatch table.
func WithRoutes(routes []Route) Option {
	return func(e *Engine) {
		e.routes = routes
	}
}

// NewEngine returns an engine using DefaultRoutes.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:    zerolog.Nop(),
		routes: DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Parse classifies a single message with a silent default engine.
func Parse(raw string) models.ParsedTransaction {
	return defaultEngine.Parse(raw)
}

// Parse classifies raw and returns the record produced by the first
// matching route.
func (e *Engine) Parse(raw string) models.ParsedTransaction {
	msg := normalize(raw)
	if msg == "" {
		return models.Failed(raw, "")
	}
	lower := strings.ToLower(msg)

	for _, rt := range e.routes {
		if !rt.Applies(lower) {
			continue
		}
		e.log.Debug().Str("route", rt.Name).Msg("route selected")

		if rt.Correlate && len(splitSegments(raw)) > 1 {
			if combined := e.ParseCombined(raw); combined.Success {
				return combined
			}
		}
		return e.runRoute(rt, raw, msg, lower)
	}

	return models.Failed(raw, "")
}

func (e *Engine) runRoute(rt Route, raw, msg, lower string) models.ParsedTransaction {
	for _, m := range rt.Matchers {
		if !m.Applies(lower) {
			continue
		}
		tx := e.extract(m, msg)
		tx.Provider = rt.Provider
		tx.RawMessage = raw
		tx.Matcher = m.Name

		tx = finalize(tx)
		e.log.Debug().
			Str("route", rt.Name).
			Str("matcher", m.Name).
			Bool("success", tx.Success).
			Msg("matcher applied")
		return tx
	}

	e.log.Debug().Str("route", rt.Name).Msg("no matcher grammar found")
	return models.Failed(raw, "")
}

// extract runs a matcher, converting a panic into a failed record.
func (e *Engine) extract(m Matcher, msg string) (tx models.ParsedTransaction) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("matcher", m.Name).
				Interface("panic", r).
				Msg("matcher crashed")
			tx = models.ParsedTransaction{Error: fmt.Sprintf("%s: unexpected failure: %v", m.Name, r)}
		}
	}()
	return m.Extract(msg)
}

// finalize enforces the record invariants: the amount gates success, the
// bank transfer kind only rides on bank_transfer, and an absent fee is
// always flagged for manual entry.
func finalize(tx models.ParsedTransaction) models.ParsedTransaction {
	if !tx.Amount.Valid {
		return models.Failed(tx.RawMessage, tx.Error)
	}
	tx.Success = true

	if tx.TransactionType != models.TypeBankTransfer {
		tx.BankTransferType = ""
	}
	if tx.TransactionType == models.TypeBankTransfer ||
		(tx.TransactionCost.Valid && tx.TransactionCost.Decimal.IsNegative()) {
		tx.TransactionCost = decimal.NullDecimal{}
	}
	tx.RequiresManualFee = !tx.TransactionCost.Valid

	switch {
	case tx.Balance.Valid && !tx.NewBalance.Valid:
		tx.NewBalance = tx.Balance
	case tx.NewBalance.Valid && !tx.Balance.Valid:
		tx.Balance = tx.NewBalance
	}
	return tx
}
