package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
)

// minSegmentLen drops greeting lines and stray fragments.
const minSegmentLen = 10

// splitSegments breaks a pasted blob into candidate messages, one per
// non-trivial line.
func splitSegments(blob string) []string {
	var segments []string
	for _, line := range strings.Split(strings.ReplaceAll(blob, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > minSegmentLen {
			segments = append(segments, line)
		}
	}
	return segments
}

// ParseCombined correlates a bank debit notification with a transfer
// confirmation pasted together, using the default engine.
func ParseCombined(blob string) models.ParsedTransaction {
	return defaultEngine.ParseCombined(blob)
}

// ParseCombined parses every segment of blob and merges the transfer
// confirmation with the debit notification. When neither kind is found the
// result is unsuccessful and callers should fall back to Parse.
func (e *Engine) ParseCombined(blob string) models.ParsedTransaction {
	var debit, confirm *models.ParsedTransaction

	for i, seg := range splitSegments(blob) {
		res := e.parseSegment(seg)
		if !res.Success {
			e.log.Debug().Int("segment", i).Str("error", res.Error).Msg("segment not parsed")
			continue
		}
		switch {
		case res.IsTransferConfirmation():
			if confirm == nil {
				confirm = &res
			}
		case res.IsDebitNotification():
			if debit == nil {
				debit = &res
			}
		}
	}

	switch {
	case confirm != nil:
		merged := mergeTransfer(*confirm, debit)
		merged.RawMessage = blob
		return merged
	case debit != nil:
		only := *debit
		only.RawMessage = blob
		return only
	default:
		return models.Failed(blob, "")
	}
}

// ParseText parses a blob that may hold one message or a debit/confirmation
// pair, using the default engine.
func ParseText(blob string) models.ParsedTransaction {
	return defaultEngine.ParseText(blob)
}

// ParseText tries the correlator on multi-line input and falls back to a
// single-message parse of the whole blob.
func (e *Engine) ParseText(blob string) models.ParsedTransaction {
	if len(splitSegments(blob)) > 1 {
		if res := e.ParseCombined(blob); res.Success {
			return res
		}
	}
	return e.Parse(blob)
}

// ParseBatch parses each message of a blob with the default engine.
func ParseBatch(blob string) []models.ParsedTransaction {
	return defaultEngine.ParseBatch(blob)
}

// ParseBatch parses every segment of blob independently. A debit
// notification directly followed or preceded by the confirmation of the same
// transfer is merged into one record.
func (e *Engine) ParseBatch(blob string) []models.ParsedTransaction {
	segments := splitSegments(blob)
	results := make([]models.ParsedTransaction, len(segments))
	for i, seg := range segments {
		results[i] = e.parseSegment(seg)
	}

	out := make([]models.ParsedTransaction, 0, len(results))
	for i := 0; i < len(results); i++ {
		if i+1 < len(results) {
			if merged, ok := pairTransfer(results[i], results[i+1]); ok {
				merged.RawMessage = segments[i] + "\n" + segments[i+1]
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, results[i])
	}
	return out
}

// parseSegment isolates one segment so a failure never aborts its siblings.
func (e *Engine) parseSegment(seg string) (res models.ParsedTransaction) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("segment crashed")
			res = models.Failed(seg, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()
	return e.Parse(seg)
}

// pairTransfer merges a and b when one is a debit notification and the
// other the confirmation of the same transfer.
func pairTransfer(a, b models.ParsedTransaction) (models.ParsedTransaction, bool) {
	confirm, debit := a, b
	if a.IsDebitNotification() {
		confirm, debit = b, a
	}
	if !confirm.IsTransferConfirmation() || !debit.IsDebitNotification() {
		return models.ParsedTransaction{}, false
	}
	if !sameTransfer(confirm, debit) {
		return models.ParsedTransaction{}, false
	}
	return mergeTransfer(confirm, &debit), true
}

// sameTransfer compares bank references when both sides carry one and
// amounts otherwise.
func sameTransfer(confirm, debit models.ParsedTransaction) bool {
	if confirm.BankReference != "" && debit.BankReference != "" {
		return strings.EqualFold(confirm.BankReference, debit.BankReference)
	}
	return confirm.Amount.Valid && debit.Amount.Valid &&
		confirm.Amount.Decimal.Equal(debit.Amount.Decimal)
}

// mergeTransfer seeds the result from the confirmation and backfills the
// fields only the debit notification carries.
func mergeTransfer(confirm models.ParsedTransaction, debit *models.ParsedTransaction) models.ParsedTransaction {
	merged := confirm
	if debit == nil {
		return merged
	}
	if merged.Date == "" {
		merged.Date = debit.Date
	}
	if merged.Time == "" {
		merged.Time = debit.Time
	}
	if merged.AccountNumber == "" {
		merged.AccountNumber = debit.AccountNumber
	}
	if merged.BankReference == "" {
		merged.BankReference = debit.BankReference
	}
	merged.Matcher = confirm.Matcher + "+" + debit.Matcher
	return merged
}
