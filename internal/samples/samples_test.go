package samples

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_UniqueNamesAndFormats(t *testing.T) {
	formats := map[string]bool{
		FormatMpesa: true, FormatAirtel: true, FormatBank: true,
		FormatBankTransfer: true, FormatUnknown: true,
	}
	seen := map[string]bool{}

	for _, s := range All() {
		assert.False(t, seen[s.Name], "duplicate sample %q", s.Name)
		seen[s.Name] = true
		assert.True(t, formats[s.Format], "sample %q has unknown format %q", s.Name, s.Format)
		assert.NotEmpty(t, s.Label)
		assert.NotEmpty(t, strings.TrimSpace(s.Message))
	}
	for f := range formats {
		assert.NotEmpty(t, ByFormat(f), "no sample for format %q", f)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	list := All()
	list[0].Message = "changed"
	assert.NotEqual(t, "changed", All()[0].Message)
}

func TestGet(t *testing.T) {
	s, ok := Get("MPESA_PAYMENT")
	require.True(t, ok)
	assert.Equal(t, MpesaPayment, s.Name)

	_, ok = Get("nope")
	assert.False(t, ok)

	assert.Panics(t, func() { MustGet("nope") })
}

func TestCombinedSamplesHoldTwoMessages(t *testing.T) {
	for _, s := range All() {
		if !s.Combined {
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			var lines []string
			for _, l := range strings.Split(s.Message, "\n") {
				if strings.TrimSpace(l) != "" {
					lines = append(lines, l)
				}
			}
			assert.Len(t, lines, 2)
			assert.Contains(t, strings.ToLower(s.Message), "has been debited with")
		})
	}
}
