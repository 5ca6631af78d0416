package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/reader"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

const exportSource = `action,debit,credit,currency,rates
Bought BTC,100,,AUD,$10 AUD
Bought BTC,,10,BTC,
Sent BTC,15,,BTC,
Received AUD,,5,AUD,`

func sources(name string) []byte {
	if name == "export.csv" {
		return []byte(exportSource)
	}
	return nil
}

func TestErrorRenderer_RenderWithSourceContext(t *testing.T) {
	err := &ledger.InsufficientLotsError{
		Currency:  "BTC",
		Remaining: decimal.NewFromInt(5),
		Pos:       record.Position{Filename: "export.csv", Line: 4},
	}

	output := NewErrorRenderer(sources).Render(err)

	assert.Contains(t, output, "export.csv:4: ran out of lots for BTC")
	assert.Contains(t, output, "Sent BTC,15,,BTC,")
	assert.Contains(t, output, "Bought BTC,100,,AUD,$10 AUD")
	assert.Contains(t, output, "Received AUD")
	assert.NotContains(t, output, "action,debit")

	// The offending row is numbered and underlined.
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if strings.Contains(line, "Sent BTC") {
			assert.True(t, strings.HasPrefix(line, "    4 | "), "unexpected row prefix %q", line)
			assert.Contains(t, lines[i+1], strings.Repeat("^", len("Sent BTC,15,,BTC,")))
		}
	}
}

func TestErrorRenderer_WrappedCurrencyError(t *testing.T) {
	inner := &reader.MissingRateError{Pos: record.Position{Filename: "export.csv", Line: 2}, Unit: "ETH"}
	err := &ledger.CurrencyErrors{Errors: []error{&ledger.CurrencyError{Currency: "ETH", Err: inner}}}

	output := NewErrorRenderer(sources).Render(err)
	assert.Contains(t, output, "ETH: export.csv:2: no rate known for ETH")
	assert.Contains(t, output, "Bought BTC,100,,AUD,$10 AUD")
}

func TestErrorRenderer_RecordContext(t *testing.T) {
	rec := &record.TransferOut{
		Pos:      record.Position{Filename: "<stdin>", Line: 9},
		Date:     time.Date(2021, time.March, 4, 12, 0, 0, 0, time.UTC),
		Disposal: record.NewHalf(decimal.NewFromInt(2), "ETH", decimal.NewFromInt(3000)),
	}
	err := &ledger.InsufficientLotsError{Currency: "ETH", Remaining: decimal.NewFromInt(2), Pos: rec.Pos, Record: rec}

	output := NewErrorRenderer(nil).Render(err)
	assert.Contains(t, output, "<stdin>:9: ran out of lots for ETH")
	assert.Contains(t, output, "2021-03-04 12:00:00 transfer out 2 ETH @ 3000")
}

func TestErrorRenderer_PlainErrors(t *testing.T) {
	renderer := NewErrorRenderer(sources)

	assert.Equal(t, "boom", renderer.Render(errors.New("boom")))

	unpositioned := &ledger.InsufficientLotsError{Currency: "BTC", Remaining: decimal.NewFromInt(1)}
	assert.Equal(t, unpositioned.Error(), renderer.Render(unpositioned))

	// Position in a file without source falls back to the message.
	missing := &reader.ParseError{Pos: record.Position{Filename: "other.csv", Line: 3}, Message: "bad"}
	assert.Equal(t, "other.csv:3: bad", renderer.Render(missing))
}

func TestErrorRenderer_RenderAll(t *testing.T) {
	renderer := NewErrorRenderer(nil)
	assert.Equal(t, "", renderer.RenderAll(nil))

	output := renderer.Render(&ledger.CurrencyErrors{Errors: []error{errors.New("first"), errors.New("second")}})
	assert.Equal(t, "first\n\nsecond", output)
}
