package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/reader"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGainLine(t *testing.T) {
	tests := []struct {
		name string
		gain string
		want string
	}{
		{"whole", "5", "Capital gain for BTC is 5.00 AUD"},
		{"rounded", "1234.5678", "Capital gain for BTC is 1234.57 AUD"},
		{"loss", "-0.125", "Capital gain for BTC is -0.13 AUD"},
		{"tiny", "0.0000001", "Capital gain for BTC is 0.00 AUD"},
	}

	f := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.GainLine(&ledger.Result{Currency: "BTC", Gain: d(tt.gain)}))
		})
	}
}

func TestFormatGains(t *testing.T) {
	results := []*ledger.Result{
		{Currency: "BTC", Gain: d("10")},
		{Currency: "ETH", Err: errors.New("ran out of lots")},
		{Currency: "XRP", Gain: d("-2.5")},
	}

	var buf bytes.Buffer
	err := New(WithReportingCurrency("USD")).FormatGains(&buf, results)
	assert.NoError(t, err)
	assert.Equal(t, "Capital gain for BTC is 10.00 USD\nCapital gain for XRP is -2.50 USD\n", buf.String())

	assert.Equal(t, "7.5", Total(results).String())
	assert.Equal(t, "Total capital gain is 7.50 USD", New(WithReportingCurrency("USD")).TotalLine(results))
}

func TestTotalLine_Loss(t *testing.T) {
	results := []*ledger.Result{
		{Currency: "BTC", Gain: d("1.25")},
		{Currency: "ETH", Gain: d("-4")},
	}
	assert.Equal(t, "Total capital gain is -2.75 AUD", New().TotalLine(results))
}

func TestFormatGains_Styled(t *testing.T) {
	// Styles on a non-terminal writer render plain text.
	var buf bytes.Buffer
	f := New(WithStyles(output.NewStyles(&buf)))

	err := f.FormatGains(&buf, []*ledger.Result{{Currency: "BTC", Gain: d("1")}})
	assert.NoError(t, err)
	assert.Equal(t, "Capital gain for BTC is 1.00 AUD\n", buf.String())
}

func TestFormatLots(t *testing.T) {
	results := []*ledger.Result{
		{
			Currency: "BTC",
			OpenLots: []record.Half{
				record.NewHalf(d("0.5"), "BTC", d("30")),
				record.NewHalf(d("12.25"), "BTC", d("40000")),
			},
		},
		{Currency: "ETH"},
		{Currency: "XRP", Err: errors.New("failed")},
	}

	var buf bytes.Buffer
	err := New().FormatLots(&buf, results)
	assert.NoError(t, err)

	want := "BTC\n" +
		"    0.5 BTC @    30 AUD  cost 15.00 AUD\n" +
		"  12.25 BTC @ 40000 AUD  cost 490000.00 AUD\n" +
		"ETH\n" +
		"  no open lots\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatRates(t *testing.T) {
	rates := reader.RateTable{
		"DOGE": d("0.42"),
		"BTC":  d("40000"),
	}

	var buf bytes.Buffer
	err := New().FormatRates(&buf, rates)
	assert.NoError(t, err)
	assert.Equal(t, "BTC   40000 AUD\nDOGE  0.42 AUD\n", buf.String())
}
