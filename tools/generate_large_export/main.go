// Large CoinJar Export Generator
//
// This tool generates a large CoinJar transaction export for performance
// testing and profiling. Every disposal is covered by earlier acquisitions,
// so the output always calculates without errors.
//
// Usage:
//
//	go run main.go > large.csv
//	go run main.go 20000000 > large.csv  # Specify target size in bytes
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
	dateLayout        = "2006-01-02 15:04:05"
)

var coins = []struct {
	code string
	rate float64 // Starting price in AUD
}{
	{"BTC", 12000},
	{"ETH", 400},
	{"LTC", 60},
	{"XRP", 0.3},
	{"DOGE", 0.004},
}

type market struct {
	rates    map[string]decimal.Decimal
	holdings map[string]decimal.Decimal
	traded   map[string]bool
}

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	m := &market{
		rates:    make(map[string]decimal.Decimal),
		holdings: make(map[string]decimal.Decimal),
		traded:   make(map[string]bool),
	}
	for _, c := range coins {
		m.rates[c.code] = decimal.NewFromFloat(c.rate)
		m.holdings[c.code] = decimal.Zero
	}

	w := bufio.NewWriter(os.Stdout)
	defer func() { _ = w.Flush() }()

	header := "Date,Action,Debit,Credit,Currency,Rates\n"
	_, _ = w.WriteString(header)

	bytesWritten := len(header)
	rowCount := 0
	currentDate := time.Date(2017, 1, 1, 9, 0, 0, 0, time.UTC)

	for bytesWritten < targetSize {
		coin := coins[rand.Intn(len(coins))].code
		m.drift(coin)

		var rows []string
		switch rand.Intn(10) {
		case 0: // 10% - AUD deposit, skipped by the reader
			rows = []string{fmt.Sprintf("%s,Deposit,,%s,AUD,", currentDate.Format(dateLayout), withThousands(randAUD(500, 5000)))}
		case 1, 2, 3, 4: // 40% - Buy
			rows = m.buy(currentDate, coin)
		case 5, 6, 7: // 30% - Sell
			rows = m.sell(currentDate, coin)
		case 8: // 10% - Send out
			rows = m.send(currentDate, coin)
		case 9: // 10% - Receive
			rows = m.receive(currentDate, coin)
		}

		for _, row := range rows {
			_, _ = w.WriteString(row)
			_ = w.WriteByte('\n')
			bytesWritten += len(row) + 1
			rowCount++
		}

		// Advance by 1 to 12 hours
		currentDate = currentDate.Add(time.Duration(rand.Intn(12)+1) * time.Hour)
	}

	_, _ = fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d rows\n", bytesWritten, rowCount)
}

// drift moves the price of coin by up to 5% either way.
func (m *market) drift(coin string) {
	factor := decimal.NewFromFloat(0.95 + rand.Float64()*0.1)
	m.rates[coin] = m.rates[coin].Mul(factor).Round(6)
}

func (m *market) quote(coin string) string {
	return fmt.Sprintf(`"1 %s = $%s AUD"`, coin, withThousands(m.rates[coin].String()))
}

func (m *market) buy(date time.Time, coin string) []string {
	aud := decimal.RequireFromString(randAUD(50, 2000))
	qty := aud.DivRound(m.rates[coin], 8)
	if !qty.IsPositive() {
		return nil
	}
	m.holdings[coin] = m.holdings[coin].Add(qty)
	m.traded[coin] = true

	d := date.Format(dateLayout)
	return []string{
		fmt.Sprintf(`%s,Bought %s,"%s",,AUD,%s`, d, coin, withThousands(aud.StringFixed(2)), m.quote(coin)),
		fmt.Sprintf("%s,Bought %s,,%s,%s,", d, coin, qty.String(), coin),
	}
}

func (m *market) sell(date time.Time, coin string) []string {
	qty := m.portion(coin)
	if !qty.IsPositive() {
		return nil
	}
	m.holdings[coin] = m.holdings[coin].Sub(qty)

	d := date.Format(dateLayout)
	aud := qty.Mul(m.rates[coin]).StringFixed(2)
	return []string{
		fmt.Sprintf("%s,Sold %s,%s,,%s,%s", d, coin, qty.String(), coin, m.quote(coin)),
		fmt.Sprintf(`%s,Sold %s,,"%s",AUD,`, d, coin, withThousands(aud)),
	}
}

func (m *market) send(date time.Time, coin string) []string {
	qty := m.portion(coin)
	if !qty.IsPositive() {
		return nil
	}
	m.holdings[coin] = m.holdings[coin].Sub(qty)
	return []string{fmt.Sprintf("%s,Sent %s,%s,,%s,", date.Format(dateLayout), coin, qty.String(), coin)}
}

// receive only happens for coins that were traded before, since the reader
// needs an observed rate to price the transfer.
func (m *market) receive(date time.Time, coin string) []string {
	if !m.traded[coin] {
		return nil
	}
	qty := decimal.RequireFromString(randAUD(10, 500)).DivRound(m.rates[coin], 8)
	if !qty.IsPositive() {
		return nil
	}
	m.holdings[coin] = m.holdings[coin].Add(qty)
	return []string{fmt.Sprintf("%s,Received %s,,%s,%s,", date.Format(dateLayout), coin, qty.String(), coin)}
}

// portion returns a random share of the current holdings of coin.
func (m *market) portion(coin string) decimal.Decimal {
	share := decimal.NewFromFloat(0.1 + rand.Float64()*0.5)
	return m.holdings[coin].Mul(share).Truncate(8)
}

func randAUD(min, max float64) string {
	return fmt.Sprintf("%.2f", min+rand.Float64()*(max-min))
}

// withThousands inserts thousand separators into a plain decimal string.
func withThousands(s string) string {
	whole, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
