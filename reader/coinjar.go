package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

// Column names of a CoinJar transaction export. Headers are matched
// case-insensitively.
const (
	columnAction   = "action"
	columnDebit    = "debit"
	columnCredit   = "credit"
	columnCurrency = "currency"
	columnRates    = "rates"
)

var requiredColumns = []string{columnAction, columnDebit, columnCredit, columnCurrency, columnRates}

// dateColumns are tried in order to find the optional timestamp column.
var dateColumns = []string{"date", "timestamp", "time"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// CoinJarReader reads CoinJar transaction exports.
//
// Every row has an action, a debit or credit amount and a currency. Rows
// whose action mentions "Received" or "Sent" are transfers in or out of the
// exchange. A trade spans two consecutive rows, one per leg; the first row
// quotes the rate in its rates field, e.g. "1 BTC = $12,345.67 AUD". Rows
// that are neither are skipped.
type CoinJarReader struct {
	reportingCurrency string
}

// NewCoinJarReader creates a CoinJar reader for the given reporting currency.
func NewCoinJarReader(reportingCurrency string) *CoinJarReader {
	return &CoinJarReader{reportingCurrency: reportingCurrency}
}

// coinJarRow is a single export row with its columns resolved.
type coinJarRow struct {
	pos      record.Position
	action   string
	debit    string
	credit   string
	currency string
	rates    string
	date     string
}

// Read implements Reader.
func (cr *CoinJarReader) Read(ctx context.Context, filename string, r io.Reader, rates RateTable) (record.Records, RateTable, error) {
	log := logger.FromContext(ctx)

	rows, err := cr.readRows(filename, r)
	if err != nil {
		return nil, nil, err
	}

	rates = rates.Clone()
	var records record.Records

	for i := 0; i < len(rows); i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		row := rows[i]

		switch {
		case isTransfer(row.action):
			rec, err := cr.transfer(row, rates)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, rec)

		case strings.TrimSpace(row.rates) == "":
			log.Debug("skipping row without rate", "pos", row.pos.String(), "action", row.action)

		default:
			if i+1 >= len(rows) {
				return nil, nil, &UnpairedTradeError{Pos: row.pos}
			}
			i++
			trade, err := cr.trade(row, rows[i])
			if err != nil {
				return nil, nil, err
			}
			for _, leg := range []record.Half{trade.Sold, trade.Bought} {
				if leg.Unit != cr.reportingCurrency {
					rates.Observe(leg.Unit, leg.Rate)
				}
			}
			records = append(records, trade)
		}
	}

	log.Debug("read export", "file", filename, "rows", len(rows), "records", len(records))

	return records, rates, nil
}

func (cr *CoinJarReader) readRows(filename string, r io.Reader) ([]coinJarRow, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, csvError(filename, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, &ParseError{
				Pos:     record.Position{Filename: filename, Line: 1},
				Message: fmt.Sprintf("missing column %q", name),
			}
		}
	}
	dateIdx := -1
	for _, name := range dateColumns {
		if idx, ok := columns[name]; ok {
			dateIdx = idx
			break
		}
	}

	field := func(fields []string, idx int) string {
		if idx < 0 || idx >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[idx])
	}

	var rows []coinJarRow
	for {
		fields, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(filename, err)
		}

		line, _ := csvr.FieldPos(0)
		rows = append(rows, coinJarRow{
			pos:      record.Position{Filename: filename, Line: line},
			action:   field(fields, columns[columnAction]),
			debit:    field(fields, columns[columnDebit]),
			credit:   field(fields, columns[columnCredit]),
			currency: strings.ToUpper(field(fields, columns[columnCurrency])),
			rates:    field(fields, columns[columnRates]),
			date:     field(fields, dateIdx),
		})
	}

	return rows, nil
}

func (cr *CoinJarReader) transfer(row coinJarRow, rates RateTable) (record.Record, error) {
	outward := row.debit != ""
	raw := row.credit
	if outward {
		raw = row.debit
	}

	amount, err := parseAmount(raw)
	if err != nil {
		return nil, &ParseError{Pos: row.pos, Message: fmt.Sprintf("invalid transfer amount %q", raw), Underlying: err}
	}

	date, err := parseDate(row.date)
	if err != nil {
		return nil, &ParseError{Pos: row.pos, Message: fmt.Sprintf("invalid date %q", row.date), Underlying: err}
	}

	var rate decimal.Decimal
	if row.currency == cr.reportingCurrency {
		rate = decimal.NewFromInt(1)
	} else {
		var ok bool
		rate, ok = rates.Lookup(row.currency)
		if !ok {
			return nil, &MissingRateError{Pos: row.pos, Unit: row.currency}
		}
	}

	h := record.NewHalf(amount, row.currency, rate)
	if outward {
		return &record.TransferOut{Pos: row.pos, Date: date, Disposal: h}, nil
	}
	return &record.TransferIn{Pos: row.pos, Date: date, Lot: h}, nil
}

// trade combines the two rows of a trade. The first row's debit, if any,
// is the sold leg; otherwise its credit is the bought leg and the second
// row's debit the sold one. Both legs share the first row's rate unless
// neither is in the reporting currency.
func (cr *CoinJarReader) trade(first, second coinJarRow) (*record.Trade, error) {
	rate, err := parseQuotedRate(first.rates)
	if err != nil {
		return nil, &ParseError{Pos: first.pos, Message: fmt.Sprintf("invalid rate %q", first.rates), Underlying: err}
	}

	firstIsDebit := first.debit != ""
	firstRaw, secondRaw := first.credit, second.debit
	if firstIsDebit {
		firstRaw, secondRaw = first.debit, second.credit
	}

	firstAmount, err := parseAmount(firstRaw)
	if err != nil {
		return nil, &ParseError{Pos: first.pos, Message: fmt.Sprintf("invalid trade amount %q", firstRaw), Underlying: err}
	}
	secondAmount, err := parseAmount(secondRaw)
	if err != nil {
		return nil, &ParseError{Pos: second.pos, Message: fmt.Sprintf("invalid trade amount %q", secondRaw), Underlying: err}
	}

	date, err := parseDate(first.date)
	if err != nil {
		return nil, &ParseError{Pos: first.pos, Message: fmt.Sprintf("invalid date %q", first.date), Underlying: err}
	}

	firstHalf := record.NewHalf(firstAmount, first.currency, rate)
	secondHalf := record.NewHalf(secondAmount, second.currency, rate)
	if first.currency != cr.reportingCurrency && second.currency != cr.reportingCurrency {
		if err := priceSwap(first, second, &firstHalf, &secondHalf); err != nil {
			return nil, err
		}
	}

	trade := &record.Trade{Pos: first.pos, Date: date, Sold: secondHalf, Bought: firstHalf}
	if firstIsDebit {
		trade.Sold, trade.Bought = firstHalf, secondHalf
	}
	return trade, nil
}

// priceSwap values both legs of an asset-to-asset trade. The first row's
// quote prices the unit it names. The other leg takes the second row's quote
// when it names that leg's unit, and otherwise the value of the quoted leg.
func priceSwap(first, second coinJarRow, firstHalf, secondHalf *record.Half) error {
	quoted, other := firstHalf, secondHalf
	if quotedUnit(first.rates, first.currency) == secondHalf.Unit {
		quoted, other = secondHalf, firstHalf
	}

	if second.rates != "" && quotedUnit(second.rates, second.currency) == other.Unit {
		rate, err := parseQuotedRate(second.rates)
		if err != nil {
			return &ParseError{Pos: second.pos, Message: fmt.Sprintf("invalid rate %q", second.rates), Underlying: err}
		}
		other.Rate = rate
		return nil
	}

	if other.Amount.IsZero() {
		return &ParseError{Pos: second.pos, Message: fmt.Sprintf("cannot price %s leg of zero amount", other.Unit)}
	}
	other.Rate = quoted.Value().Div(other.Amount)
	return nil
}

// quotedUnit returns the unit a quote such as "1 BTC = $40,000 AUD" prices,
// or fallback when the quote names none.
func quotedUnit(quote, fallback string) string {
	before, _, found := strings.Cut(quote, "=")
	if !found {
		return fallback
	}
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return fallback
	}
	return strings.ToUpper(fields[len(fields)-1])
}

func isTransfer(action string) bool {
	return strings.Contains(action, "Received") || strings.Contains(action, "Sent")
}

// parseAmount parses a locale-formatted amount such as "1,234.5678".
// The sign is dropped: the column an amount is in gives its direction.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(",", "", " ", "", "$", "").Replace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}

// parseQuotedRate extracts the rate from a quote such as
// "1 BTC = $12,345.67 AUD": the number following the currency symbol.
func parseQuotedRate(s string) (decimal.Decimal, error) {
	_, after, found := strings.Cut(s, "$")
	if !found {
		return decimal.Zero, errors.New("no $ in rate quote")
	}
	number, _, _ := strings.Cut(strings.TrimSpace(after), " ")
	return parseAmount(number)
}

// parseDate parses an optional timestamp; an empty field is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func csvError(filename string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{
			Pos:        record.Position{Filename: filename, Line: csvErr.Line},
			Message:    csvErr.Err.Error(),
			Underlying: err,
		}
	}
	return fmt.Errorf("failed to read %s: %w", filename, err)
}
