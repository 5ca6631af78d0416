package ledger

import (
	"github.com/robinvdvleuten/capgains/record"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Currencies returns the sorted, distinct units traded or transferred in
// records, excluding the reporting currency.
func Currencies(records record.Records, reporting string) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, unit := range record.Units(rec) {
			if unit == "" || unit == reporting {
				continue
			}
			seen[unit] = struct{}{}
		}
	}

	currencies := maps.Keys(seen)
	slices.Sort(currencies)
	return currencies
}

// ForCurrency returns the records involving currency, in their original
// order: trades with either leg in the currency and transfers of it.
func ForCurrency(records record.Records, currency string) record.Records {
	var filtered record.Records
	for _, rec := range records {
		if slices.Contains(record.Units(rec), currency) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Allowed filters currencies down to those in allowlist, keeping their
// order. An empty allowlist allows everything.
func Allowed(currencies, allowlist []string) []string {
	if len(allowlist) == 0 {
		return currencies
	}
	var allowed []string
	for _, c := range currencies {
		if slices.Contains(allowlist, c) {
			allowed = append(allowed, c)
		}
	}
	return allowed
}
