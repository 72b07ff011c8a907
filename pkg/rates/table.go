package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ZeroQuote is returned whenever no estimate can be made
const ZeroQuote = "0.00"

// QuotePrecision is the number of decimal places in a quote
const QuotePrecision = 6

// Rate is a quantized exchange rate: Num/Den target units per source unit
type Rate struct {
	Num     int64           `json:"rate_num"`
	Den     int64           `json:"rate_den"`
	Display decimal.Decimal `json:"display"`
}

// Par is used when a pair has no table entry
var Par = Rate{Num: 1, Den: 1, Display: decimal.NewFromInt(1)}

// Consistent reports whether Num/Den matches the display ratio
func (r Rate) Consistent() bool {
	if r.Num <= 0 || r.Den <= 0 {
		return false
	}
	ratio := decimal.NewFromInt(r.Num).Div(decimal.NewFromInt(r.Den))
	return ratio.Sub(r.Display).Abs().LessThanOrEqual(decimal.New(1, -9))
}

// Pair is a directed (from, to) table key
type Pair struct {
	From Symbol `json:"from"`
	To   Symbol `json:"to"`
}

// Entry is a single row of the table
type Entry struct {
	Pair
	Rate
}

// Table is a static, read-only lookup of quantized rates
type Table struct {
	entries []Entry
	index   map[Pair]Rate
}

// NewTable builds a table from entries, keeping their order for listing
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
		index:   make(map[Pair]Rate, len(entries)),
	}
	copy(t.entries, entries)
	for _, e := range entries {
		t.index[e.Pair] = e.Rate
	}
	return t
}

func entry(from, to Symbol, num, den int64, display string) Entry {
	return Entry{
		Pair: Pair{From: from, To: to},
		Rate: Rate{Num: num, Den: den, Display: decimal.RequireFromString(display)},
	}
}

// Default returns the seed rate table
func Default() *Table {
	return NewTable([]Entry{
		entry(XLM, USDC, 12, 100, "0.12"),
		entry(XLM, EURC, 11, 100, "0.11"),
		entry(XLM, BTC, 18, 10000000, "0.0000018"),
		entry(USDC, XLM, 833, 100, "8.33"),
		entry(USDC, EURC, 92, 100, "0.92"),
		entry(USDC, BTC, 15, 1000000, "0.000015"),
		entry(EURC, XLM, 909, 100, "9.09"),
		entry(EURC, USDC, 109, 100, "1.09"),
		entry(EURC, BTC, 16, 1000000, "0.000016"),
		entry(BTC, XLM, 555555, 1, "555555"),
		entry(BTC, USDC, 66666, 1, "66666"),
		entry(BTC, EURC, 61111, 1, "61111"),
	})
}

// Lookup returns the rate for a directed pair; false means no route
func (t *Table) Lookup(from, to Symbol) (Rate, bool) {
	r, ok := t.index[Pair{From: from, To: to}]
	return r, ok
}

// RateOrPar returns the pair's rate, falling back to 1/1
func (t *Table) RateOrPar(from, to Symbol) Rate {
	if r, ok := t.Lookup(from, to); ok {
		return r
	}
	return Par
}

// Pairs returns all entries in table order
func (t *Table) Pairs() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Quote estimates the output of swapping amountIn of from into to.
// Unparsable or non-positive amounts and unknown pairs yield ZeroQuote.
func (t *Table) Quote(amountIn string, from, to Symbol) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(amountIn))
	if err != nil || !amount.IsPositive() {
		return ZeroQuote
	}

	r, ok := t.Lookup(from, to)
	if !ok {
		return ZeroQuote
	}

	return amount.Mul(r.Display).StringFixed(QuotePrecision)
}
