package core

import (
	"strconv"
	"strings"
)

// MonthlyTotals is the derived breakdown for one calendar month.
type MonthlyTotals struct {
	Month        string        `json:"month"` // YYYY-MM
	TotalCredits Amount        `json:"totalCredits"`
	TotalDebits  Amount        `json:"totalDebits"`
	Balance      Amount        `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// Summary holds credit, debit and balance totals over a set of transactions.
type Summary struct {
	Credits Amount `json:"credits"`
	Debits  Amount `json:"debits"`
	Balance Amount `json:"balance"`
}

// PeriodFilter narrows transactions by month and/or year. Zero fields match everything.
type PeriodFilter struct {
	Month int `json:"month,omitempty"` // 1-12
	Year  int `json:"year,omitempty"`
}

// ParsePeriodFilter reads month and year query values. Empty strings leave
// the field unset; "3" and "03" are both March.
func ParsePeriodFilter(month, year string) (PeriodFilter, error) {
	var (
		f PeriodFilter
		c collector
	)
	if m := strings.TrimSpace(month); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 || n > 12 {
			c.add("month", month, "Month must be between 01 and 12")
		} else {
			f.Month = n
		}
	}
	if y := strings.TrimSpace(year); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1 || n > 9999 {
			c.add("year", year, "Year must be a four digit year")
		} else {
			f.Year = n
		}
	}
	if err := c.result().Err(); err != nil {
		return PeriodFilter{}, err
	}
	return f, nil
}

// IsZero reports whether no field is set.
func (f PeriodFilter) IsZero() bool {
	return f.Month == 0 && f.Year == 0
}

// Matches reports whether d satisfies every set field of the filter.
func (f PeriodFilter) Matches(d Date) bool {
	if f.Year != 0 && d.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(d.Month()) != f.Month {
		return false
	}
	return true
}

// Key is a stable cache key for the filter.
func (f PeriodFilter) Key() string {
	return strconv.Itoa(f.Year) + "-" + strconv.Itoa(f.Month)
}

// MonthlyBreakdown groups txs by YYYY-MM. Output order is the order in which
// each month is first seen in txs; sort the input by date for chronological output.
// The input slice and its elements are not modified.
func MonthlyBreakdown(txs []Transaction) []MonthlyTotals {
	out := make([]MonthlyTotals, 0)
	index := make(map[string]int)
	for _, t := range txs {
		if t.Date.IsEmpty() {
			continue
		}
		key := t.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthlyTotals{
				Month:        key,
				TotalCredits: ZeroAmount(),
				TotalDebits:  ZeroAmount(),
				Balance:      ZeroAmount(),
				Transactions: []Transaction{},
			})
		}
		m := &out[i]
		m.Transactions = append(m.Transactions, t)
		switch t.Type {
		case Credit:
			m.TotalCredits = m.TotalCredits.Add(SafeAmount(t.Value))
		case Debit:
			m.TotalDebits = m.TotalDebits.Add(SafeAmount(t.Value))
		}
		m.Balance = m.TotalCredits.Sub(m.TotalDebits)
	}
	return out
}

// FilterByPeriod returns the transactions matching f, preserving order.
func FilterByPeriod(txs []Transaction, f PeriodFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Matches(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize narrows txs by f and totals the result. The totals always
// describe the filtered view.
func Summarize(txs []Transaction, f PeriodFilter) Summary {
	return Total(FilterByPeriod(txs, f))
}

// Total reduces txs to credits, debits and balance.
func Total(txs []Transaction) Summary {
	credits, debits := ZeroAmount(), ZeroAmount()
	for _, t := range txs {
		switch t.Type {
		case Credit:
			credits = credits.Add(SafeAmount(t.Value))
		case Debit:
			debits = debits.Add(SafeAmount(t.Value))
		}
	}
	return Summary{Credits: credits, Debits: debits, Balance: credits.Sub(debits)}
}
