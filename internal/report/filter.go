// Package report filters a user's movements for one month and renders the
// result as chart data, PDF and XLSX.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"controle/internal/core"
)

type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"
)

type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusPaid    StatusFilter = "paid"
	StatusPending StatusFilter = "pending"
)

// Filter selects the movements of one calendar month.
type Filter struct {
	Type   TypeFilter
	Status StatusFilter
	Month  int
	Year   int
}

// ParseFilter reads raw form values. Unknown type or status means all; an
// invalid month or year falls back to the one of now.
func ParseFilter(typ, status, month, year string, now time.Time) Filter {
	f := Filter{Type: TypeAll, Status: StatusAll, Month: int(now.Month()), Year: now.Year()}

	if k, err := core.ParseKind(typ); err == nil {
		f.Type = TypeFilter(k)
	}
	if s, err := core.ParsePaymentStatus(status); err == nil {
		f.Status = StatusFilter(s)
	}
	if m, err := strconv.Atoi(strings.TrimSpace(month)); err == nil && m >= 1 && m <= 12 {
		f.Month = m
	}
	if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil && y >= 1900 && y <= 9999 {
		f.Year = y
	}
	return f
}

// Kind is the movement kind the filter restricts to, or "" for all.
func (f Filter) Kind() core.Kind {
	switch f.Type {
	case TypeIncome:
		return core.KindIncome
	case TypeExpense:
		return core.KindExpense
	}
	return ""
}

// Range is the half-open date window [first of month, first of next month).
func (f Filter) Range() (from, to core.Date) {
	return core.FirstOfMonth(f.Year, f.Month), core.FirstOfMonth(f.Year, f.Month+1)
}

// Period returns the first and last calendar day of the month.
func (f Filter) Period() (first, last core.Date) {
	return core.FirstOfMonth(f.Year, f.Month), core.LastOfMonth(f.Year, f.Month)
}

// Apply keeps the movements matching every predicate. Applying the same
// filter twice yields the same set.
func (f Filter) Apply(ms []core.Movement) []core.Movement {
	out := make([]core.Movement, 0, len(ms))
	for _, m := range ms {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (f Filter) Match(m core.Movement) bool {
	if k := f.Kind(); k != "" && m.Kind != k {
		return false
	}
	if f.Status != StatusAll && f.Status != "" &&
		!strings.EqualFold(strings.TrimSpace(string(m.Status)), string(f.Status)) {
		return false
	}
	if m.Date.IsZero() {
		return false
	}
	return m.Date.Year() == f.Year && int(m.Date.Month()) == f.Month
}

// FileName is the download name for the given extension, e.g. "pdf".
func (f Filter) FileName(ext string) string {
	return fmt.Sprintf("relatorio_financeiro_%04d_%02d.%s", f.Year, f.Month, ext)
}

// MonthName is the Portuguese name of the filtered month.
func (f Filter) MonthName() string {
	if f.Month < 1 || f.Month > 12 {
		return ""
	}
	return monthNames[f.Month-1]
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthOptions lists the months for the filter form.
func MonthOptions() []string {
	return monthNames[:]
}
