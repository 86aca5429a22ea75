package report

import (
	"math"

	"controle/internal/core"
	"controle/internal/log"
)

// NotDefined is shown when a fixed expense carries no usable month span.
const NotDefined = "Não definido"

// Bar is one column of the income vs expenses chart.
type Bar struct {
	Label   string
	Amount  core.Money
	Percent float64
	Class   string
}

// Report is the filtered view of one month.
type Report struct {
	Filter  Filter
	Items   []core.Movement // everything except pending expenses
	Pending []core.Movement
	Totals  core.Summary
	Bars    []Bar
	Skipped int
}

// Build filters ms and aggregates the result. Movements that cannot be
// summed are dropped with a warning.
func Build(f Filter, ms []core.Movement, logger *log.Logger) Report {
	if logger == nil {
		logger = log.Nop()
	}
	r := Report{Filter: f}
	for _, m := range f.Apply(ms) {
		if err := r.Totals.Add(m); err != nil {
			logger.Warn("Skipping movement in report",
				log.FieldMovementID, m.ID,
				log.FieldError, err)
			r.Skipped++
			continue
		}
		if m.IsPendingExpense() {
			r.Pending = append(r.Pending, m)
		} else {
			r.Items = append(r.Items, m)
		}
	}
	r.Bars = bars(r.Totals)
	return r
}

func (r Report) Empty() bool {
	return len(r.Items) == 0 && len(r.Pending) == 0
}

func (r Report) Balance() core.Money {
	return r.Totals.Balance()
}

func bars(s core.Summary) []Bar {
	top := s.Income.Cents
	if s.Expenses.Cents > top {
		top = s.Expenses.Cents
	}
	pct := func(c int64) float64 {
		if top <= 0 {
			return 0
		}
		return math.Round(float64(c)*1000/float64(top)) / 10
	}
	return []Bar{
		{Label: "Receitas", Amount: s.Income, Percent: pct(s.Income.Cents), Class: "income"},
		{Label: "Despesas", Amount: s.Expenses, Percent: pct(s.Expenses.Cents), Class: "expense"},
	}
}

// MonthsLabel renders the span of a fixed expense, or NotDefined.
func MonthsLabel(m core.Movement) string {
	if m.Kind != core.KindExpense || m.ExpenseKind != core.ExpenseFixed {
		return "-"
	}
	if l := m.Months.Label(); l != "" {
		return l
	}
	return NotDefined
}
