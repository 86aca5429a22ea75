package core

import (
	"fmt"
	"sort"
)

// Months is the span of a fixed expense, stored as absolute month indices
// (year*12 + month-1). The list is kept sorted and free of duplicates.
type Months []int

// MaxMonthSpan caps how many months a single fixed expense may cover.
const MaxMonthSpan = 120

// MonthIndex returns the absolute index of a calendar month.
func MonthIndex(year, month int) int {
	return year*12 + month - 1
}

// MonthFromIndex decodes an absolute index into year and month (1-12).
func MonthFromIndex(i int) (year, month int) {
	year = i / 12
	month = i%12 + 1
	if month <= 0 {
		year--
		month += 12
	}
	return year, month
}

// SpanFrom returns count consecutive months starting at the month of start.
// A count below one yields a single month.
func SpanFrom(start Date, count int) Months {
	if start.IsZero() {
		return nil
	}
	if count < 1 {
		count = 1
	}
	if count > MaxMonthSpan {
		count = MaxMonthSpan
	}
	first := start.MonthIndex()
	out := make(Months, count)
	for i := range out {
		out[i] = first + i
	}
	return out
}

// Normalize sorts the indices and drops duplicates and negatives.
func (m Months) Normalize() Months {
	if len(m) == 0 {
		return nil
	}
	out := make(Months, 0, len(m))
	for _, i := range m {
		if i >= 0 {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	uniq := out[:0]
	for i, v := range out {
		if i > 0 && v == out[i-1] {
			continue
		}
		uniq = append(uniq, v)
	}
	if len(uniq) == 0 {
		return nil
	}
	return uniq
}

// Bounds returns the earliest and latest index.
func (m Months) Bounds() (first, last int, ok bool) {
	n := m.Normalize()
	if len(n) == 0 {
		return 0, 0, false
	}
	return n[0], n[len(n)-1], true
}

// Contains reports whether the span covers the given calendar month.
func (m Months) Contains(year, month int) bool {
	idx := MonthIndex(year, month)
	for _, i := range m {
		if i == idx {
			return true
		}
	}
	return false
}

// Label renders the span as "MM/YYYY a MM/YYYY", or "" when undefined.
func (m Months) Label() string {
	first, last, ok := m.Bounds()
	if !ok {
		return ""
	}
	fy, fm := MonthFromIndex(first)
	if first == last {
		return fmt.Sprintf("%02d/%04d", fm, fy)
	}
	ly, lm := MonthFromIndex(last)
	return fmt.Sprintf("%02d/%04d a %02d/%04d", fm, fy, lm, ly)
}
