package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"controle/internal/core"
)

var now = time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)

func movements() []core.Movement {
	return []core.Movement{
		{ID: "1", Kind: core.KindIncome, Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 12, 1), Description: "Salário"},
		{ID: "2", Kind: core.KindExpense, Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 12, 2), Description: "Conta de Luz",
			ExpenseKind: core.ExpenseFixed, Status: core.StatusPaid, Months: core.SpanFrom(core.NewDate(2024, 12, 2), 3)},
		{ID: "3", Kind: core.KindExpense, Amount: core.Money{Cents: 12000}, Date: core.NewDate(2024, 12, 10), Description: "Internet",
			ExpenseKind: core.ExpenseFixed, Status: core.StatusPending},
		{ID: "4", Kind: core.KindExpense, Amount: core.Money{Cents: 4550}, Date: core.NewDate(2025, 1, 3), Description: "Mercado",
			ExpenseKind: core.ExpenseVariable, Status: core.StatusPaid},
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name                     string
		typ, status, month, year string
		want                     Filter
	}{
		{"defaults", "", "", "", "", Filter{TypeAll, StatusAll, 12, 2024}},
		{"explicit", "expense", "pending", "3", "2023", Filter{TypeExpense, StatusPending, 3, 2023}},
		{"portuguese labels", "receita", "Pago", "1", "2025", Filter{TypeIncome, StatusPaid, 1, 2025}},
		{"invalid month falls back", "all", "all", "13", "2024", Filter{TypeAll, StatusAll, 12, 2024}},
		{"garbage", "x", "y", "abc", "-1", Filter{TypeAll, StatusAll, 12, 2024}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilter(tt.typ, tt.status, tt.month, tt.year, now))
		})
	}
}

func TestFilterRangeAndPeriod(t *testing.T) {
	f := Filter{Month: 12, Year: 2024}
	from, to := f.Range()
	assert.Equal(t, "2024-12-01", from.String())
	assert.Equal(t, "2025-01-01", to.String())

	first, last := Filter{Month: 2, Year: 2024}.Period()
	assert.Equal(t, "2024-02-01", first.String())
	assert.Equal(t, "2024-02-29", last.String())

	assert.Equal(t, "relatorio_financeiro_2024_12.pdf", f.FileName("pdf"))
	assert.Equal(t, "Dezembro", f.MonthName())
}

func TestFilterApply(t *testing.T) {
	ms := movements()

	dec := Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}
	got := dec.Apply(ms)
	assert.Len(t, got, 3)
	assert.Equal(t, got, dec.Apply(got), "filtering is idempotent")

	pending := Filter{Type: TypeExpense, Status: StatusPending, Month: 12, Year: 2024}
	got = pending.Apply(ms)
	require.Len(t, got, 1)
	assert.Equal(t, "Internet", got[0].Description)

	paid := Filter{Type: TypeAll, Status: StatusPaid, Month: 12, Year: 2024}
	got = paid.Apply(ms)
	require.Len(t, got, 1, "incomes carry no status")
	assert.Equal(t, "Conta de Luz", got[0].Description)
}

func TestBuild(t *testing.T) {
	ms := append(movements(), core.Movement{ID: "bad", Kind: core.KindIncome, Date: core.NewDate(2024, 12, 5)})

	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}, ms, nil)
	assert.False(t, r.Empty())
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, int64(100000), r.Totals.Income.Cents)
	assert.Equal(t, int64(42000), r.Totals.Expenses.Cents)
	assert.Equal(t, int64(12000), r.Totals.Pending.Cents)
	assert.Equal(t, int64(58000), r.Balance().Cents)
	assert.Len(t, r.Items, 2)
	require.Len(t, r.Pending, 1)
	assert.Equal(t, "Internet", r.Pending[0].Description)

	require.Len(t, r.Bars, 2)
	assert.Equal(t, 100.0, r.Bars[0].Percent)
	assert.Equal(t, 42.0, r.Bars[1].Percent)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 6, Year: 2020}, movements(), nil)
	assert.True(t, r.Empty())
	assert.Equal(t, 0.0, r.Bars[0].Percent)
	assert.Equal(t, 0.0, r.Bars[1].Percent)
}

func TestMonthsLabel(t *testing.T) {
	ms := movements()
	assert.Equal(t, "-", MonthsLabel(ms[0]))
	assert.Equal(t, "12/2024 a 02/2025", MonthsLabel(ms[1]))
	assert.Equal(t, NotDefined, MonthsLabel(ms[2]))
	assert.Equal(t, "-", MonthsLabel(ms[3]))
}

func TestWritePDF(t *testing.T) {
	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}, movements(), nil)

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, r))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	pdf, err := renderPDF(r)
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())
}

func TestPDFPaginates(t *testing.T) {
	var ms []core.Movement
	for i := 0; i < 30; i++ {
		ms = append(ms, core.Movement{
			ID: fmt.Sprint(i), Kind: core.KindExpense, Amount: core.Money{Cents: 1000},
			Date: core.NewDate(2024, 12, 1+i%28), Description: fmt.Sprintf("Despesa %d", i),
			ExpenseKind: core.ExpenseFixed, Status: []core.PaymentStatus{core.StatusPaid, core.StatusPending}[i%2],
		})
	}
	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}, ms, nil)
	pdf, err := renderPDF(r)
	require.NoError(t, err)
	assert.Greater(t, pdf.PageCount(), 3)
}

func TestPDFRepeatsPendingHeaderOnEveryPage(t *testing.T) {
	var ms []core.Movement
	for i := 0; i < 40; i++ {
		ms = append(ms, core.Movement{
			ID: fmt.Sprint(i), Kind: core.KindExpense, Amount: core.Money{Cents: 1000},
			Date: core.NewDate(2024, 12, 1+i%28), Description: fmt.Sprintf("Pendente %d", i),
			ExpenseKind: core.ExpenseFixed, Status: core.StatusPending,
		})
	}
	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}, ms, nil)
	require.Len(t, r.Pending, 40)
	require.Empty(t, r.Items)

	pdf, err := renderPDF(r)
	require.NoError(t, err)
	pdf.SetCompression(false)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	pages := pdf.PageCount()
	require.Greater(t, pages, 1)
	// text operands are cp1252 with escaped parentheses
	header := []byte("(Despesas Pendentes \\(continua\xe7\xe3o\\))")
	assert.Equal(t, pages-1, bytes.Count(buf.Bytes(), header))
	assert.NotContains(t, buf.String(), "Financeiro \\(continua")
}

func TestWritePDFEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Build(Filter{Month: 1, Year: 2000}, nil, nil)))
	assert.NotZero(t, buf.Len())
}

func TestWriteXLSX(t *testing.T) {
	r := Build(Filter{Type: TypeAll, Status: StatusAll, Month: 12, Year: 2024}, movements(), nil)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(movementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, movementHeaders, rows[0])
	assert.Equal(t, "Internet", rows[3][1], "pending expenses come last")
	assert.Equal(t, "Pendente", rows[3][5])

	saldo, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "580", saldo)
}

func TestXLSXHelpersReportErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, setRow(f, "Sheet1", 1, []any{"a", 1.5}))
	v, err := f.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "1.5", v)

	assert.Error(t, setRow(f, "Ausente", 1, []any{"a"}), "unknown sheet")
	assert.Error(t, setRow(f, "Sheet1", 0, []any{"a"}), "row zero")
	assert.Error(t, setWidths(f, "Sheet1", []colWidth{{"A", "A", 300}}), "width above the excel limit")
}
