package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"controle/internal/core"
)

const (
	summarySheet   = "Resumo"
	movementsSheet = "Movimentações"
)

var movementHeaders = []string{"Data", "Descrição", "Tipo", "Valor", "Tipo de Despesa", "Situação", "Meses"}

// WriteXLSX writes a workbook with a summary sheet and one row per movement.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	first, last := r.Filter.Period()
	summary := [][]any{
		{"Relatório Financeiro", ""},
		{"Período", first.BR() + " a " + last.BR()},
		{"Total de Receitas", r.Totals.Income.Float()},
		{"Total de Despesas", r.Totals.Expenses.Float()},
		{"Despesas Pendentes", r.Totals.Pending.Float()},
		{"Saldo", r.Balance().Float()},
		{"Movimentações", r.Totals.Count},
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A7", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	if err := setWidths(f, summarySheet, []colWidth{{"A", "A", 22}, {"B", "B", 28}}); err != nil {
		return err
	}

	index, err := f.NewSheet(movementsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	headers := make([]any, len(movementHeaders))
	for i, h := range movementHeaders {
		headers[i] = h
	}
	if err := setRow(f, movementsSheet, 1, headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(movementsSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("style headers: %w", err)
	}

	row := 2
	for _, group := range [][]core.Movement{r.Items, r.Pending} {
		for _, m := range group {
			values := []any{m.Date.BR(), m.Description, m.Kind.Label(), m.Amount.Float(), "", "", ""}
			if m.Kind == core.KindExpense {
				values[4] = m.ExpenseKind.Label()
				values[5] = m.Status.Label()
				values[6] = MonthsLabel(m)
			}
			if err := setRow(f, movementsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if err := setWidths(f, movementsSheet, []colWidth{{"A", "A", 12}, {"B", "B", 40}, {"C", "F", 16}, {"G", "G", 22}}); err != nil {
		return err
	}
	f.SetActiveSheet(index)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// setRow writes values into consecutive cells of row, starting at column A.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

type colWidth struct {
	from, to string
	width    float64
}

func setWidths(f *excelize.File, sheet string, widths []colWidth) error {
	for _, c := range widths {
		if err := f.SetColWidth(sheet, c.from, c.to, c.width); err != nil {
			return fmt.Errorf("width %s!%s:%s: %w", sheet, c.from, c.to, err)
		}
	}
	return nil
}
