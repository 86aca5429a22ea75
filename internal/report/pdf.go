package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"controle/internal/core"
)

const (
	pageBreakY = 265.0
	topMargin  = 15.0
	leftMargin = 10.0
	rightEdge  = 200.0
	lineStep   = 6.0
)

// WritePDF renders the report as an A4 document.
func WritePDF(w io.Writer, r Report) error {
	pdf, err := renderPDF(r)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
	// cont is reprinted at the top of every page the current section spills onto.
	cont string
}

func renderPDF(r Report) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(leftMargin, topMargin, leftMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Relatório Financeiro", true)
	pdf.AddPage()

	d := &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), y: topMargin}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(leftMargin, d.y)
	pdf.CellFormat(rightEdge-leftMargin, 8, d.tr("Relatório Financeiro"), "", 0, "C", false, 0, "")
	d.y += 12

	first, last := r.Filter.Period()
	d.text(11, "", fmt.Sprintf("Período: %s a %s", first.BR(), last.BR()))
	d.y += 2

	d.text(12, "B", "Resumo")
	d.text(11, "", "Total de Receitas: "+r.Totals.Income.BRL())
	d.text(11, "", "Total de Despesas: "+r.Totals.Expenses.BRL())
	d.text(11, "", "Despesas Pendentes: "+r.Totals.Pending.BRL())
	d.text(11, "B", "Saldo: "+r.Balance().BRL())
	d.rule()

	if r.Empty() {
		d.text(11, "I", "Nenhuma movimentação encontrada para o período selecionado.")
		return pdf, pdf.Error()
	}

	d.text(13, "B", "Movimentações")
	d.cont = "Relatório Financeiro (continuação)"
	for i, m := range r.Items {
		d.movement(i+1, m)
	}

	if len(r.Pending) > 0 {
		d.cont = ""
		d.y += 4
		d.text(13, "B", "Despesas Pendentes")
		d.cont = "Despesas Pendentes (continuação)"
		for i, m := range r.Pending {
			d.movement(i+1, m)
		}
	}

	return pdf, pdf.Error()
}

// breakIfNeeded starts a new page once the cursor passes the threshold.
func (d *pdfDoc) breakIfNeeded() {
	if d.y <= pageBreakY {
		return
	}
	d.pdf.AddPage()
	d.y = topMargin
	if d.cont != "" {
		d.draw(13, "B", d.cont)
	}
}

func (d *pdfDoc) movement(n int, m core.Movement) {
	d.text(11, "B", fmt.Sprintf("Movimentação %d", n))
	d.text(10, "", "Descrição: "+m.Description)
	d.text(10, "", "Valor: "+m.Amount.BRL())
	d.text(10, "", "Data: "+m.Date.BR())
	d.text(10, "", "Tipo: "+m.Kind.Label())
	if m.Kind == core.KindExpense {
		d.text(10, "", "Situação: "+m.Status.Label())
		d.text(10, "", "Tipo de Despesa: "+m.ExpenseKind.Label())
		if m.ExpenseKind == core.ExpenseFixed {
			d.text(10, "", "Meses: "+MonthsLabel(m))
		}
	}
	d.rule()
}

func (d *pdfDoc) text(size float64, style, s string) {
	d.breakIfNeeded()
	d.draw(size, style, s)
}

func (d *pdfDoc) draw(size float64, style, s string) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.Text(leftMargin, d.y, d.tr(s))
	d.y += lineStep
}

func (d *pdfDoc) rule() {
	d.pdf.SetLineWidth(0.3)
	d.pdf.Line(leftMargin, d.y-3, rightEdge, d.y-3)
	d.y += 2
}
