// Package sheets mirrors movements into a spreadsheet for owners who keep
// working from a shared sheet. The store stays the source of truth.
package sheets

import (
	"context"

	"controle/internal/core"
)

// MovementMirror receives movements after they change in the store.
type MovementMirror interface {
	// Upsert writes the movement row, replacing any row with the same id.
	Upsert(ctx context.Context, m core.Movement) error
	// Remove deletes the row of id. Missing rows are not an error.
	Remove(ctx context.Context, id string) error
}

// Header is the first row of a mirrored sheet.
var Header = []string{"ID", "Dono", "Data", "Tipo", "Descrição", "Valor", "Tipo de Despesa", "Situação", "Meses"}

// Row renders m in Header order.
func Row(m core.Movement) []string {
	expenseKind, months := "", ""
	if m.Kind == core.KindExpense {
		expenseKind = m.ExpenseKind.Label()
		months = m.Months.Label()
	}
	return []string{
		m.ID,
		m.OwnerID,
		m.Date.String(),
		m.Kind.Label(),
		m.Description,
		m.Amount.String(),
		expenseKind,
		m.Status.Label(),
		months,
	}
}
