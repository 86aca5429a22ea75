package entry

import (
	"errors"
	"strconv"
	"strings"

	"controle/internal/core"
)

// User-facing messages of the entry form.
const (
	MsgMissingFields = "Todos os campos são obrigatórios."
	MsgSaveFailed    = "Erro ao registrar movimentação."
	MsgSaved         = "Movimentação registrada com sucesso!"
)

// ErrMissingFields is returned when a required field is blank. Nothing is written.
var ErrMissingFields = errors.New(MsgMissingFields)

// Draft holds the raw values typed into the entry form.
type Draft struct {
	Kind        string
	Amount      string
	Date        string
	Description string
	ExpenseKind string
	Status      string
	Months      string
}

// Build validates the draft and returns an owner-stamped movement ready to store.
// Months default to one for fixed expenses.
func (d Draft) Build(ownerID string) (core.Movement, error) {
	if strings.TrimSpace(ownerID) == "" {
		return core.Movement{}, core.ErrMissingOwner
	}
	if strings.TrimSpace(d.Amount) == "" || strings.TrimSpace(d.Date) == "" || strings.TrimSpace(d.Description) == "" {
		return core.Movement{}, ErrMissingFields
	}

	kind, err := core.ParseKind(d.Kind)
	if err != nil {
		return core.Movement{}, err
	}
	state := Resolve(string(kind), d.ExpenseKind, d.Status, FieldStatus)
	if kind == core.KindExpense && state.ExpenseKind == "" {
		return core.Movement{}, ErrMissingFields
	}

	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.Movement{}, err
	}
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Movement{}, err
	}

	m := core.Movement{
		OwnerID:     ownerID,
		Kind:        state.Kind,
		Amount:      amount,
		Date:        date,
		Description: d.Description,
		ExpenseKind: state.ExpenseKind,
		Status:      state.Status,
	}
	if state.ExpenseKind == core.ExpenseFixed {
		m.Months = core.SpanFrom(date, ParseMonthCount(d.Months))
	}

	m = m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	return m, nil
}

// ParseMonthCount reads the months input, defaulting to one.
func ParseMonthCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > core.MaxMonthSpan {
		return core.MaxMonthSpan
	}
	return n
}
