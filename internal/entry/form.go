// Package entry models the movement entry form as a small state machine.
//
// The form has three coupled controls: the movement kind, the expense kind and
// the payment status. Every user change is an event applied through a fixed
// transition table, so the dependent rules (variable expenses are paid, fixed
// expenses start pending) live in one place instead of in view callbacks.
package entry

import (
	"errors"
	"fmt"

	"controle/internal/core"
)

// Field names a form control that can emit a change event.
type Field string

const (
	FieldKind        Field = "kind"
	FieldExpenseKind Field = "expense_kind"
	FieldStatus      Field = "status"
)

var ErrTransition = errors.New("transition not allowed")

// State is the current selection of the coupled controls.
type State struct {
	Kind        core.Kind
	ExpenseKind core.ExpenseKind
	Status      core.PaymentStatus
}

// Visibility tells the view which conditional controls to render.
type Visibility struct {
	ExpenseKind bool
	Status      bool
	Months      bool
}

type event struct {
	field Field
	value string
}

type guard func(State) bool

type transition struct {
	allowed guard
	apply   func(State) State
}

func always(State) bool { return true }

func isExpense(s State) bool { return s.Kind == core.KindExpense }

func isFixed(s State) bool {
	return s.Kind == core.KindExpense && s.ExpenseKind == core.ExpenseFixed
}

var transitions = map[event]transition{
	{FieldKind, string(core.KindIncome)}: {always, func(State) State {
		return State{Kind: core.KindIncome}
	}},
	{FieldKind, string(core.KindExpense)}: {always, func(s State) State {
		if s.Kind == core.KindExpense {
			return s
		}
		return State{Kind: core.KindExpense}
	}},
	{FieldExpenseKind, ""}: {isExpense, func(s State) State {
		s.ExpenseKind = ""
		s.Status = ""
		return s
	}},
	{FieldExpenseKind, string(core.ExpenseVariable)}: {isExpense, func(s State) State {
		s.ExpenseKind = core.ExpenseVariable
		s.Status = core.StatusPaid
		return s
	}},
	{FieldExpenseKind, string(core.ExpenseFixed)}: {isExpense, func(s State) State {
		if s.ExpenseKind != core.ExpenseFixed {
			s.Status = core.StatusPending
		}
		s.ExpenseKind = core.ExpenseFixed
		return s
	}},
	{FieldStatus, string(core.StatusPaid)}: {isFixed, func(s State) State {
		s.Status = core.StatusPaid
		return s
	}},
	{FieldStatus, string(core.StatusPending)}: {isFixed, func(s State) State {
		s.Status = core.StatusPending
		return s
	}},
}

// New returns the initial form state: an expense with nothing else chosen.
func New() State {
	return State{Kind: core.KindExpense}
}

// Apply runs one change event through the transition table.
func (s State) Apply(field Field, value string) (State, error) {
	t, ok := transitions[event{field, canonical(field, value)}]
	if !ok {
		return s, fmt.Errorf("%w: unknown %s value %q", ErrTransition, field, value)
	}
	if !t.allowed(s) {
		return s, fmt.Errorf("%w: %s=%q in state %+v", ErrTransition, field, value, s)
	}
	return t.apply(s), nil
}

// Visibility derives which conditional controls are shown.
func (s State) Visibility() Visibility {
	return Visibility{
		ExpenseKind: s.Kind == core.KindExpense,
		Status:      isFixed(s),
		Months:      isFixed(s),
	}
}

// Resolve rebuilds the state from submitted form values. changed names the
// control that triggered the request; a submitted status is only honored when
// the expense kind was not the control that just changed, so picking "fixed"
// always lands on pending.
func Resolve(kind, expenseKind, status string, changed Field) State {
	s := New()
	if next, err := s.Apply(FieldKind, kind); err == nil {
		s = next
	}
	if next, err := s.Apply(FieldExpenseKind, expenseKind); err == nil {
		s = next
	}
	if changed != FieldExpenseKind && changed != FieldKind && status != "" {
		if next, err := s.Apply(FieldStatus, status); err == nil {
			s = next
		}
	}
	return s
}

// canonical maps legacy labels onto the canonical enum values.
func canonical(field Field, value string) string {
	switch field {
	case FieldKind:
		if k, err := core.ParseKind(value); err == nil {
			return string(k)
		}
	case FieldExpenseKind:
		if value == "" {
			return ""
		}
		if k, err := core.ParseExpenseKind(value); err == nil {
			return string(k)
		}
	case FieldStatus:
		if st, err := core.ParsePaymentStatus(value); err == nil {
			return string(st)
		}
	}
	return value
}
