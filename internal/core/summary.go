package core

// Summary aggregates a user's movements for the dashboard and profile views.
type Summary struct {
	Income        Money
	Expenses      Money
	Pending       Money // pending expenses only
	FixedCount    int
	VariableCount int
	Count         int
}

// Balance is income minus all expenses, paid or not.
func (s Summary) Balance() Money {
	return Money{Cents: s.Income.Cents - s.Expenses.Cents}
}

// Add folds one movement into the summary. Movements with a non-positive
// amount or an unknown kind are rejected and leave the summary untouched.
func (s *Summary) Add(m Movement) error {
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	switch m.Kind {
	case KindIncome:
		s.Income.Cents += m.Amount.Cents
	case KindExpense:
		s.Expenses.Cents += m.Amount.Cents
		switch m.ExpenseKind {
		case ExpenseFixed:
			s.FixedCount++
		case ExpenseVariable:
			s.VariableCount++
		}
		if m.Status == StatusPending {
			s.Pending.Cents += m.Amount.Cents
		}
	default:
		return ErrInvalidKind
	}
	s.Count++
	return nil
}
