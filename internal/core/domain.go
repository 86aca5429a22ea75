package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"

	ExpenseFixed    ExpenseKind = "fixed"
	ExpenseVariable ExpenseKind = "variable"

	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
)

// MaxDescriptionLen bounds the free-text label of a movement.
const MaxDescriptionLen = 200

const dateLayout = "2006-01-02"

type (
	Kind          string
	ExpenseKind   string
	PaymentStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Movement is a single income or expense entry owned by one user.
	Movement struct {
		ID          string
		OwnerID     string
		Kind        Kind
		Amount      Money
		Date        Date
		Description string
		ExpenseKind ExpenseKind   // expense only
		Months      Months        // fixed expenses only
		Status      PaymentStatus // expense only
		CreatedAt   time.Time
	}

	// User is the profile document written once at registration.
	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyDescription      = errors.New("empty description")
	ErrDescriptionTooLong    = errors.New("description too long (max 200 characters)")
	ErrInvalidKind           = errors.New("invalid movement kind")
	ErrInvalidExpenseKind    = errors.New("invalid expense kind")
	ErrInvalidStatus         = errors.New("invalid payment status")
	ErrUnexpectedExpenseAttr = errors.New("income movements carry no expense attributes")
	ErrVariableMustBePaid    = errors.New("variable expenses are always paid")
	ErrMissingOwner          = errors.New("missing owner")

	ErrNotFound   = errors.New("not found")
	ErrNotOwner   = errors.New("movement belongs to another user")
	ErrEmailTaken = errors.New("email already registered")
)

// ParseKind accepts the canonical values and the legacy Portuguese labels.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "receita":
		return KindIncome, nil
	case "expense", "despesa":
		return KindExpense, nil
	}
	return "", ErrInvalidKind
}

func ParseExpenseKind(s string) (ExpenseKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "fixa":
		return ExpenseFixed, nil
	case "variable", "variavel", "variável":
		return ExpenseVariable, nil
	}
	return "", ErrInvalidExpenseKind
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid", "pago":
		return StatusPaid, nil
	case "pending", "pendente":
		return StatusPending, nil
	}
	return "", ErrInvalidStatus
}

// Label returns the display name used across the UI and exports.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "Receita"
	case KindExpense:
		return "Despesa"
	}
	return string(k)
}

func (k ExpenseKind) Label() string {
	switch k {
	case ExpenseFixed:
		return "Fixa"
	case ExpenseVariable:
		return "Variável"
	}
	return string(k)
}

func (s PaymentStatus) Label() string {
	switch s {
	case StatusPaid:
		return "Pago"
	case StatusPending:
		return "Pendente"
	}
	return string(s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the YYYY-MM-DD wire form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the YYYY-MM-DD form, which sorts lexically.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthIndex returns the absolute month index of the date.
func (d Date) MonthIndex() int {
	return MonthIndex(d.Year(), int(d.Month()))
}

// FirstOfMonth returns the first day of the given month.
func FirstOfMonth(year, month int) Date {
	return NewDate(year, month, 1)
}

// LastOfMonth returns the last day of the given month (day 0 of the next one).
func LastOfMonth(year, month int) Date {
	return NewDate(year, month+1, 0)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize applies the expense rules: incomes carry no expense attributes,
// variable expenses are paid with no month span, fixed expenses default to pending.
func (m Movement) Normalize() Movement {
	switch m.Kind {
	case KindIncome:
		m.ExpenseKind = ""
		m.Status = ""
		m.Months = nil
	case KindExpense:
		switch m.ExpenseKind {
		case ExpenseVariable:
			m.Status = StatusPaid
			m.Months = nil
		case ExpenseFixed:
			if m.Status == "" {
				m.Status = StatusPending
			}
			m.Months = m.Months.Normalize()
		}
	}
	m.Description = strings.TrimSpace(m.Description)
	return m
}

func (m Movement) Validate() error {
	if err := m.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.Description) == "" {
		return ErrEmptyDescription
	}
	if len([]rune(m.Description)) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}

	switch m.Kind {
	case KindIncome:
		if m.ExpenseKind != "" || m.Status != "" || len(m.Months) > 0 {
			return ErrUnexpectedExpenseAttr
		}
	case KindExpense:
		switch m.ExpenseKind {
		case ExpenseFixed:
		case ExpenseVariable:
			if m.Status != StatusPaid {
				return ErrVariableMustBePaid
			}
			if len(m.Months) > 0 {
				return ErrInvalidExpenseKind
			}
		default:
			return ErrInvalidExpenseKind
		}
		if m.Status != StatusPaid && m.Status != StatusPending {
			return ErrInvalidStatus
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// IsPendingExpense reports whether the movement is an unpaid expense.
func (m Movement) IsPendingExpense() bool {
	return m.Kind == KindExpense && m.Status == StatusPending
}

// MovementPatch holds the editable subset of a movement. Nil fields are left untouched.
type MovementPatch struct {
	Description *string
	Amount      *Money
	ExpenseKind *ExpenseKind
	MonthCount  *int
	Status      *PaymentStatus
}

// Apply returns m with the patch applied. The kind is never changed.
func (p MovementPatch) Apply(m Movement) (Movement, error) {
	if m.Kind == KindIncome && (p.ExpenseKind != nil || p.Status != nil || p.MonthCount != nil) {
		return m, ErrUnexpectedExpenseAttr
	}

	out := m
	out.Months = append(Months(nil), m.Months...)
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.ExpenseKind != nil && *p.ExpenseKind != m.ExpenseKind {
		out.ExpenseKind = *p.ExpenseKind
		// switching kind resets the status to the kind's default
		out.Status = ""
		if out.ExpenseKind == ExpenseFixed && p.MonthCount == nil {
			out.Months = SpanFrom(out.Date, 1)
		}
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.MonthCount != nil && out.ExpenseKind == ExpenseFixed {
		out.Months = SpanFrom(out.Date, *p.MonthCount)
	}

	out = out.Normalize()
	if err := out.Validate(); err != nil {
		return m, err
	}
	return out, nil
}
