package http

import (
	"html/template"
	"net/http"
	"time"

	"controle/internal/auth"
	"controle/internal/core"
	"controle/internal/entry"
	"controle/internal/report"
)

// page is the data every full page hands to the layout.
type page struct {
	Title    string
	Active   string
	Session  auth.Session
	LoggedIn bool
	NotifyMs int64
	Flash    string
	Data     any
}

func (s *Server) newPage(r *http.Request, title, active string, data any) page {
	sess, ok := auth.SessionFromContext(r.Context())
	return page{
		Title:    title,
		Active:   active,
		Session:  sess,
		LoggedIn: ok,
		NotifyMs: s.notificationDelay.Milliseconds(),
		Data:     data,
	}
}

// movementRow is one line of the listing with its display columns.
type movementRow struct {
	ID          string
	Date        string
	Description string
	Kind        string
	KindClass   string
	Amount      string
	ExpenseKind string
	Status      string
	Months      string
	Pending     bool
}

func rowFor(m core.Movement) movementRow {
	row := movementRow{
		ID:          m.ID,
		Date:        m.Date.BR(),
		Description: m.Description,
		Kind:        m.Kind.Label(),
		KindClass:   string(m.Kind),
		Amount:      m.Amount.BRL(),
		ExpenseKind: "-",
		Status:      "-",
		Months:      report.MonthsLabel(m),
		Pending:     m.IsPendingExpense(),
	}
	if m.Kind == core.KindExpense {
		row.ExpenseKind = m.ExpenseKind.Label()
		row.Status = m.Status.Label()
	}
	return row
}

func rowsFor(ms []core.Movement) []movementRow {
	rows := make([]movementRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, rowFor(m))
	}
	return rows
}

// fieldsView drives the conditional part of the entry form.
type fieldsView struct {
	State entry.State
	Show  entry.Visibility
	Draft entry.Draft
}

func newFieldsView(state entry.State, d entry.Draft) fieldsView {
	d.Kind = string(state.Kind)
	d.ExpenseKind = string(state.ExpenseKind)
	d.Status = string(state.Status)
	if d.Months == "" {
		d.Months = "1"
	}
	return fieldsView{State: state, Show: state.Visibility(), Draft: d}
}

// entryView is the whole entry form.
type entryView struct {
	Fields fieldsView
	Error  string
	Today  string
}

func newEntryView(d entry.Draft, state entry.State, errMsg string, now time.Time) entryView {
	if d.Date == "" {
		d.Date = core.Date{Time: now}.String()
	}
	return entryView{Fields: newFieldsView(state, d), Error: errMsg, Today: d.Date}
}

// editView fills the edit modal.
type editView struct {
	Row       movementRow
	Movement  core.Movement
	IsExpense bool
	Fields    editFieldsView
	Error     string
}

func newEditView(m core.Movement, errMsg string) editView {
	state := entry.State{Kind: m.Kind, ExpenseKind: m.ExpenseKind, Status: m.Status}
	return editView{
		Row:       rowFor(m),
		Movement:  m,
		IsExpense: m.Kind == core.KindExpense,
		Fields:    newEditFieldsView(m, state, len(m.Months)),
		Error:     errMsg,
	}
}

// editFieldsView drives the expense controls of the edit modal. It follows
// the same visibility rules as the entry form.
type editFieldsView struct {
	ID          string
	ExpenseKind string
	Status      string
	MonthCount  int
	Show        entry.Visibility
}

func newEditFieldsView(m core.Movement, state entry.State, months int) editFieldsView {
	if months < 1 {
		months = 1
	}
	return editFieldsView{
		ID:          m.ID,
		ExpenseKind: string(state.ExpenseKind),
		Status:      string(state.Status),
		MonthCount:  months,
		Show:        state.Visibility(),
	}
}

// summaryView feeds the dashboard cards and the profile page.
type summaryView struct {
	Summary core.Summary
	Balance core.Money
	Error   string
}

func newSummaryView(sum core.Summary) summaryView {
	return summaryView{Summary: sum, Balance: sum.Balance()}
}

type profileView struct {
	Name        string
	Email       string
	MemberSince string
	Summary     summaryView
}

type monthOption struct {
	Value    int
	Name     string
	Selected bool
}

// reportView is the filter form plus the rendered report.
type reportView struct {
	Report report.Report
	Query  template.URL
	Months []monthOption
	Years  []int
	Error  string
	Rows   []movementRow
	Pend   []movementRow
}

func newReportView(rep report.Report, now time.Time) reportView {
	v := reportView{
		Report: rep,
		Query:  template.URL(filterQuery(rep.Filter)),
		Rows:   rowsFor(rep.Items),
		Pend:   rowsFor(rep.Pending),
	}
	for i, name := range report.MonthOptions() {
		v.Months = append(v.Months, monthOption{Value: i + 1, Name: name, Selected: i+1 == rep.Filter.Month})
	}
	for y := now.Year() + 1; y >= now.Year()-5; y-- {
		v.Years = append(v.Years, y)
	}
	return v
}
