package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"controle/internal/core"
	"controle/internal/report"
)

func parserFor(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		key         string
		want        string
		wantJSON    bool
	}{
		{"form", "application/x-www-form-urlencoded", "description=Mercado&amount=10", "description", "Mercado", false},
		{"json string", "application/json", `{"description":"  Luz "}`, "description", "Luz", true},
		{"json number", "application/json", `{"amount":12.5}`, "amount", "12.5", true},
		{"control chars stripped", "application/x-www-form-urlencoded", "description=a%00b", "description", "ab", false},
		{"missing key", "application/x-www-form-urlencoded", "a=b", "description", "", false},
		{"empty body", "application/x-www-form-urlencoded", "", "description", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parserFor(t, tt.contentType, tt.body)
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON = %v", p.IsJSON())
			}
		})
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken`))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error")
	}
	if err := p.Parse(); err == nil {
		t.Fatal("second Parse should return the cached error")
	}
}

func fixedExpense() core.Movement {
	return core.Movement{
		ID:          "m1",
		OwnerID:     "u1",
		Kind:        core.KindExpense,
		Amount:      core.Money{Cents: 30000},
		Date:        core.NewDate(2024, 12, 2),
		Description: "Conta de Luz",
		ExpenseKind: core.ExpenseFixed,
		Months:      core.Months{core.MonthIndex(2024, 12)},
		Status:      core.StatusPending,
	}
}

func TestPatchFrom_OnlyChangedFields(t *testing.T) {
	orig := fixedExpense()
	p := parserFor(t, "application/x-www-form-urlencoded",
		"description=Conta+de+Luz&amount=300,00&expense_kind=fixed&status=paid&months=1")

	patch, err := patchFrom(p, orig)
	if err != nil {
		t.Fatal(err)
	}
	if patch.Description != nil || patch.Amount != nil || patch.ExpenseKind != nil || patch.MonthCount != nil {
		t.Fatalf("unchanged fields in patch: %+v", patch)
	}
	if patch.Status == nil || *patch.Status != core.StatusPaid {
		t.Fatalf("status not patched: %+v", patch)
	}

	updated, err := patch.Apply(orig)
	if err != nil {
		t.Fatal(err)
	}
	orig.Status = core.StatusPaid
	if updated.Description != orig.Description || updated.Amount != orig.Amount ||
		updated.Months.Label() != orig.Months.Label() || updated.Status != core.StatusPaid {
		t.Fatalf("round trip changed more than status: %+v", updated)
	}
}

func TestPatchFrom_SwitchToVariable(t *testing.T) {
	p := parserFor(t, "application/x-www-form-urlencoded", "expense_kind=variable&status=pending&months=3")
	patch, err := patchFrom(p, fixedExpense())
	if err != nil {
		t.Fatal(err)
	}
	if patch.ExpenseKind == nil || *patch.ExpenseKind != core.ExpenseVariable {
		t.Fatalf("expense kind not patched: %+v", patch)
	}
	if patch.Status != nil || patch.MonthCount != nil {
		t.Fatalf("variable expense should ignore status and months: %+v", patch)
	}
}

func variableExpense() core.Movement {
	return core.Movement{
		ID:          "m2",
		OwnerID:     "u1",
		Kind:        core.KindExpense,
		Amount:      core.Money{Cents: 4550},
		Date:        core.NewDate(2024, 12, 5),
		Description: "Mercado",
		ExpenseKind: core.ExpenseVariable,
		Status:      core.StatusPaid,
	}
}

func TestPatchFrom_SwitchToFixedDefaultsToPending(t *testing.T) {
	tests := []struct {
		name string
		body string
		want core.PaymentStatus
	}{
		{"stale paid status is ignored", "expense_kind=fixed&status=paid&months=1", core.StatusPending},
		{"shown pending default kept", "expense_kind=fixed&status_shown=1&status=pending&months=1", core.StatusPending},
		{"explicit paid after switch", "expense_kind=fixed&status_shown=1&status=paid&months=2", core.StatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := variableExpense()
			patch, err := patchFrom(parserFor(t, "application/x-www-form-urlencoded", tt.body), orig)
			if err != nil {
				t.Fatal(err)
			}
			if patch.ExpenseKind == nil || *patch.ExpenseKind != core.ExpenseFixed {
				t.Fatalf("expense kind not patched: %+v", patch)
			}
			updated, err := patch.Apply(orig)
			if err != nil {
				t.Fatal(err)
			}
			if updated.Status != tt.want {
				t.Fatalf("status after switch to fixed = %q, want %q", updated.Status, tt.want)
			}
			if len(updated.Months) == 0 {
				t.Fatal("fixed expense without months")
			}
		})
	}
}

func TestPatchFrom_FixedStatusUnchanged(t *testing.T) {
	p := parserFor(t, "application/x-www-form-urlencoded", "expense_kind=fixed&status_shown=1&status=pending&months=1")
	patch, err := patchFrom(p, fixedExpense())
	if err != nil {
		t.Fatal(err)
	}
	if patch.Status != nil || patch.ExpenseKind != nil {
		t.Fatalf("nothing changed but patch is %+v", patch)
	}
}

func TestPatchFrom_Errors(t *testing.T) {
	for name, body := range map[string]string{
		"blank description": "description=",
		"blank amount":      "amount=",
		"bad amount":        "amount=abc",
		"bad expense kind":  "expense_kind=weird",
	} {
		t.Run(name, func(t *testing.T) {
			p := parserFor(t, "application/x-www-form-urlencoded", body)
			if _, err := patchFrom(p, fixedExpense()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPatchFrom_IncomeIgnoresExpenseFields(t *testing.T) {
	income := core.Movement{ID: "i", OwnerID: "u1", Kind: core.KindIncome, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 12, 1), Description: "Salário"}
	p := parserFor(t, "application/x-www-form-urlencoded", "description=Bônus&expense_kind=fixed&status=paid")
	patch, err := patchFrom(p, income)
	if err != nil {
		t.Fatal(err)
	}
	if patch.ExpenseKind != nil || patch.Status != nil {
		t.Fatalf("expense fields on income: %+v", patch)
	}
	if patch.Description == nil || *patch.Description != "Bônus" {
		t.Fatalf("description not patched")
	}
}

func TestFilterFromAndQuery(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f := filterFrom(url.Values{"tipo": {"despesa"}, "situacao": {"pendente"}, "mes": {"12"}, "ano": {"2024"}}, now)
	want := report.Filter{Type: report.TypeExpense, Status: report.StatusPending, Month: 12, Year: 2024}
	if f != want {
		t.Fatalf("filter = %+v, want %+v", f, want)
	}

	q, _ := url.ParseQuery(filterQuery(f))
	if back := filterFrom(q, now); back != f {
		t.Fatalf("query round trip = %+v", back)
	}

	if got := filterFrom(url.Values{"mes": {"13"}}, now); got.Month != 3 || got.Year != 2025 {
		t.Fatalf("invalid month should fall back to now: %+v", got)
	}
}

func TestDraftFrom(t *testing.T) {
	d := draftFrom(url.Values{"kind": {"expense"}, "amount": {"10"}, "date": {"2024-12-01"}, "description": {" x "}, "expense_kind": {"fixed"}, "months": {"3"}})
	if d.Kind != "expense" || d.Description != "x" || d.Months != "3" || d.ExpenseKind != "fixed" {
		t.Fatalf("unexpected draft %+v", d)
	}
}
