// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// a body parser that accepts JSON and form-encoded payloads, plus the
// mappings from request values to entry drafts, patches and report filters.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"controle/internal/core"
	"controle/internal/entry"
	"controle/internal/report"
)

// maxBodyBytes bounds request bodies; movement payloads are tiny.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and stores it for parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitised value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was submitted at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// Getter is satisfied by url.Values and RequestBodyParser.
type Getter interface {
	Get(key string) string
}

// draftFrom reads the entry form fields.
func draftFrom(v Getter) entry.Draft {
	return entry.Draft{
		Kind:        v.Get("kind"),
		Amount:      v.Get("amount"),
		Date:        v.Get("date"),
		Description: sanitizeInput(v.Get("description")),
		ExpenseKind: v.Get("expense_kind"),
		Status:      v.Get("status"),
		Months:      v.Get("months"),
	}
}

// patchFrom builds a patch holding only the fields whose submitted value
// differs from orig, so unchanged fields are never rewritten.
func patchFrom(p *RequestBodyParser, orig core.Movement) (core.MovementPatch, error) {
	var patch core.MovementPatch

	if p.Has("description") {
		if d := sanitizeInput(p.Get("description")); d != orig.Description {
			if d == "" {
				return patch, entry.ErrMissingFields
			}
			patch.Description = &d
		}
	}
	if p.Has("amount") {
		raw := p.Get("amount")
		if raw == "" {
			return patch, entry.ErrMissingFields
		}
		amount, err := core.ParseAmount(raw)
		if err != nil {
			return patch, err
		}
		if amount != orig.Amount {
			patch.Amount = &amount
		}
	}
	if orig.Kind != core.KindExpense {
		return patch, nil
	}

	expenseKind := orig.ExpenseKind
	if p.Has("expense_kind") {
		k, err := core.ParseExpenseKind(p.Get("expense_kind"))
		if err != nil {
			return patch, err
		}
		if k != orig.ExpenseKind {
			patch.ExpenseKind = &k
			expenseKind = k
		}
	}
	if expenseKind != core.ExpenseFixed {
		return patch, nil
	}
	// A status submitted alongside a kind switch is only trusted when the
	// form showed the control for the new kind; otherwise Apply picks the
	// kind's default.
	trustStatus := patch.ExpenseKind == nil || p.Get("status_shown") != ""
	if trustStatus && p.Has("status") && p.Get("status") != "" {
		st, err := core.ParsePaymentStatus(p.Get("status"))
		if err != nil {
			return patch, err
		}
		implicit := orig.Status
		if patch.ExpenseKind != nil {
			implicit = core.StatusPending
		}
		if st != implicit {
			patch.Status = &st
		}
	}
	if p.Has("months") {
		n := entry.ParseMonthCount(p.Get("months"))
		if n != len(orig.Months) || patch.ExpenseKind != nil {
			patch.MonthCount = &n
		}
	}
	return patch, nil
}

// filterFrom reads the report filter from query values.
func filterFrom(q url.Values, now time.Time) report.Filter {
	return report.ParseFilter(q.Get("tipo"), q.Get("situacao"), q.Get("mes"), q.Get("ano"), now)
}

// filterQuery encodes f back into the query used by the export links.
func filterQuery(f report.Filter) string {
	v := url.Values{}
	v.Set("tipo", string(f.Type))
	v.Set("situacao", string(f.Status))
	v.Set("mes", strconv.Itoa(f.Month))
	v.Set("ano", strconv.Itoa(f.Year))
	return v.Encode()
}
