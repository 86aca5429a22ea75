package http

import (
	"context"
	"net/http"
	"time"

	"controle/internal/core"
	"controle/internal/log"
)

// movementDTO is the JSON shape of a movement.
type movementDTO struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ExpenseKind string `json:"expense_kind,omitempty"`
	Status      string `json:"status,omitempty"`
	Months      []int  `json:"months,omitempty"`
	MonthsLabel string `json:"months_label,omitempty"`
}

func toMovementDTO(m core.Movement) movementDTO {
	dto := movementDTO{
		ID:          m.ID,
		Kind:        string(m.Kind),
		Amount:      m.Amount.String(),
		AmountCents: m.Amount.Cents,
		Date:        m.Date.String(),
		Description: m.Description,
		ExpenseKind: string(m.ExpenseKind),
		Status:      string(m.Status),
	}
	if len(m.Months) > 0 {
		dto.Months = append([]int(nil), m.Months...)
		dto.MonthsLabel = m.Months.Label()
	}
	return dto
}

type summaryDTO struct {
	Income        string `json:"income"`
	Expenses      string `json:"expenses"`
	Pending       string `json:"pending"`
	Balance       string `json:"balance"`
	FixedCount    int    `json:"fixed_count"`
	VariableCount int    `json:"variable_count"`
	Count         int    `json:"count"`
}

func (s *Server) handleAPIListMovements(w http.ResponseWriter, r *http.Request) {
	ms, err := s.movements.List(r.Context(), session(r).UID)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	out := make([]movementDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementDTO(m))
	}
	RespondSuccess(r.Context(), w, http.StatusOK, out)
}

func (s *Server) handleAPICreateMovement(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		RespondAppError(r.Context(), w, ErrInvalidRequest)
		return
	}
	m, err := draftFrom(p).Build(session(r).UID)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	created, err := s.movements.Create(r.Context(), m)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(r.Context(), w, http.StatusCreated, toMovementDTO(created))
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard.Summary(r.Context(), session(r).UID)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}
	RespondSuccess(r.Context(), w, http.StatusOK, summaryDTO{
		Income:        sum.Income.String(),
		Expenses:      sum.Expenses.String(),
		Pending:       sum.Pending.String(),
		Balance:       sum.Balance().String(),
		FixedCount:    sum.FixedCount,
		VariableCount: sum.VariableCount,
		Count:         sum.Count,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady probes the store with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness probe failed", log.FieldError, err)
			RespondJSON(r.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	RespondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ready"})
}
