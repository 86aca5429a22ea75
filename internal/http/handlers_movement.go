package http

import (
	"errors"
	"net/http"
	"strings"

	"controle/internal/core"
	"controle/internal/entry"
	"controle/internal/log"
	"controle/internal/services"
)

const (
	msgNotOwner         = "Você não tem permissão para alterar esta movimentação."
	msgNotFound         = "Movimentação não encontrada."
	msgListFailed       = "Não foi possível carregar as movimentações."
	msgUpdated          = "Movimentação atualizada com sucesso!"
	msgDeleted          = "Movimentação excluída."
	msgUpdateFailed     = "Erro ao atualizar movimentação."
	msgDeleteFailed     = "Erro ao excluir movimentação."
	msgInvalidRequest   = "Formato de requisição inválido."
	editErrorTarget     = "#edit-error"
	deleteErrorTarget   = "#delete-error"
	entryFeedbackTarget = "#entry-feedback"
)

func (s *Server) handleEntryPage(w http.ResponseWriter, r *http.Request) {
	v := newEntryView(entry.Draft{}, entry.New(), "", s.now())
	s.render(w, r, http.StatusOK, "cadastro.html", s.newPage(r, "Nova movimentação", "cadastro", v))
}

// handleEntryFields re-renders the conditional controls after one of the
// coupled selects changed. The changed control arrives as HX-Trigger-Name.
func (s *Server) handleEntryFields(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	changed := entry.Field(r.Header.Get("HX-Trigger-Name"))
	if changed == "" {
		changed = entry.Field(q.Get("changed"))
	}
	d := draftFrom(q)
	state := entry.Resolve(d.Kind, d.ExpenseKind, d.Status, changed)
	s.render(w, r, http.StatusOK, "entry_fields.html", newFieldsView(state, d))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.notifyError(w, http.StatusBadRequest, msgInvalidRequest, entryFeedbackTarget)
		return
	}

	m, err := draftFrom(p).Build(session(r).UID)
	if err != nil {
		s.notifyError(w, http.StatusUnprocessableEntity, validationMessage(err), entryFeedbackTarget)
		return
	}

	created, err := s.movements.Create(r.Context(), m)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to save movement",
			log.NewFields().
				WithOperation(log.OpCreate).
				WithError(err).
				WithMovement("", m.OwnerID, string(m.Kind), m.Amount.Cents).
				ToSlice()...)
		s.notifyError(w, http.StatusInternalServerError, entry.MsgSaveFailed, entryFeedbackTarget)
		return
	}

	NewHTMXResponse().
		TriggerMovementCreated(created.ID).
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerNotification(NotificationSuccess, entry.MsgSaved, s.notificationDelay).
		Write(w)
}

func (s *Server) handleMovementList(w http.ResponseWriter, r *http.Request) {
	type listView struct {
		Rows  []movementRow
		Error string
	}
	var v listView
	ms, err := s.movements.List(r.Context(), session(r).UID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list movements",
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		v.Error = msgListFailed
	} else {
		v.Rows = rowsFor(ms)
	}
	s.render(w, r, http.StatusOK, "movimentacao.html", s.newPage(r, "Movimentações", "movimentacao", v))
}

func (s *Server) handleEditModal(w http.ResponseWriter, r *http.Request) {
	m, err := s.movements.Get(r.Context(), session(r).UID, r.PathValue("id"))
	if err != nil {
		s.movementError(w, r, err, msgUpdateFailed, "")
		return
	}
	s.render(w, r, http.StatusOK, "movement_edit.html", newEditView(m, ""))
}

// handleEditFields re-renders the expense controls of the edit modal through
// the entry state machine when the expense kind changes.
func (s *Server) handleEditFields(w http.ResponseWriter, r *http.Request) {
	m, err := s.movements.Get(r.Context(), session(r).UID, r.PathValue("id"))
	if err != nil {
		s.movementError(w, r, err, msgUpdateFailed, editErrorTarget)
		return
	}
	q := r.URL.Query()
	changed := entry.Field(r.Header.Get("HX-Trigger-Name"))
	if changed == "" {
		changed = entry.Field(q.Get("changed"))
	}
	state := entry.Resolve(string(m.Kind), q.Get("expense_kind"), q.Get("status"), changed)
	months := len(m.Months)
	if q.Has("months") {
		months = entry.ParseMonthCount(q.Get("months"))
	}
	s.render(w, r, http.StatusOK, "edit_fields.html", newEditFieldsView(m, state, months))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	uid, id := session(r).UID, r.PathValue("id")
	orig, err := s.movements.Get(r.Context(), uid, id)
	if err != nil {
		s.movementError(w, r, err, msgUpdateFailed, editErrorTarget)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.notifyError(w, http.StatusBadRequest, msgInvalidRequest, editErrorTarget)
		return
	}
	patch, err := patchFrom(p, orig)
	if err != nil {
		s.notifyError(w, http.StatusUnprocessableEntity, validationMessage(err), editErrorTarget)
		return
	}

	updated, err := s.movements.Update(r.Context(), uid, id, patch)
	if err != nil {
		s.movementError(w, r, err, msgUpdateFailed, editErrorTarget)
		return
	}

	html, err := s.renderString("movement_row.html", rowFor(updated))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render movement row",
			log.FieldOperation, log.OpRender,
			log.FieldMovementID, id,
			log.FieldError, err)
		html = ""
	}
	NewHTMXResponse().
		TriggerMovementUpdated(id).
		TriggerModalClose().
		TriggerSummaryRefresh().
		TriggerNotification(NotificationSuccess, msgUpdated, s.notificationDelay).
		BodyHTML(html).
		Write(w)
}

func (s *Server) handleDeleteModal(w http.ResponseWriter, r *http.Request) {
	m, err := s.movements.Get(r.Context(), session(r).UID, r.PathValue("id"))
	if err != nil {
		s.movementError(w, r, err, msgDeleteFailed, "")
		return
	}
	s.render(w, r, http.StatusOK, "movement_delete.html", rowFor(m))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.movements.Delete(r.Context(), session(r).UID, id); err != nil {
		s.movementError(w, r, err, msgDeleteFailed, deleteErrorTarget)
		return
	}
	// An empty body lets the row's outerHTML swap remove it from the table.
	NewHTMXResponse().
		TriggerMovementDeleted(id).
		TriggerModalClose().
		TriggerSummaryRefresh().
		TriggerNotification(NotificationSuccess, msgDeleted, s.notificationDelay).
		Write(w)
}

// movementError maps service errors onto alert fragments. Store failures are
// logged and answered with the generic message.
func (s *Server) movementError(w http.ResponseWriter, r *http.Request, err error, generic, target string) {
	switch {
	case errors.Is(err, core.ErrNotOwner):
		s.notifyError(w, http.StatusForbidden, msgNotOwner, target)
	case errors.Is(err, core.ErrNotFound):
		s.notifyError(w, http.StatusNotFound, msgNotFound, target)
	case services.IsClientError(err) || errors.Is(err, entry.ErrMissingFields):
		s.notifyError(w, http.StatusUnprocessableEntity, validationMessage(err), target)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Movement operation failed",
			log.FieldMovementID, r.PathValue("id"),
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		s.notifyError(w, http.StatusInternalServerError, generic, target)
	}
}

// notifyError writes an alert fragment plus an error notification. A non-empty
// target retargets the swap so the alert lands inside the open form.
func (s *Server) notifyError(w http.ResponseWriter, status int, msg, target string) {
	b := ErrorResponse(status, msg).TriggerNotification(NotificationError, msg, s.notificationDelay)
	if target = strings.TrimSpace(target); target != "" {
		b.Header("HX-Retarget", target).Header("HX-Reswap", "innerHTML")
	}
	b.Write(w)
}
