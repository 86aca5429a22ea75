package http

import (
	"net/http"

	"controle/internal/core"
	"controle/internal/log"
)

const msgSummaryUnavailable = "Não foi possível carregar o resumo financeiro."

// handleDashboard renders the totals of the signed-in user, or the
// sign-in prompt for visitors.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	pg := s.newPage(r, "Dashboard", "dashboard", nil)
	if !pg.LoggedIn {
		s.render(w, r, http.StatusOK, "dashboard.html", pg)
		return
	}
	pg.Data = s.summaryFor(r)
	s.render(w, r, http.StatusOK, "dashboard.html", pg)
}

// handleSummaryPartial re-renders the dashboard cards on summary:refresh.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "summary_cards.html", s.summaryFor(r))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	v := profileView{Name: sess.DisplayName, Email: sess.Email}

	u, err := s.auth.Profile(r.Context(), sess.UID)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Profile not available",
			log.FieldUserID, sess.UID,
			log.FieldError, err)
	} else {
		v.Name, v.Email = u.Name, u.Email
		if !u.CreatedAt.IsZero() {
			v.MemberSince = core.Date{Time: u.CreatedAt}.BR()
		}
	}
	v.Summary = s.summaryFor(r)
	s.render(w, r, http.StatusOK, "perfil.html", s.newPage(r, "Perfil", "perfil", v))
}

// summaryFor never fails the page; a store error shows a message in place of the cards.
func (s *Server) summaryFor(r *http.Request) summaryView {
	sum, err := s.dashboard.Summary(r.Context(), session(r).UID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard summary failed",
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		return summaryView{Error: msgSummaryUnavailable}
	}
	return newSummaryView(sum)
}
