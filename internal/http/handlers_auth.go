package http

import (
	"net/http"

	"controle/internal/auth"
	"controle/internal/log"
)

type authView struct {
	Name  string
	Email string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", s.newPage(r, "Entrar", "login", authView{}))
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "registro.html", s.newPage(r, "Criar conta", "registro", authView{}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.authFailed(w, r, "login.html", "Entrar", authView{}, ErrInvalidRequest.Message, http.StatusBadRequest)
		return
	}
	email := p.Get("email")
	sess, token, err := s.auth.SignIn(r.Context(), email, p.Get("password"))
	if err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Sign in rejected",
			log.FieldOperation, log.OpSignIn,
			log.FieldError, err)
		s.authFailed(w, r, "login.html", "Entrar", authView{Email: email}, auth.Message(err), MapError(r.Context(), err).Status)
		return
	}
	s.signedIn(w, r, sess, token)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.authFailed(w, r, "registro.html", "Criar conta", authView{}, ErrInvalidRequest.Message, http.StatusBadRequest)
		return
	}
	name, email := p.Get("name"), p.Get("email")
	sess, token, err := s.auth.SignUp(r.Context(), name, email, p.Get("password"))
	if err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Sign up rejected",
			log.FieldOperation, log.OpSignUp,
			log.FieldError, err)
		s.authFailed(w, r, "registro.html", "Criar conta", authView{Name: name, Email: email}, auth.Message(err), MapError(r.Context(), err).Status)
		return
	}
	s.signedIn(w, r, sess, token)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		s.auth.SignOut(r.Context(), sess)
	}
	s.clearSessionCookie(w)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) signedIn(w http.ResponseWriter, r *http.Request, sess auth.Session, token string) {
	s.setSessionCookie(w, token)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session opened", log.FieldUserID, sess.UID)
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authFailed answers htmx submissions with a notification and re-renders the
// page for plain form posts.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, tmpl, title string, v authView, msg string, status int) {
	if isHTMX(r) {
		ErrorResponse(status, msg).
			TriggerNotification(NotificationError, msg, s.notificationDelay).
			Write(w)
		return
	}
	v.Error = msg
	s.render(w, r, status, tmpl, s.newPage(r, title, "", v))
}
