package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"controle/internal/auth"
	"controle/internal/log"
)

// recoverMiddleware turns a handler panic into a 500 instead of a dropped connection.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Panic in handler",
					log.FieldError, fmt.Sprint(rec),
					log.FieldPath, r.URL.Path,
					"stack", string(debug.Stack()))
				http.Error(w, "erro interno", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the session token, if any, into the request
// context. A stale or forged cookie is cleared and the request proceeds
// signed out.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.auth.Resolve(token)
		if err != nil {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Discarding invalid session token", log.FieldError, err)
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.ContextWithSession(r.Context(), sess)
		ctx = log.WithUser(ctx, sess.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSession guards a page. Signed-out visitors go to the login page;
// htmx requests get an HX-Redirect so the whole page navigates.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); ok {
			next(w, r)
			return
		}
		if isHTMX(r) {
			NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// requireAPISession guards a JSON endpoint.
func (s *Server) requireAPISession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			RespondAppError(r.Context(), w, ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		NewHTMXResponse().
			Status(http.StatusTooManyRequests).
			TriggerNotification(NotificationError, "Muitas requisições. Aguarde um momento.", s.notificationDelay).
			Write(w)
		return
	}
	http.Error(w, "muitas requisições", http.StatusTooManyRequests)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.auth.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// session returns the caller's session; routes are wrapped by requireSession.
func session(r *http.Request) auth.Session {
	sess, _ := auth.SessionFromContext(r.Context())
	return sess
}
