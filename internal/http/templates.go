package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"controle/internal/core"
	"controle/internal/log"
)

var templateFuncs = template.FuncMap{
	"brl":      func(m core.Money) string { return m.BRL() },
	"pct":      func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"negative": func(m core.Money) bool { return m.Cents < 0 },
}

// parseTemplates loads every page and partial from fsys. Pages and partials
// are addressed by file name, as in ExecuteTemplate(w, "dashboard.html", data).
func parseTemplates(fsys fs.FS) (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// render executes a template into a buffer first so a failing template never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		http.Error(w, "erro ao renderizar a página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderString executes a partial and returns it as a string for builders.
func (s *Server) renderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
