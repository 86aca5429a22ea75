package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"controle/internal/log"
	"controle/internal/report"
)

const msgReportFailed = "Não foi possível gerar o relatório."

func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	v := s.reportFor(r)
	s.render(w, r, http.StatusOK, "relatorios.html", s.newPage(r, "Relatórios", "relatorios", v))
}

// handleReportData re-renders the report body when a filter changes.
func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "report_data.html", s.reportFor(r))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "pdf", "application/pdf", report.WritePDF)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.WriteXLSX)
}

func (s *Server) reportFor(r *http.Request) reportView {
	now := s.now()
	f := filterFrom(r.URL.Query(), now)
	rep, err := s.reports.Generate(r.Context(), session(r).UID, f)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report generation failed",
			log.FieldOperation, log.OpRead,
			log.FieldYear, f.Year,
			log.FieldMonth, f.Month,
			log.FieldError, err)
		v := newReportView(report.Report{Filter: f}, now)
		v.Error = msgReportFailed
		return v
	}
	return newReportView(rep, now)
}

// export writes the document into a buffer so a failure can still answer 500.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, report.Report) error) {
	logger := log.FromContext(r.Context())
	f := filterFrom(r.URL.Query(), s.now())
	rep, err := s.reports.Generate(r.Context(), session(r).UID, f)
	if err != nil {
		logger.ErrorContext(r.Context(), "Report generation failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		http.Error(w, msgReportFailed, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, rep); err != nil {
		logger.ErrorContext(r.Context(), "Report export failed",
			log.FieldOperation, log.OpExport,
			"format", ext,
			log.FieldError, err)
		http.Error(w, msgReportFailed, http.StatusInternalServerError)
		return
	}

	logger.InfoContext(r.Context(), "Report exported",
		log.FieldOperation, log.OpExport,
		"format", ext,
		log.FieldYear, f.Year,
		log.FieldMonth, f.Month,
		log.FieldCount, len(rep.Items)+len(rep.Pending))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName(ext)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
