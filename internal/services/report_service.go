package services

import (
	"context"
	"fmt"

	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/report"
	"controle/internal/store"
)

// ReportService fetches the movements a report filter needs.
type ReportService struct {
	reader store.MovementReader
}

func NewReportService(reader store.MovementReader) *ReportService {
	return &ReportService{reader: reader}
}

// Generate builds the report of one owner. With no type restriction the
// store is asked for the month window; otherwise it is asked for the kind
// and the month is filtered in memory.
func (s *ReportService) Generate(ctx context.Context, ownerID string, f report.Filter) (report.Report, error) {
	if ownerID == "" {
		return report.Report{}, core.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	q := store.MovementQuery{OwnerID: ownerID}
	if k := f.Kind(); k != "" {
		q.Kind = k
	} else {
		q.From, q.To = f.Range()
	}

	ms, err := s.reader.List(ctx, q)
	if err != nil {
		return report.Report{}, fmt.Errorf("fetch report movements: %w", err)
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentReport)
	r := report.Build(f, ms, logger)
	logger.DebugContext(ctx, "Report generated",
		log.FieldUserID, ownerID,
		log.FieldYear, f.Year,
		log.FieldMonth, f.Month,
		log.FieldCount, r.Totals.Count)
	return r, nil
}
