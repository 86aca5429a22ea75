package services

import (
	"context"
	"fmt"

	"controle/internal/auth"
	"controle/internal/cache"
	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/store"
)

// DashboardService computes per-owner totals and caches them.
type DashboardService struct {
	reader store.MovementReader
	cache  *cache.LRUCache[core.Summary]
}

// NewDashboardService creates the aggregator; a nil cache disables caching.
func NewDashboardService(reader store.MovementReader, c *cache.LRUCache[core.Summary]) *DashboardService {
	return &DashboardService{reader: reader, cache: c}
}

// Summary returns the owner's totals. Movements that cannot be summed are
// skipped with a warning.
func (s *DashboardService) Summary(ctx context.Context, ownerID string) (core.Summary, error) {
	if ownerID == "" {
		return core.Summary{}, core.ErrMissingOwner
	}
	if s.cache == nil {
		return s.load(ctx, ownerID)
	}
	return s.cache.GetOrLoad(ctx, ownerID, func(ctx context.Context) (core.Summary, error) {
		return s.load(ctx, ownerID)
	})
}

func (s *DashboardService) load(ctx context.Context, ownerID string) (core.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ms, err := s.reader.List(ctx, store.MovementQuery{OwnerID: ownerID})
	if err != nil {
		return core.Summary{}, fmt.Errorf("load dashboard: %w", err)
	}

	logger := log.FromContext(ctx)
	var sum core.Summary
	for _, m := range ms {
		if err := sum.Add(m); err != nil {
			logger.WarnContext(ctx, "Skipping movement with invalid amount",
				log.FieldMovementID, m.ID,
				log.FieldUserID, ownerID,
				log.FieldError, err)
		}
	}
	return sum, nil
}

// Invalidate drops the cached totals of one owner.
func (s *DashboardService) Invalidate(ownerID string) {
	if s.cache != nil {
		s.cache.Delete(ownerID)
	}
}

// HandleSessionEvent is subscribed to the auth provider.
func (s *DashboardService) HandleSessionEvent(ev auth.Event) {
	s.Invalidate(ev.Session.UID)
}
