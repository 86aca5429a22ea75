package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"controle/internal/amqp"
	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/sheets"
	"controle/internal/store"
)

// SyncWorker mirrors movement changes announced over AMQP into a spreadsheet.
// Messages carry ids only; the worker re-reads the store so the mirror always
// reflects the latest committed state.
type SyncWorker struct {
	reader store.MovementReader
	mirror sheets.MovementMirror
	logger *log.Logger

	upserts atomic.Int64
	removes atomic.Int64
}

// Stats counts the mirror writes performed since start.
type Stats struct {
	Upserts int64
	Removes int64
}

func NewSyncWorker(reader store.MovementReader, mirror sheets.MovementMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &SyncWorker{
		reader: reader,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes a single movement sync message. A returned error
// makes the consumer requeue the delivery.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.MovementSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldMovementID, msg.ID,
		log.FieldUserID, msg.OwnerID,
		log.FieldOperation, string(msg.Op))

	switch msg.Op {
	case amqp.OpDelete:
		return w.remove(ctx, msg.ID)
	case amqp.OpUpsert:
		m, err := w.reader.Get(ctx, msg.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted after the upsert was published.
			return w.remove(ctx, msg.ID)
		}
		if err != nil {
			return fmt.Errorf("get movement from storage: %w", err)
		}
		if msg.OwnerID != "" && m.OwnerID != msg.OwnerID {
			w.logger.WarnContext(ctx, "Sync message owner mismatch, skipping",
				log.FieldMovementID, msg.ID,
				log.FieldUserID, msg.OwnerID)
			return nil
		}
		if err := w.mirror.Upsert(ctx, m); err != nil {
			return fmt.Errorf("mirror upsert: %w", err)
		}
		w.upserts.Add(1)
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", amqp.ErrInvalidMessage, msg.Op)
	}
}

func (w *SyncWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("mirror remove: %w", err)
	}
	w.removes.Add(1)
	return nil
}

func (w *SyncWorker) Stats() Stats {
	return Stats{Upserts: w.upserts.Load(), Removes: w.removes.Load()}
}
