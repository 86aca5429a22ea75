package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controle/internal/amqp"
	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/store"
)

// storeTimeout bounds every call to the remote store.
const storeTimeout = 7 * time.Second

// SyncPublisher announces movement changes to the mirror worker.
type SyncPublisher interface {
	PublishMovementSync(ctx context.Context, msg *amqp.MovementSyncMessage) error
}

// ChangeListener is told which owner's data changed.
type ChangeListener func(ownerID string)

// MovementService orchestrates movement writes across the store and AMQP.
type MovementService struct {
	store     store.MovementStore
	publisher SyncPublisher
	listeners []ChangeListener
}

func NewMovementService(st store.MovementStore, publisher SyncPublisher) *MovementService {
	return &MovementService{store: st, publisher: publisher}
}

// OnChange registers fn to run after every successful write.
func (s *MovementService) OnChange(fn ChangeListener) {
	s.listeners = append(s.listeners, fn)
}

// Create stores an owner-stamped movement.
func (s *MovementService) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	created, err := s.store.Create(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("save movement: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Movement created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithMovement(created.ID, created.OwnerID, string(created.Kind), created.Amount.Cents).
			ToSlice()...)

	s.changed(ctx, created.OwnerID, created.ID, amqp.OpUpsert)
	return created, nil
}

// List returns the owner's movements, newest first.
func (s *MovementService) List(ctx context.Context, ownerID string) ([]core.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ms, err := s.store.List(ctx, store.MovementQuery{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return ms, nil
}

// Get returns a movement for editing; other owners get core.ErrNotOwner.
func (s *MovementService) Get(ctx context.Context, ownerID, id string) (core.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Movement{}, err
	}
	if m.OwnerID != ownerID {
		log.FromContext(ctx).WarnContext(ctx, "Movement access by non-owner",
			log.FieldMovementID, id,
			log.FieldUserID, ownerID)
		return core.Movement{}, core.ErrNotOwner
	}
	return m, nil
}

// Update applies a partial update to an owned movement.
func (s *MovementService) Update(ctx context.Context, ownerID, id string, p core.MovementPatch) (core.Movement, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return core.Movement{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	updated, err := s.store.Update(ctx, ownerID, id, p)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Movement updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldMovementID, id,
		log.FieldUserID, ownerID)

	s.changed(ctx, ownerID, id, amqp.OpUpsert)
	return updated, nil
}

// Delete removes an owned movement.
func (s *MovementService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Movement deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldMovementID, id,
		log.FieldUserID, ownerID)

	s.changed(ctx, ownerID, id, amqp.OpDelete)
	return nil
}

func (s *MovementService) changed(ctx context.Context, ownerID, id string, op amqp.SyncOp) {
	for _, fn := range s.listeners {
		fn(ownerID)
	}

	if s.publisher == nil {
		log.FromContext(ctx).DebugContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	// The write already succeeded; a lost sync message is not a request failure.
	if err := s.publisher.PublishMovementSync(ctx, amqp.NewMovementSyncMessage(id, ownerID, op)); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to publish sync message",
			log.FieldMovementID, id,
			log.FieldOperation, string(op),
			log.FieldError, err)
	}
}

// IsClientError reports whether err stems from user input or ownership
// rather than from the store.
func IsClientError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate, core.ErrInvalidAmount, core.ErrEmptyDescription,
		core.ErrDescriptionTooLong, core.ErrInvalidKind, core.ErrInvalidExpenseKind,
		core.ErrInvalidStatus, core.ErrUnexpectedExpenseAttr, core.ErrVariableMustBePaid,
		core.ErrMissingOwner, core.ErrNotFound, core.ErrNotOwner,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
