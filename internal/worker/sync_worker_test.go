package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controle/internal/amqp"
	"controle/internal/core"
	"controle/internal/sheets"
	mirrormem "controle/internal/sheets/memory"
	storemem "controle/internal/store/memory"
)

type failingMirror struct{}

func (failingMirror) Upsert(context.Context, core.Movement) error { return errors.New("quota exceeded") }
func (failingMirror) Remove(context.Context, string) error        { return errors.New("quota exceeded") }

var _ sheets.MovementMirror = failingMirror{}

func seed(t *testing.T, st *storemem.Store) core.Movement {
	t.Helper()
	m, err := st.Create(context.Background(), core.Movement{
		OwnerID:     "u1",
		Kind:        core.KindIncome,
		Amount:      core.Money{Cents: 500000},
		Date:        core.NewDate(2024, 12, 1),
		Description: "Salário",
	})
	require.NoError(t, err)
	return m
}

func TestHandleUpsertMirrorsStoredMovement(t *testing.T) {
	st := storemem.New()
	mirror := mirrormem.New()
	w := NewSyncWorker(st, mirror, nil)
	m := seed(t, st)

	err := w.HandleMessage(context.Background(), amqp.NewMovementSyncMessage(m.ID, "u1", amqp.OpUpsert))
	require.NoError(t, err)

	row, ok := mirror.Row(m.ID)
	require.True(t, ok)
	assert.Equal(t, "Salário", row[4])
	assert.Equal(t, "Receita", row[3])
	assert.Equal(t, Stats{Upserts: 1}, w.Stats())
}

func TestHandleUpsertOfDeletedMovementRemovesRow(t *testing.T) {
	st := storemem.New()
	mirror := mirrormem.New()
	w := NewSyncWorker(st, mirror, nil)
	m := seed(t, st)
	ctx := context.Background()

	require.NoError(t, w.HandleMessage(ctx, amqp.NewMovementSyncMessage(m.ID, "u1", amqp.OpUpsert)))
	require.NoError(t, st.Delete(ctx, "u1", m.ID))
	require.NoError(t, w.HandleMessage(ctx, amqp.NewMovementSyncMessage(m.ID, "u1", amqp.OpUpsert)))

	_, ok := mirror.Row(m.ID)
	assert.False(t, ok)
	assert.Equal(t, int64(1), w.Stats().Removes)
}

func TestHandleDelete(t *testing.T) {
	st := storemem.New()
	mirror := mirrormem.New()
	w := NewSyncWorker(st, mirror, nil)
	m := seed(t, st)
	ctx := context.Background()
	require.NoError(t, mirror.Upsert(ctx, m))

	require.NoError(t, w.HandleMessage(ctx, amqp.NewMovementSyncMessage(m.ID, "u1", amqp.OpDelete)))
	assert.Empty(t, mirror.IDs())
}

func TestHandleSkipsOwnerMismatch(t *testing.T) {
	st := storemem.New()
	mirror := mirrormem.New()
	w := NewSyncWorker(st, mirror, nil)
	m := seed(t, st)

	require.NoError(t, w.HandleMessage(context.Background(), amqp.NewMovementSyncMessage(m.ID, "u2", amqp.OpUpsert)))
	assert.Empty(t, mirror.IDs())
}

func TestHandleMirrorFailureIsReturned(t *testing.T) {
	st := storemem.New()
	w := NewSyncWorker(st, failingMirror{}, nil)
	m := seed(t, st)

	err := w.HandleMessage(context.Background(), amqp.NewMovementSyncMessage(m.ID, "u1", amqp.OpUpsert))
	assert.ErrorContains(t, err, "quota exceeded")

	err = w.HandleMessage(context.Background(), &amqp.MovementSyncMessage{ID: m.ID, Op: "bogus"})
	assert.ErrorIs(t, err, amqp.ErrInvalidMessage)
}
