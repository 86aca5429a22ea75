package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controle/internal/amqp"
	"controle/internal/auth"
	"controle/internal/cache"
	"controle/internal/core"
	"controle/internal/report"
	"controle/internal/store"
	"controle/internal/store/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.MovementSyncMessage
	err  error
}

func (f *fakePublisher) PublishMovementSync(_ context.Context, msg *amqp.MovementSyncMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

// countingReader counts List calls and can inject broken rows.
type countingReader struct {
	store.MovementReader
	mu    sync.Mutex
	calls int
	extra []core.Movement
	last  store.MovementQuery
}

func (c *countingReader) List(ctx context.Context, q store.MovementQuery) ([]core.Movement, error) {
	c.mu.Lock()
	c.calls++
	c.last = q
	c.mu.Unlock()
	ms, err := c.MovementReader.List(ctx, q)
	return append(ms, c.extra...), err
}

func salary(owner string) core.Movement {
	return core.Movement{OwnerID: owner, Kind: core.KindIncome, Amount: core.Money{Cents: 100000},
		Date: core.NewDate(2024, 12, 1), Description: "Salário"}
}

func electricity(owner string) core.Movement {
	return core.Movement{OwnerID: owner, Kind: core.KindExpense, Amount: core.Money{Cents: 30000},
		Date: core.NewDate(2024, 12, 2), Description: "Conta de Luz",
		ExpenseKind: core.ExpenseFixed, Status: core.StatusPaid, Months: core.SpanFrom(core.NewDate(2024, 12, 2), 1)}
}

func TestMovementService_CreatePublishesAndNotifies(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewMovementService(memory.New(), pub)
	var changed []string
	svc.OnChange(func(owner string) { changed = append(changed, owner) })

	m, err := svc.Create(context.Background(), salary("u1"))
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, m.ID, pub.msgs[0].ID)
	assert.Equal(t, amqp.OpUpsert, pub.msgs[0].Op)
	assert.Equal(t, []string{"u1"}, changed)
}

func TestMovementService_PublishFailureIsNotFatal(t *testing.T) {
	svc := NewMovementService(memory.New(), &fakePublisher{err: errors.New("broker down")})
	_, err := svc.Create(context.Background(), salary("u1"))
	assert.NoError(t, err)

	noAMQP := NewMovementService(memory.New(), nil)
	_, err = noAMQP.Create(context.Background(), salary("u1"))
	assert.NoError(t, err)
}

func TestMovementService_OwnerChecks(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewMovementService(memory.New(), pub)
	m, err := svc.Create(ctx, electricity("u1"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", m.ID)
	assert.ErrorIs(t, err, core.ErrNotOwner)

	desc := "Invasor"
	_, err = svc.Update(ctx, "u2", m.ID, core.MovementPatch{Description: &desc})
	assert.ErrorIs(t, err, core.ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, "u2", m.ID), core.ErrNotOwner)

	_, err = svc.Get(ctx, "u1", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.True(t, IsClientError(err))
	assert.False(t, IsClientError(errors.New("disk full")))

	assert.Len(t, pub.msgs, 1, "rejected writes publish nothing")
}

func TestMovementService_EditRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewMovementService(memory.New(), nil)
	m, err := svc.Create(ctx, electricity("u1"))
	require.NoError(t, err)

	desc := "Conta de Luz (dez)"
	amount := core.Money{Cents: 31050}
	pending := core.StatusPending
	_, err = svc.Update(ctx, "u1", m.ID, core.MovementPatch{Description: &desc, Amount: &amount, Status: &pending})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)
	assert.Equal(t, amount, got.Amount)
	assert.Equal(t, core.StatusPending, got.Status)
	assert.Equal(t, m.Kind, got.Kind)
	assert.Equal(t, m.Date, got.Date)
	assert.Equal(t, m.ExpenseKind, got.ExpenseKind)
	assert.Equal(t, m.Months, got.Months)
}

func TestMovementService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewMovementService(memory.New(), pub)
	m, err := svc.Create(ctx, salary("u1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", m.ID))
	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, amqp.OpDelete, pub.msgs[len(pub.msgs)-1].Op)
}

func TestDashboardService_Summary(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	for _, m := range []core.Movement{salary("u1"), electricity("u1"), salary("u2")} {
		_, err := st.Create(ctx, m)
		require.NoError(t, err)
	}
	reader := &countingReader{MovementReader: st, extra: []core.Movement{
		{ID: "broken", OwnerID: "u1", Kind: core.KindIncome, Amount: core.Money{Cents: -5}},
	}}
	svc := NewDashboardService(reader, cache.NewLRUCache[core.Summary](10, time.Minute))

	sum, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), sum.Income.Cents)
	assert.Equal(t, int64(30000), sum.Expenses.Cents)
	assert.Equal(t, int64(70000), sum.Balance().Cents)
	assert.Equal(t, 1, sum.FixedCount)
	assert.Equal(t, 0, sum.VariableCount)

	other, err := svc.Summary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), other.Balance().Cents)
	assert.Zero(t, other.Expenses.Cents)

	_, _ = svc.Summary(ctx, "u1")
	assert.Equal(t, 2, reader.calls, "second read is served from cache")

	svc.HandleSessionEvent(auth.Event{Session: auth.Session{UID: "u1"}})
	_, _ = svc.Summary(ctx, "u1")
	assert.Equal(t, 3, reader.calls)

	_, err = svc.Summary(ctx, "")
	assert.ErrorIs(t, err, core.ErrMissingOwner)
}

func TestDashboardInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dash := NewDashboardService(st, cache.NewLRUCache[core.Summary](10, time.Minute))
	svc := NewMovementService(st, nil)
	svc.OnChange(dash.Invalidate)

	before, err := dash.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, before.Count)

	_, err = svc.Create(ctx, salary("u1"))
	require.NoError(t, err)

	after, err := dash.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Count)
}

func TestReportService_FetchStrategy(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	for _, m := range []core.Movement{salary("u1"), electricity("u1"), salary("u2")} {
		_, err := st.Create(ctx, m)
		require.NoError(t, err)
	}
	reader := &countingReader{MovementReader: st}
	svc := NewReportService(reader)

	all, err := svc.Generate(ctx, "u1", report.Filter{Type: report.TypeAll, Status: report.StatusAll, Month: 12, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", reader.last.From.String())
	assert.Equal(t, "2025-01-01", reader.last.To.String())
	assert.Empty(t, reader.last.Kind)
	assert.Equal(t, int64(70000), all.Balance().Cents)

	income, err := svc.Generate(ctx, "u1", report.Filter{Type: report.TypeIncome, Status: report.StatusAll, Month: 12, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, core.KindIncome, reader.last.Kind)
	assert.True(t, reader.last.From.IsZero())
	assert.Equal(t, 1, income.Totals.Count)

	empty, err := svc.Generate(ctx, "u1", report.Filter{Type: report.TypeExpense, Status: report.StatusAll, Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}
