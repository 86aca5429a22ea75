// Package memory keeps mirrored rows in process. The worker uses it when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"controle/internal/core"
	"controle/internal/sheets"
)

var _ sheets.MovementMirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows map[string][]string
}

func New() *Mirror {
	return &Mirror{rows: make(map[string][]string)}
}

func (m *Mirror) Upsert(_ context.Context, mv core.Movement) error {
	if mv.ID == "" {
		return core.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[mv.ID] = sheets.Row(mv)
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Row returns a copy of the mirrored row of id.
func (m *Mirror) Row(id string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), r...), true
}

// IDs lists the mirrored ids in lexical order.
func (m *Mirror) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
