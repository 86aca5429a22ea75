// Package memory is an in-process store for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"controle/internal/core"
	"controle/internal/store"
)

var (
	_ store.MovementStore = (*Store)(nil)
	_ store.UserStore     = (*Store)(nil)
	_ store.Pinger        = (*Store)(nil)
)

type Store struct {
	mu        sync.RWMutex
	movements map[string]core.Movement
	users     map[string]core.User
	byEmail   map[string]string
	now       func() time.Time
}

func New() *Store {
	return &Store{
		movements: make(map[string]core.Movement),
		users:     make(map[string]core.User),
		byEmail:   make(map[string]string),
		now:       time.Now,
	}
}

func (s *Store) Create(_ context.Context, m core.Movement) (core.Movement, error) {
	if m.OwnerID == "" {
		return core.Movement{}, core.ErrMissingOwner
	}
	m = m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UTC()
	m.Months = append(core.Months(nil), m.Months...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements[m.ID] = m
	return m, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, core.ErrNotFound
	}
	return clone(m), nil
}

func (s *Store) List(_ context.Context, q store.MovementQuery) ([]core.Movement, error) {
	if q.OwnerID == "" {
		return nil, core.ErrMissingOwner
	}
	s.mu.RLock()
	out := make([]core.Movement, 0)
	for _, m := range s.movements {
		if q.Matches(m) {
			out = append(out, clone(m))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, ownerID, id string, p core.MovementPatch) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok || m.OwnerID != ownerID {
		return core.Movement{}, core.ErrNotFound
	}
	updated, err := p.Apply(m)
	if err != nil {
		return core.Movement{}, err
	}
	s.movements[id] = updated
	return clone(updated), nil
}

func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok || m.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	email := normalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return core.User{}, core.ErrEmailTaken
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) Ping(context.Context) error { return nil }

func clone(m core.Movement) core.Movement {
	m.Months = append(core.Months(nil), m.Months...)
	if len(m.Months) == 0 {
		m.Months = nil
	}
	return m
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
