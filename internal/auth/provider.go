package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/store"
)

// Event is delivered to subscribers when a session starts or ends.
type Event struct {
	Session  Session
	SignedIn bool
}

// Provider issues and resolves sessions against the user store.
type Provider struct {
	users  store.UserStore
	secret string
	ttl    time.Duration
	cost   int
	logger *log.Logger

	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

type ProviderOption func(*Provider)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) ProviderOption {
	return func(p *Provider) { p.cost = cost }
}

func WithLogger(l *log.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l.WithComponent(log.ComponentAuth) }
}

func NewProvider(users store.UserStore, secret string, ttl time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		users:  users,
		secret: secret,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		logger: log.Nop(),
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TTL is the lifetime of issued tokens.
func (p *Provider) TTL() time.Duration { return p.ttl }

// SignUp creates the user profile and opens a session for it.
func (p *Provider) SignUp(ctx context.Context, name, email, password string) (Session, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, "", ErrNameRequired
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, "", err
	}
	if len(password) < MinPasswordLen {
		return Session{}, "", ErrWeakPassword
	}
	if len(password) > MaxPasswordLen {
		return Session{}, "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Session{}, "", fmt.Errorf("hash password: %w", err)
	}
	u, err := p.users.CreateUser(ctx, core.User{Name: name, Email: email, PasswordHash: string(hash)})
	if err != nil {
		return Session{}, "", err
	}

	p.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID, log.FieldOperation, log.OpSignUp)
	return p.open(ctx, u)
}

// SignIn checks the credentials. Unknown e-mail and wrong password are indistinguishable.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, "", ErrInvalidCredentials
	}
	u, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		p.logger.WarnContext(ctx, "Sign-in rejected", log.FieldUserID, u.ID, log.FieldOperation, log.OpSignIn)
		return Session{}, "", ErrInvalidCredentials
	}

	p.logger.InfoContext(ctx, "User signed in", log.FieldUserID, u.ID, log.FieldOperation, log.OpSignIn)
	return p.open(ctx, u)
}

// SignOut ends the session. Tokens are stateless, so this only notifies subscribers.
func (p *Provider) SignOut(ctx context.Context, s Session) {
	if s.UID == "" {
		return
	}
	p.logger.InfoContext(ctx, "User signed out", log.FieldUserID, s.UID, log.FieldOperation, log.OpSignOut)
	p.publish(Event{Session: s, SignedIn: false})
}

// Resolve validates a token and returns its session.
func (p *Provider) Resolve(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	s, err := ValidateToken(token, p.secret)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return s, nil
}

// Profile loads the stored profile of the session user.
func (p *Provider) Profile(ctx context.Context, uid string) (core.User, error) {
	return p.users.GetUser(ctx, uid)
}

// Subscribe registers fn for session changes and returns its unsubscribe func.
func (p *Provider) Subscribe(fn func(Event)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) open(_ context.Context, u core.User) (Session, string, error) {
	s := Session{UID: u.ID, DisplayName: u.Name, Email: u.Email}
	token, err := GenerateToken(s, p.secret, p.ttl)
	if err != nil {
		return Session{}, "", err
	}
	p.publish(Event{Session: s, SignedIn: true})
	return s, token, nil
}

func (p *Provider) publish(ev Event) {
	p.mu.RLock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
