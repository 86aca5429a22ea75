// Package storage is the SQL-backed store gateway. The same repository
// serves SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq).
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"controle/internal/core"
	"controle/internal/log"
	"controle/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

var (
	_ store.MovementStore = (*Repository)(nil)
	_ store.UserStore     = (*Repository)(nil)
	_ store.Pinger        = (*Repository)(nil)
)

type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	now     func() time.Time
}

const movementColumns = `id, owner_id, kind, amount, date, description, expense_kind, months, status, created_at`

// OpenSQLite opens (creating if needed) the database file and migrates it.
func OpenSQLite(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open(DialectSQLite.driverName(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return open(db, DialectSQLite, dbPath, logger)
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string, logger *log.Logger) (*Repository, error) {
	db, err := sql.Open(DialectPostgres.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return open(db, DialectPostgres, dsn, logger)
}

func open(db *sql.DB, dialect Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
	if m.OwnerID == "" {
		return core.Movement{}, core.ErrMissingOwner
	}
	m = m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	m.ID = uuid.NewString()
	m.CreatedAt = r.now().UTC()

	row := encodeMovement(m)
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		row.id, row.ownerID, row.kind, row.amount, row.date, row.description,
		row.expenseKind, row.months, row.status, row.createdAt)
	if err != nil {
		return core.Movement{}, fmt.Errorf("insert movement: %w", err)
	}

	r.logger.DebugContext(ctx, "Movement stored",
		log.FieldMovementID, m.ID,
		log.FieldUserID, m.OwnerID,
		log.FieldKind, string(m.Kind),
		log.FieldAmountCents, m.Amount.Cents)
	return m, nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Movement, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+movementColumns+` FROM movements WHERE id = ?`), id)
	var mr movementRow
	if err := mr.scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Movement{}, core.ErrNotFound
		}
		return core.Movement{}, fmt.Errorf("get movement: %w", err)
	}
	return mr.decode()
}

func (r *Repository) List(ctx context.Context, q store.MovementQuery) ([]core.Movement, error) {
	if q.OwnerID == "" {
		return nil, core.ErrMissingOwner
	}
	var b strings.Builder
	b.WriteString(`SELECT ` + movementColumns + ` FROM movements WHERE owner_id = ?`)
	args := []any{q.OwnerID}
	if q.Kind != "" {
		b.WriteString(` AND kind = ?`)
		args = append(args, string(q.Kind))
	}
	if q.Status != "" {
		b.WriteString(` AND status = ?`)
		args = append(args, string(q.Status))
	}
	if !q.From.IsZero() {
		b.WriteString(` AND date >= ?`)
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		b.WriteString(` AND date < ?`)
		args = append(args, q.To.String())
	}
	b.WriteString(` ORDER BY date DESC, created_at DESC`)

	rows, err := r.db.QueryContext(ctx, r.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]core.Movement, 0)
	for rows.Next() {
		var mr movementRow
		if err := mr.scan(rows); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m, err := mr.decode()
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed movement row",
				log.FieldMovementID, mr.id,
				log.FieldUserID, q.OwnerID,
				log.FieldError, err)
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, ownerID, id string, p core.MovementPatch) (core.Movement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Movement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var mr movementRow
	row := tx.QueryRowContext(ctx, r.rebind(
		`SELECT `+movementColumns+` FROM movements WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err := mr.scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Movement{}, core.ErrNotFound
		}
		return core.Movement{}, fmt.Errorf("load movement: %w", err)
	}
	current, err := mr.decode()
	if err != nil {
		return core.Movement{}, err
	}
	updated, err := p.Apply(current)
	if err != nil {
		return core.Movement{}, err
	}

	enc := encodeMovement(updated)
	_, err = tx.ExecContext(ctx, r.rebind(
		`UPDATE movements SET amount = ?, description = ?, expense_kind = ?, months = ?, status = ?
		 WHERE id = ? AND owner_id = ?`),
		enc.amount, enc.description, enc.expenseKind, enc.months, enc.status, id, ownerID)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Movement{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM movements WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) getUser(ctx context.Context, query string, arg string) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx, r.rebind(query), arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return u, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *Repository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// movementRow is the column-level shape of a stored movement.
type movementRow struct {
	id          string
	ownerID     string
	kind        string
	amount      string
	date        string
	description string
	expenseKind string
	months      sql.NullString
	status      string
	createdAt   string
}

type scanner interface {
	Scan(dest ...any) error
}

func (mr *movementRow) scan(s scanner) error {
	return s.Scan(&mr.id, &mr.ownerID, &mr.kind, &mr.amount, &mr.date, &mr.description,
		&mr.expenseKind, &mr.months, &mr.status, &mr.createdAt)
}

func encodeMovement(m core.Movement) movementRow {
	row := movementRow{
		id:          m.ID,
		ownerID:     m.OwnerID,
		kind:        string(m.Kind),
		amount:      m.Amount.String(),
		date:        m.Date.String(),
		description: m.Description,
		expenseKind: string(m.ExpenseKind),
		status:      string(m.Status),
		createdAt:   m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(m.Months) > 0 {
		if b, err := json.Marshal([]int(m.Months)); err == nil {
			row.months = sql.NullString{String: string(b), Valid: true}
		}
	}
	return row
}

// decode validates the stored values. Months that fail to parse are dropped
// rather than failing the whole row.
func (mr movementRow) decode() (core.Movement, error) {
	m := core.Movement{
		ID:          mr.id,
		OwnerID:     mr.ownerID,
		Description: mr.description,
	}
	var err error
	if m.Kind, err = core.ParseKind(mr.kind); err != nil {
		return core.Movement{}, err
	}
	if m.Amount, err = core.ParseAmount(mr.amount); err != nil {
		return core.Movement{}, err
	}
	if m.Date, err = core.ParseDate(mr.date); err != nil {
		return core.Movement{}, err
	}
	if mr.expenseKind != "" {
		if m.ExpenseKind, err = core.ParseExpenseKind(mr.expenseKind); err != nil {
			return core.Movement{}, err
		}
	}
	if mr.status != "" {
		if m.Status, err = core.ParsePaymentStatus(mr.status); err != nil {
			return core.Movement{}, err
		}
	}
	if mr.months.Valid && mr.months.String != "" {
		var months []int
		if json.Unmarshal([]byte(mr.months.String), &months) == nil {
			m.Months = core.Months(months).Normalize()
		}
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, mr.createdAt)
	return m, nil
}
