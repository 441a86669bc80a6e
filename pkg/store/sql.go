package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	perrors "github.com/jmgilman/go/errors"
	"github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-profileform/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	email_key TEXT NOT NULL,
	age INTEGER NOT NULL,
	bio TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
)`

const (
	emailIndexName = "idx_profiles_email_key"
	emailIndex     = `CREATE UNIQUE INDEX IF NOT EXISTS ` + emailIndexName + ` ON profiles(email_key)`
)

// createdAtLayout is fixed width so created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const pgUniqueViolation = "23505"

// SQL stores profiles in a database/sql database. Queries are written with
// "?" placeholders and rebound for drivers that number them.
type SQL struct {
	db       *sql.DB
	opts     options
	numbered bool
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: sqlite path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, false, opts)
}

// OpenPostgres connects to a PostgreSQL database through pgx.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*SQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: postgres dsn is required")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres dsn: %w", err)
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return newSQL(ctx, db, true, opts)
}

// NewSQL wraps an open database. numbered selects "$n" placeholders.
func NewSQL(ctx context.Context, db *sql.DB, numbered bool, opts ...Option) (*SQL, error) {
	return newSQL(ctx, db, numbered, opts)
}

func newSQL(ctx context.Context, db *sql.DB, numbered bool, opts []Option) (*SQL, error) {
	s := &SQL{db: db, opts: resolveOptions(opts), numbered: numbered}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return perrors.Wrap(err, perrors.CodeUnavailable, "store: connect")
	}
	for _, stmt := range []string{schema, emailIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return perrors.Wrap(err, perrors.CodeDatabase, "store: migrate")
		}
	}
	return nil
}

// Save implements Store.
func (s *SQL) Save(ctx context.Context, profile model.Profile) (model.StoredProfile, error) {
	stored := model.StoredProfile{
		ID:        s.opts.newID(),
		CreatedAt: s.opts.now().UTC(),
		Profile:   profile,
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO profiles (id, name, email, email_key, age, bio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		stored.ID,
		profile.Name,
		profile.Email,
		model.NormalizeEmail(profile.Email),
		profile.Age,
		profile.Bio,
		stored.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		if isDuplicateEmail(err) {
			return model.StoredProfile{}, ErrDuplicateEmail
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.StoredProfile{}, ctxErr
		}
		return model.StoredProfile{}, perrors.Wrap(err, perrors.CodeDatabase, "store: insert profile")
	}
	return stored, nil
}

// List returns up to limit profiles, newest first.
func (s *SQL) List(ctx context.Context, limit int) ([]model.StoredProfile, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, email, age, bio, created_at
		FROM profiles
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), normalizeLimit(limit))
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeDatabase, "store: list profiles")
	}
	defer rows.Close()

	var out []model.StoredProfile
	for rows.Next() {
		var (
			p       model.StoredProfile
			created string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Age, &p.Bio, &created); err != nil {
			return nil, perrors.Wrap(err, perrors.CodeDatabase, "store: scan profile")
		}
		p.CreatedAt, err = time.Parse(createdAtLayout, created)
		if err != nil {
			return nil, perrors.Wrapf(err, perrors.CodeDatabase, "store: profile %s has invalid created_at", p.ID)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, perrors.Wrap(err, perrors.CodeDatabase, "store: list profiles")
	}
	return out, nil
}

// Close implements Store.
func (s *SQL) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDuplicateEmail reports a violation of the email index only. Other
// unique violations, such as a colliding id, are database errors.
func isDuplicateEmail(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		// sqlite names the indexed column, not the index.
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(sqliteErr.Error(), "profiles.email_key")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailIndexName
	}
	return false
}
