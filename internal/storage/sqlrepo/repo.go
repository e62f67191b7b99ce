// Package sqlrepo holds the record-store queries shared by the SQLite and
// PostgreSQL backends. Queries are written with ? placeholders and rebound
// for the target dialect.
package sqlrepo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/clinicsched/internal/storage"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	// ReturningID inserts with "RETURNING id" instead of relying on LastInsertId.
	ReturningID bool
}

var (
	SQLite   = Dialect{Name: "sqlite", Placeholder: storage.QuestionPlaceholder}
	Postgres = Dialect{Name: "postgres", Placeholder: storage.DollarPlaceholder, ReturningID: true}
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

type Repo struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Repo {
	return &Repo{db: db, dialect: dialect}
}

// DB returns the underlying connection.
func (r *Repo) DB() *sql.DB {
	return r.db
}

// rebind rewrites ? placeholders for the dialect.
func (r *Repo) rebind(query string) string {
	if r.dialect.Placeholder == nil || r.dialect.Name == SQLite.Name {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString(r.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repo) exec(query string, args ...any) (sql.Result, error) {
	return r.db.Exec(r.rebind(query), args...)
}

func (r *Repo) queryRow(query string, args ...any) *sql.Row {
	return r.db.QueryRow(r.rebind(query), args...)
}

func (r *Repo) query(query string, args ...any) (*sql.Rows, error) {
	return r.db.Query(r.rebind(query), args...)
}

// insert runs an INSERT and returns the generated id.
func (r *Repo) insert(query string, args ...any) (int, error) {
	if r.dialect.ReturningID {
		var id int
		if err := r.queryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := r.exec(query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// updateOne runs an UPDATE that must touch exactly one row.
func (r *Repo) updateOne(what string, id int, query string, args ...any) error {
	res, err := r.exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, storage.ErrNotFound)
	}
	return nil
}

func notFound(err error, what string, id int) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}
