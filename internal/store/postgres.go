// Package store provides RecordStore implementations: a PostgreSQL store
// for production and an in-memory store for tests.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhub/enrollhub/internal/core"
)

// DBTX is the subset of pgx operations the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx, so the same helpers run inside and outside
// transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS classrooms (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	age_range  TEXT NOT NULL,
	capacity   INT  NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_classrooms_user ON classrooms (user_id);

CREATE TABLE IF NOT EXISTS children (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	dob        TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_children_user ON children (user_id);

CREATE TABLE IF NOT EXISTS classroom_assignments (
	id           UUID PRIMARY KEY,
	user_id      TEXT NOT NULL,
	child_id     UUID NOT NULL REFERENCES children (id),
	classroom_id UUID NOT NULL REFERENCES classrooms (id),
	month        TEXT NOT NULL,
	schedule     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_assignments_user_month ON classroom_assignments (user_id, month);
`

// Postgres is the production RecordStore over a pgx connection pool.
// Identities are assigned client-side so batch creates can return full
// records without a round trip per row.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store over the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) ListClassrooms(ctx context.Context, userID string) ([]core.ClassroomRef, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name FROM classrooms WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []core.ClassroomRef
	for rows.Next() {
		var ref core.ClassroomRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (p *Postgres) ListChildren(ctx context.Context, userID string) ([]core.Child, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, first_name, last_name, dob FROM children WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []core.Child
	for rows.Next() {
		var c core.Child
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Dob); err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func (p *Postgres) CreateChildren(ctx context.Context, userID string, children []core.NewChild) ([]core.Child, error) {
	if len(children) == 0 {
		return nil, nil
	}

	created := make([]core.Child, len(children))
	batch := &pgx.Batch{}
	for i, c := range children {
		created[i] = core.Child{
			ID:        uuid.New(),
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Dob:       c.Dob,
		}
		batch.Queue(
			`INSERT INTO children (id, user_id, first_name, last_name, dob) VALUES ($1, $2, $3, $4, $5)`,
			created[i].ID, userID, c.FirstName, c.LastName, c.Dob)
	}

	if err := p.sendBatch(ctx, p.pool, batch); err != nil {
		return nil, fmt.Errorf("create children: %w", err)
	}
	return created, nil
}

func (p *Postgres) DeleteAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID) error {
	if len(childIDs) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx,
		`DELETE FROM classroom_assignments WHERE user_id = $1 AND month = $2 AND child_id = ANY($3)`,
		userID, month, childIDs)
	if err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}
	return nil
}

func (p *Postgres) CreateAssignments(ctx context.Context, userID string, assignments []core.NewAssignment) ([]uuid.UUID, error) {
	return p.createAssignments(ctx, p.pool, userID, assignments)
}

// ReplaceAssignments swaps the month's assignments for the given children
// in one transaction, closing the delete/insert window for SQL backends.
func (p *Postgres) ReplaceAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID, assignments []core.NewAssignment) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if len(childIDs) > 0 {
			if _, err := tx.Exec(ctx,
				`DELETE FROM classroom_assignments WHERE user_id = $1 AND month = $2 AND child_id = ANY($3)`,
				userID, month, childIDs); err != nil {
				return err
			}
		}
		var err error
		ids, err = p.createAssignments(ctx, tx, userID, assignments)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace assignments: %w", err)
	}
	return ids, nil
}

func (p *Postgres) createAssignments(ctx context.Context, db DBTX, userID string, assignments []core.NewAssignment) ([]uuid.UUID, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(assignments))
	batch := &pgx.Batch{}
	for i, a := range assignments {
		ids[i] = uuid.New()
		batch.Queue(
			`INSERT INTO classroom_assignments (id, user_id, child_id, classroom_id, month, schedule)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			ids[i], userID, a.ChildID, a.ClassroomID, a.Month, a.Schedule)
	}

	if err := p.sendBatch(ctx, db, batch); err != nil {
		return nil, fmt.Errorf("create assignments: %w", err)
	}
	return ids, nil
}

func (p *Postgres) CreateClassrooms(ctx context.Context, userID string, classrooms []core.NewClassroom) error {
	if len(classrooms) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range classrooms {
		batch.Queue(
			`INSERT INTO classrooms (id, user_id, name, age_range, capacity) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), userID, c.Name, c.AgeRange, c.Capacity)
	}

	if err := p.sendBatch(ctx, p.pool, batch); err != nil {
		return fmt.Errorf("create classrooms: %w", err)
	}
	return nil
}

func (p *Postgres) ListUserClassrooms(ctx context.Context, userID string) ([]core.Classroom, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, age_range, capacity FROM classrooms WHERE user_id = $1 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classrooms []core.Classroom
	for rows.Next() {
		var c core.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.AgeRange, &c.Capacity); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

func (p *Postgres) DeleteClassroom(ctx context.Context, userID string, id uuid.UUID) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM classrooms WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	return nil
}

// sendBatch runs a batch against pool or tx and surfaces the first error.
func (p *Postgres) sendBatch(ctx context.Context, db DBTX, batch *pgx.Batch) error {
	var br pgx.BatchResults
	switch d := db.(type) {
	case *pgxpool.Pool:
		br = d.SendBatch(ctx, batch)
	case pgx.Tx:
		br = d.SendBatch(ctx, batch)
	default:
		return fmt.Errorf("unsupported batch executor %T", db)
	}
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return br.Close()
}
