package agents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/internal/shared"
)

var ErrNotFound = shared.NotFound("Agent")

// Repository defines persistence operations for agents.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindByEmail(ctx context.Context, email string) (*Agent, error)
	List(ctx context.Context) ([]Agent, error)
	Insert(ctx context.Context, a *Agent) error
	Save(ctx context.Context, a *Agent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const selectAgent = `
	SELECT id, name, email, password_hash, phone, city, sales, status, join_date,
	       permissions, created_at, updated_at
	FROM agents`

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	var status string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone, &a.City, &a.Sales,
		&status, &a.JoinDate, &a.Permissions, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
	return &a, nil
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Agent, error) {
	a, err := scanAgent(r.db.QueryRow(ctx, selectAgent+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, db.Translate(err, "Agent")
}

// FindByEmail fetches an agent by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Agent, error) {
	a, err := scanAgent(r.db.QueryRow(ctx, selectAgent+` WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, db.Translate(err, "Agent")
}

func (r *PGRepository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.db.Query(ctx, selectAgent+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "Agent")
	}
	defer rows.Close()

	out := []Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, db.Translate(err, "Agent")
		}
		out = append(out, *a)
	}
	return out, db.Translate(rows.Err(), "Agent")
}

func (r *PGRepository) Insert(ctx context.Context, a *Agent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO agents (id, name, email, password_hash, phone, city, sales, status, join_date,
		                    permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Phone, a.City, a.Sales, string(a.Status), a.JoinDate,
		a.Permissions, a.CreatedAt, a.UpdatedAt)
	return db.Translate(err, "Agent")
}

func (r *PGRepository) Save(ctx context.Context, a *Agent) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE agents
		SET name = $2, email = $3, password_hash = $4, phone = $5, city = $6, sales = $7,
		    status = $8, join_date = $9, permissions = $10, updated_at = $11
		WHERE id = $1`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Phone, a.City, a.Sales, string(a.Status),
		a.JoinDate, a.Permissions, a.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Agent")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Agent")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
