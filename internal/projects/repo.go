package projects

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/impactlens/impact-backend/internal/apperr"
)

// Status values a project may hold. Transitions are validated at the
// boundary only; there is no state machine.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
)

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusCompleted || s == StatusOnHold
}

type Project struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	OrganizationName string    `json:"organization_name"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const projectCols = `id::text, name, coalesce(description, ''), organization_name, status, created_at`

func (r *Repo) Create(ctx context.Context, ownerID, name, description, organizationName string) (*Project, error) {
	const q = `
insert into projects (owner_id, name, description, organization_name, status)
values ($1::uuid, $2, nullif($3, ''), $4, 'active')
returning ` + projectCols + `;
`
	var p Project
	err := r.db.QueryRow(ctx, q, ownerID, name, description, organizationName).
		Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationName, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, ownerID string) ([]Project, error) {
	const q = `
select ` + projectCols + `
from projects
where owner_id = $1::uuid
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationName, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches one project owned by ownerID. Projects belonging to someone
// else are indistinguishable from missing ones.
func (r *Repo) Get(ctx context.Context, ownerID, projectID string) (*Project, error) {
	const q = `
select ` + projectCols + `
from projects
where owner_id = $1::uuid and id = $2::uuid;
`
	var p Project
	err := r.db.QueryRow(ctx, q, ownerID, projectID).
		Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationName, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("project", projectID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, ownerID, projectID, status string) (*Project, error) {
	const q = `
update projects
set status = $3, updated_at = now()
where owner_id = $1::uuid and id = $2::uuid
returning ` + projectCols + `;
`
	var p Project
	err := r.db.QueryRow(ctx, q, ownerID, projectID, status).
		Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationName, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("project", projectID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountAll is used by the admin overview.
func (r *Repo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `select count(*) from projects;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
