// Package profiles reads and maintains the application-level user record
// extending the provider identity with role flags.
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/impactlens/impact-backend/internal/apperr"
)

type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	IsSuperUser bool      `json:"is_super_user"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Get fetches the profile for the authenticated principal's id.
func (r *Repo) Get(ctx context.Context, userID string) (*Profile, error) {
	const q = `
select id::text, email, coalesce(full_name, ''), is_super_user, created_at
from profiles
where id = $1::uuid;
`
	var p Profile
	err := r.db.QueryRow(ctx, q, userID).
		Scan(&p.ID, &p.Email, &p.FullName, &p.IsSuperUser, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("profile", userID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountAll is used by the admin overview.
func (r *Repo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `select count(*) from profiles;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type UpsertProfile struct {
	UserID   string
	Email    string
	FullName string
}

// Ensure upserts the profile row for a principal on first authenticated
// request. The super-user flag is never written here; it is granted out of
// band.
func (r *Repo) Ensure(ctx context.Context, u UpsertProfile) (*Profile, error) {
	const q = `
insert into profiles (id, email, full_name, updated_at)
values ($1::uuid, $2, nullif($3, ''), now())
on conflict (id) do update
set
  email = excluded.email,
  full_name = coalesce(excluded.full_name, profiles.full_name),
  updated_at = now()
returning id::text, email, coalesce(full_name, ''), is_super_user, created_at;
`
	var p Profile
	err := r.db.QueryRow(ctx, q, u.UserID, u.Email, u.FullName).
		Scan(&p.ID, &p.Email, &p.FullName, &p.IsSuperUser, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
