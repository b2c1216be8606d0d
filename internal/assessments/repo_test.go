package assessments

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the integration database.
// Skips the test if TEST_DB_DSN is not set.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(context.Background()))
	return pool
}

// newTestProject inserts the profile/project fixtures a score needs.
func newTestProject(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ctx := context.Background()

	ownerID := uuid.NewString()
	_, err := pool.Exec(ctx,
		`insert into profiles (id, email) values ($1::uuid, $2);`,
		ownerID, fmt.Sprintf("%s@example.com", ownerID[:8]))
	require.NoError(t, err)

	var projectID string
	err = pool.QueryRow(ctx,
		`insert into projects (owner_id, name, organization_name)
		 values ($1::uuid, 'Test Project', 'Test Org')
		 returning id::text;`, ownerID).Scan(&projectID)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `delete from projects where id = $1::uuid;`, projectID)
		_, _ = pool.Exec(context.Background(), `delete from profiles where id = $1::uuid;`, ownerID)
	})
	return projectID
}

func TestEnsureOpen_CreatesExactlyOne(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewRepo(pool)
	projectID := newTestProject(t, pool)
	ctx := context.Background()

	a1, err := repo.EnsureOpen(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, projectID, a1.ProjectID)
	assert.Equal(t, "open", a1.Status)

	// A second ensure returns the same row.
	a2, err := repo.EnsureOpen(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, a1.ID, a2.ID)
}

func TestEnsureOpen_ConcurrentLoadsConvergeOnOneRow(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewRepo(pool)
	projectID := newTestProject(t, pool)

	const loaders = 8
	ids := make([]string, loaders)
	errs := make([]error, loaders)

	var wg sync.WaitGroup
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := repo.EnsureOpen(context.Background(), projectID)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < loaders; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "all loaders must see the same assessment")
	}

	var count int
	err := pool.QueryRow(context.Background(),
		`select count(*) from assessments where project_id = $1::uuid and status = 'open';`,
		projectID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "concurrent loads must not create duplicate assessments")
}

func TestUpsertScore_OverwritesOnConflict(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewRepo(pool)
	projectID := newTestProject(t, pool)
	ctx := context.Background()

	a, err := repo.EnsureOpen(ctx, projectID)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertScore(ctx, Score{
		AssessmentID: a.ID, QuestionID: "purpose_1", Domain: "purpose", Score: 4, Notes: "first pass",
	}))
	require.NoError(t, repo.UpsertScore(ctx, Score{
		AssessmentID: a.ID, QuestionID: "purpose_1", Domain: "purpose", Score: 8, Notes: "revised",
	}))

	scores, err := repo.Scores(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 8, scores[0].Score)
	assert.Equal(t, "revised", scores[0].Notes)
}

func TestNotes_OnlyNonEmpty(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewRepo(pool)
	projectID := newTestProject(t, pool)
	ctx := context.Background()

	a, err := repo.EnsureOpen(ctx, projectID)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertScore(ctx, Score{
		AssessmentID: a.ID, QuestionID: "purpose_1", Domain: "purpose", Score: 4, Notes: "remember this",
	}))
	require.NoError(t, repo.UpsertScore(ctx, Score{
		AssessmentID: a.ID, QuestionID: "purpose_2", Domain: "purpose", Score: 5,
	}))

	entries, err := repo.Notes(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "remember this", entries[0].Notes)
}

func TestDeleteStaleEmpty(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewRepo(pool)
	projectID := newTestProject(t, pool)
	ctx := context.Background()

	a, err := repo.EnsureOpen(ctx, projectID)
	require.NoError(t, err)

	// Not stale yet: nothing is deleted.
	n, err := repo.DeleteStaleEmpty(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	// Backdate it past the cutoff; with no scores it is collected.
	_, err = pool.Exec(ctx,
		`update assessments set created_at = now() - interval '60 days' where id = $1::uuid;`, a.ID)
	require.NoError(t, err)

	n, err = repo.DeleteStaleEmpty(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
