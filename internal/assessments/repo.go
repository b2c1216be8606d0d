package assessments

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Assessment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Score struct {
	AssessmentID string `json:"assessment_id"`
	QuestionID   string `json:"question_id"`
	Domain       string `json:"domain"`
	Score        int    `json:"score"`
	Notes        string `json:"notes,omitempty"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// EnsureOpen returns the project's open assessment, creating it if absent.
// A partial unique index on (project_id) where status = 'open' makes the
// insert conditional, so concurrent page loads converge on one row instead
// of racing a read against an insert.
func (r *Repo) EnsureOpen(ctx context.Context, projectID string) (*Assessment, error) {
	const ins = `
insert into assessments (project_id, status)
values ($1::uuid, 'open')
on conflict (project_id) where status = 'open' do nothing;
`
	if _, err := r.db.Exec(ctx, ins, projectID); err != nil {
		return nil, err
	}

	const sel = `
select id::text, project_id::text, status, created_at
from assessments
where project_id = $1::uuid and status = 'open'
order by created_at desc
limit 1;
`
	var a Assessment
	err := r.db.QueryRow(ctx, sel, projectID).
		Scan(&a.ID, &a.ProjectID, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Scores lists every stored score for an assessment, question order
// unspecified (the view joins them back onto the catalog).
func (r *Repo) Scores(ctx context.Context, assessmentID string) ([]Score, error) {
	const q = `
select assessment_id::text, question_id, domain, score, coalesce(notes, '')
from assessment_scores
where assessment_id = $1::uuid;
`
	rows, err := r.db.Query(ctx, q, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Score, 0, 32)
	for rows.Next() {
		var s Score
		if err := rows.Scan(&s.AssessmentID, &s.QuestionID, &s.Domain, &s.Score, &s.Notes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertScore writes one answer. (assessment_id, question_id) is unique in
// the schema; re-answering overwrites.
func (r *Repo) UpsertScore(ctx context.Context, s Score) error {
	const q = `
insert into assessment_scores (assessment_id, question_id, domain, score, notes, updated_at)
values ($1::uuid, $2, $3, $4, nullif($5, ''), now())
on conflict (assessment_id, question_id) do update
set
  domain = excluded.domain,
  score = excluded.score,
  notes = excluded.notes,
  updated_at = now();
`
	_, err := r.db.Exec(ctx, q, s.AssessmentID, s.QuestionID, s.Domain, s.Score, s.Notes)
	return err
}

// NotesEntry is one non-empty note, for the notes export.
type NotesEntry struct {
	Domain     string
	QuestionID string
	Notes      string
}

// Notes lists the assessment's non-empty notes ordered by domain then
// question id, ready for grouping.
func (r *Repo) Notes(ctx context.Context, assessmentID string) ([]NotesEntry, error) {
	const q = `
select domain, question_id, notes
from assessment_scores
where assessment_id = $1::uuid and notes is not null and notes <> ''
order by domain, question_id;
`
	rows, err := r.db.Query(ctx, q, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotesEntry
	for rows.Next() {
		var e NotesEntry
		if err := rows.Scan(&e.Domain, &e.QuestionID, &e.Notes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountAll is used by the admin overview.
func (r *Repo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `select count(*) from assessments;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteStaleEmpty removes open assessments older than cutoff that never
// received a score. Run nightly.
func (r *Repo) DeleteStaleEmpty(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
delete from assessments a
where a.status = 'open'
  and a.created_at < $1
  and not exists (
    select 1 from assessment_scores s where s.assessment_id = a.id
  );
`
	ct, err := r.db.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
