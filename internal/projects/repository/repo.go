package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

const projectColumns = `id, title, description, technologies, github_url, live_demo_url, owner_id, created_at`

// ProjectRepository provides persistence operations for projects.
// Every query is scoped by owner id.
type ProjectRepository struct {
	db    *sql.DB
	newID func() string
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db, newID: uuid.NewString}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Technologies,
		&p.GithubURL, &p.LiveDemoURL, &p.OwnerID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects for the owner, newest first.
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert creates a project for the owner. The id and created_at are assigned here.
func (r *ProjectRepository) Insert(ctx context.Context, ownerID string, f domain.Fields) (*domain.Project, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id required")
	}
	f = f.Normalize()

	q := `
INSERT INTO projects (id, title, description, technologies, github_url, live_demo_url, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + projectColumns + `;
`
	for i := 0; i < 5; i++ {
		row := r.db.QueryRowContext(ctx, q, r.newID(), f.Title, f.Description, f.Technologies,
			f.GithubURL, f.LiveDemoURL, ownerID)
		p, err := scanProject(row)
		if err == nil {
			return p, nil
		}

		// unique violation on id → retry
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// Update replaces the mutable fields of a project. id and owner_id are never written.
func (r *ProjectRepository) Update(ctx context.Context, ownerID, id string, f domain.Fields) (*domain.Project, error) {
	f = f.Normalize()

	q := `
UPDATE projects
SET title = $3, description = $4, technologies = $5, github_url = $6, live_demo_url = $7
WHERE owner_id = $1 AND id = $2
RETURNING ` + projectColumns + `;
`
	row := r.db.QueryRowContext(ctx, q, ownerID, id, f.Title, f.Description, f.Technologies,
		f.GithubURL, f.LiveDemoURL)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// Delete removes a project. It reports false when nothing matched.
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	const q = `DELETE FROM projects WHERE owner_id = $1 AND id = $2;`

	result, err := r.db.ExecContext(ctx, q, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
