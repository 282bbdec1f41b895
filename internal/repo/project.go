package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/nsetools/project-scheduler/internal/models"
)

// ProjectRepo persists projects and their nested team members and phases.
type ProjectRepo struct {
	DB *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

const projectColumns = `id, name, project_number, manager, status, progress, deadline, total_man_hours, desired_manpower, efficiency, target_duration_weeks, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner, p *models.Project) error {
	return row.Scan(
		&p.ID, &p.Name, &p.ProjectNumber, &p.Manager, &p.Status, &p.Progress, &p.Deadline,
		&p.TotalManHours, &p.DesiredManpower, &p.Efficiency, &p.TargetDurationWeeks,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

// Create inserts the project row plus any nested team members and phases in
// one transaction, so a failed nested insert leaves nothing behind.
func (r *ProjectRepo) Create(ctx context.Context, in models.Project) (*models.Project, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p := &models.Project{}
	err = scanProject(tx.QueryRowContext(ctx, `
		INSERT INTO projects (name, project_number, manager, status, progress, deadline,
			total_man_hours, desired_manpower, efficiency, target_duration_weeks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+projectColumns,
		in.Name, in.ProjectNumber, in.Manager, in.Status, in.Progress, in.Deadline,
		in.TotalManHours, in.DesiredManpower, in.Efficiency, in.TargetDurationWeeks,
	), p)
	if err != nil {
		return nil, err
	}

	for _, m := range in.Team {
		member := models.TeamMember{ProjectID: p.ID}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO team_members (project_id, name, role)
			VALUES ($1, $2, $3)
			RETURNING id, name, role`,
			p.ID, m.Name, m.Role,
		).Scan(&member.ID, &member.Name, &member.Role)
		if err != nil {
			return nil, err
		}
		p.Team = append(p.Team, member)
	}

	for i, ph := range in.Phases {
		inserted, err := insertPhase(ctx, tx, p.ID, ph, i)
		if err != nil {
			return nil, err
		}
		p.Phases = append(p.Phases, *inserted)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func insertPhase(ctx context.Context, q execQuerier, projectID int, ph models.Phase, position int) (*models.Phase, error) {
	if ph.Status == "" {
		ph.Status = models.PhasePlanning
	}
	if ph.Assignees == nil {
		ph.Assignees = []string{}
	}
	if ph.Milestones == nil {
		ph.Milestones = []models.Milestone{}
	}
	milestones, err := json.Marshal(ph.Milestones)
	if err != nil {
		return nil, err
	}

	out := &models.Phase{ProjectID: projectID, Milestones: ph.Milestones}
	err = q.QueryRowContext(ctx, `
		INSERT INTO phases (project_id, name, start_date, end_date, status, progress, assignees, milestones, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, start_date, end_date, status, progress, assignees`,
		projectID, ph.Name, ph.StartDate, ph.EndDate, ph.Status, ph.Progress,
		pq.Array(ph.Assignees), milestones, position,
	).Scan(&out.ID, &out.Name, &out.StartDate, &out.EndDate, &out.Status, &out.Progress, pq.Array(&out.Assignees))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns project rows newest first, without nested team or phases.
// GetByID hydrates a single project fully.
func (r *ProjectRepo) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Count returns the total number of projects, for list pagination.
func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}

// GetByID returns the project with team members and phases attached.
func (r *ProjectRepo) GetByID(ctx context.Context, id int) (*models.Project, error) {
	p := &models.Project{}
	err := scanProject(r.DB.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1`,
		id,
	), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.Team, err = r.listTeam(ctx, id); err != nil {
		return nil, err
	}
	if p.Phases, err = r.listPhases(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) listTeam(ctx context.Context, projectID int) ([]models.TeamMember, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, role
		FROM team_members
		WHERE project_id = $1
		ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	team := []models.TeamMember{}
	for rows.Next() {
		m := models.TeamMember{ProjectID: projectID}
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		team = append(team, m)
	}
	return team, rows.Err()
}

func (r *ProjectRepo) listPhases(ctx context.Context, projectID int) ([]models.Phase, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, status, progress, assignees, milestones
		FROM phases
		WHERE project_id = $1
		ORDER BY position, id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phases := []models.Phase{}
	for rows.Next() {
		ph := models.Phase{ProjectID: projectID}
		var milestones []byte
		if err := rows.Scan(&ph.ID, &ph.Name, &ph.StartDate, &ph.EndDate, &ph.Status,
			&ph.Progress, pq.Array(&ph.Assignees), &milestones); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(milestones, &ph.Milestones); err != nil {
			return nil, err
		}
		phases = append(phases, ph)
	}
	return phases, rows.Err()
}

// Update replaces the project's own fields, calculator values included.
// Nested team and phases have their own operations.
func (r *ProjectRepo) Update(ctx context.Context, id int, in models.Project) (*models.Project, error) {
	p := &models.Project{}
	err := scanProject(r.DB.QueryRowContext(ctx, `
		UPDATE projects
		SET name = $1, project_number = $2, manager = $3, status = $4, progress = $5,
			deadline = $6, total_man_hours = $7, desired_manpower = $8, efficiency = $9,
			target_duration_weeks = $10, updated_at = now()
		WHERE id = $11
		RETURNING `+projectColumns,
		in.Name, in.ProjectNumber, in.Manager, in.Status, in.Progress, in.Deadline,
		in.TotalManHours, in.DesiredManpower, in.Efficiency, in.TargetDurationWeeks, id,
	), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateProgress sets the project's rollup progress. The caller validates the range.
func (r *ProjectRepo) UpdateProgress(ctx context.Context, id, progress int) (*models.Project, error) {
	p := &models.Project{}
	err := scanProject(r.DB.QueryRowContext(ctx, `
		UPDATE projects
		SET progress = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+projectColumns,
		progress, id,
	), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes the project; team members and phases cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTeamMember appends a member to the project's team.
func (r *ProjectRepo) AddTeamMember(ctx context.Context, projectID int, name, role string) (*models.TeamMember, error) {
	m := &models.TeamMember{ProjectID: projectID}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO team_members (project_id, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, name, role`,
		projectID, name, role,
	).Scan(&m.ID, &m.Name, &m.Role)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveTeamMember deletes one member from the project's team.
func (r *ProjectRepo) RemoveTeamMember(ctx context.Context, projectID, memberID int) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM team_members WHERE id = $1 AND project_id = $2`,
		memberID, projectID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhase prepends a phase to the project's phase list (lowest position
// sorts first).
func (r *ProjectRepo) AddPhase(ctx context.Context, projectID int, ph models.Phase) (*models.Phase, error) {
	var position int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(position), 1) - 1 FROM phases WHERE project_id = $1`,
		projectID,
	).Scan(&position)
	if err != nil {
		return nil, err
	}
	return insertPhase(ctx, r.DB, projectID, ph, position)
}

// Exists reports whether a project row exists, without hydrating it.
func (r *ProjectRepo) Exists(ctx context.Context, id int) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SyncProgress recomputes each project's progress as the rounded average of
// its phase progress. Projects without phases keep their manual value.
// Returns the number of projects updated.
func (r *ProjectRepo) SyncProgress(ctx context.Context) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE projects p
		SET progress = sub.avg_progress, updated_at = now()
		FROM (
			SELECT project_id, ROUND(AVG(progress))::int AS avg_progress
			FROM phases
			GROUP BY project_id
		) sub
		WHERE p.id = sub.project_id AND p.progress <> sub.avg_progress`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
