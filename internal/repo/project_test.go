package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nsetools/project-scheduler/internal/models"
)

func projectRows(id int, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "project_number", "manager", "status", "progress", "deadline",
		"total_man_hours", "desired_manpower", "efficiency", "target_duration_weeks",
		"created_at", "updated_at",
	}).AddRow(id, name, "#21000", "Gary Golden", "Active", 65, nil, 2000.0, 6.0, 0.6, 0.0, now, now)
}

func TestProjectRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("BECO TYSONS", "#21000", "Gary Golden", "Active", 65, nil, 2000.0, 6.0, 0.6, 0.0).
		WillReturnRows(projectRows(1, "BECO TYSONS"))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(1, "Dana", "Foreman").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role"}).AddRow(10, "Dana", "Foreman"))
	mock.ExpectCommit()

	repo := NewProjectRepo(db)
	project, err := repo.Create(context.Background(), models.Project{
		Name:            "BECO TYSONS",
		ProjectNumber:   "#21000",
		Manager:         "Gary Golden",
		Status:          "Active",
		Progress:        65,
		TotalManHours:   2000,
		DesiredManpower: 6,
		Efficiency:      0.6,
		Team:            []models.TeamMember{{Name: "Dana", Role: "Foreman"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.ID != 1 || len(project.Team) != 1 || project.Team[0].ID != 10 {
		t.Errorf("unexpected project: %+v", project)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_GetByID_Hydrated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, project_number`).
		WithArgs(1).
		WillReturnRows(projectRows(1, "BECO TYSONS"))
	mock.ExpectQuery(`SELECT id, name, role`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role"}).
			AddRow(10, "Dana", "Foreman").
			AddRow(11, "Lee", "Electrician"))
	mock.ExpectQuery(`SELECT id, name, start_date, end_date, status, progress, assignees, milestones`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "status", "progress", "assignees", "milestones"}).
			AddRow(20, "Rough-in", nil, nil, "Active", 40, []byte(`{Dana,Lee}`), []byte(`[{"name":"Inspection"}]`)))

	repo := NewProjectRepo(db)
	project, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(project.Team) != 2 {
		t.Errorf("team: got %d members, want 2", len(project.Team))
	}
	if len(project.Phases) != 1 {
		t.Fatalf("phases: got %d, want 1", len(project.Phases))
	}
	ph := project.Phases[0]
	if ph.Status != models.PhaseActive || ph.Progress != 40 {
		t.Errorf("unexpected phase: %+v", ph)
	}
	if len(ph.Assignees) != 2 || ph.Assignees[0] != "Dana" {
		t.Errorf("unexpected assignees: %v", ph.Assignees)
	}
	if len(ph.Milestones) != 1 || ph.Milestones[0].Name != "Inspection" {
		t.Errorf("unexpected milestones: %v", ph.Milestones)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM projects`).
		WithArgs(999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewProjectRepo(db)
	if err := repo.Delete(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_UpdateProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE projects`).
		WithArgs(80, 1).
		WillReturnRows(projectRows(1, "BECO TYSONS"))

	repo := NewProjectRepo(db)
	if _, err := repo.UpdateProgress(context.Background(), 1, 80); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_AddPhase_Prepends(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(MIN\(position\), 1\) - 1 FROM phases`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(-2))
	mock.ExpectQuery(`INSERT INTO phases`).
		WithArgs(1, "Punch list", nil, nil, "Planning", 0, sqlmock.AnyArg(), sqlmock.AnyArg(), -2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "status", "progress", "assignees"}).
			AddRow(21, "Punch list", nil, nil, "Planning", 0, []byte(`{}`)))

	repo := NewProjectRepo(db)
	phase, err := repo.AddPhase(context.Background(), 1, models.Phase{Name: "Punch list"})
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}
	if phase.ID != 21 || phase.Status != models.PhasePlanning {
		t.Errorf("unexpected phase: %+v", phase)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_RemoveTeamMember_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM team_members`).
		WithArgs(55, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewProjectRepo(db)
	if err := repo.RemoveTeamMember(context.Background(), 1, 55); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectRepo_SyncProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE projects p`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewProjectRepo(db)
	updated, err := repo.SyncProgress(context.Background())
	if err != nil {
		t.Fatalf("SyncProgress: %v", err)
	}
	if updated != 3 {
		t.Errorf("updated: got %d, want 3", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
