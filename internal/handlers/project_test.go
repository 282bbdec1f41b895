package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/nsetools/project-scheduler/internal/repo"
)

func newProjectRouter(t *testing.T) (chi.Router, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &ProjectHandler{Repo: repo.NewProjectRepo(db)}

	r := chi.NewRouter()
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Get("/{id}", h.GetProject)
		r.Delete("/{id}", h.DeleteProject)
		r.Patch("/{id}/progress", h.UpdateProgress)
		r.Delete("/{id}/team/{memberId}", h.RemoveTeamMember)
	})
	return r, mock, func() { db.Close() }
}

func projectRows(id int, name string, progress int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "project_number", "manager", "status", "progress", "deadline",
		"total_man_hours", "desired_manpower", "efficiency", "target_duration_weeks",
		"created_at", "updated_at",
	}).AddRow(id, name, "#21000", "Gary Golden", "Active", progress, nil, 2000.0, 6.0, 0.6, 0.0, now, now)
}

func TestProjectHandler_Create(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("BECO TYSONS", "#21000", "Gary Golden", "Active", 0, nil, 0.0, 1.0, 0.8, 0.0).
		WillReturnRows(projectRows(1, "BECO TYSONS", 0))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]interface{}{
		"name":          "BECO TYSONS",
		"projectNumber": "#21000",
		"manager":       "Gary Golden",
	})
	req := httptest.NewRequest("POST", "/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body: %s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_Create_MissingFields(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	body, _ := json.Marshal(map[string]string{"name": "No Number"})
	req := httptest.NewRequest("POST", "/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id, name, project_number`).
		WithArgs(999).
		WillReturnError(errNoRows())

	req := httptest.NewRequest("GET", "/projects/999", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_UpdateProgress(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectQuery(`UPDATE projects`).
		WithArgs(80, 1).
		WillReturnRows(projectRows(1, "BECO TYSONS", 80))

	body, _ := json.Marshal(map[string]int{"progress": 80})
	req := httptest.NewRequest("PATCH", "/projects/1/progress", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_UpdateProgress_OutOfRange(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	for _, progress := range []int{-1, 101, 150} {
		body, _ := json.Marshal(map[string]int{"progress": progress})
		req := httptest.NewRequest("PATCH", "/projects/1/progress", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("progress %d: status got %d, want 400", progress, rr.Code)
		}
	}

	// No store access for out-of-range values.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_Delete(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM projects`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("DELETE", "/projects/1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_RemoveTeamMember_NotFound(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM team_members`).
		WithArgs(55, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest("DELETE", "/projects/1/team/55", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProjectHandler_List(t *testing.T) {
	r, mock, closeDB := newProjectRouter(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id, name, project_number`).
		WithArgs(50, 0).
		WillReturnRows(projectRows(1, "BECO TYSONS", 65))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	req := httptest.NewRequest("GET", "/projects", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var out struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "BECO TYSONS" || out.Total != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
