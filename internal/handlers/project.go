package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/nsetools/project-scheduler/internal/middleware"
	"github.com/nsetools/project-scheduler/internal/models"
	"github.com/nsetools/project-scheduler/internal/repo"
)

// ==========================
// ProjectHandler
// ==========================
type ProjectHandler struct {
	Repo      *repo.ProjectRepo
	AuditRepo *repo.AuditRepo
}

// phaseInput is the wire shape for a phase, shared by project create and the
// add-phase route.
type phaseInput struct {
	Name       string             `json:"name" validate:"required,min=1,max=255"`
	StartDate  *time.Time         `json:"startDate"`
	EndDate    *time.Time         `json:"endDate"`
	Status     string             `json:"status"`
	Progress   int                `json:"progress" validate:"min=0,max=100"`
	Assignees  []string           `json:"assignees"`
	Milestones []models.Milestone `json:"milestones"`
}

func (in phaseInput) toModel() models.Phase {
	status := in.Status
	if status == "" {
		status = models.PhasePlanning
	}
	return models.Phase{
		Name:       in.Name,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Status:     status,
		Progress:   in.Progress,
		Assignees:  in.Assignees,
		Milestones: in.Milestones,
	}
}

// ==========================
// Create Project
// ==========================
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name          string     `json:"name" validate:"required,min=1,max=255"`
		ProjectNumber string     `json:"projectNumber" validate:"required"`
		Manager       string     `json:"manager" validate:"required"`
		Status        string     `json:"status"`
		Progress      int        `json:"progress" validate:"min=0,max=100"`
		Deadline      *time.Time `json:"deadline"`

		Team []struct {
			Name string `json:"name" validate:"required"`
			Role string `json:"role" validate:"required"`
		} `json:"team" validate:"dive"`
		Phases []phaseInput `json:"phases" validate:"dive"`

		TotalManHours       float64 `json:"totalManHours" validate:"min=0"`
		DesiredManpower     float64 `json:"desiredManpower" validate:"min=0"`
		Efficiency          float64 `json:"efficiency" validate:"min=0,max=1"`
		TargetDurationWeeks float64 `json:"targetDurationWeeks" validate:"min=0"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, ph := range input.Phases {
		if ph.Status != "" && !models.ValidPhaseStatus(ph.Status) {
			JSONError(w, "invalid phase status", http.StatusBadRequest)
			return
		}
	}

	project := models.Project{
		Name:                input.Name,
		ProjectNumber:       input.ProjectNumber,
		Manager:             input.Manager,
		Status:              input.Status,
		Progress:            input.Progress,
		Deadline:            input.Deadline,
		TotalManHours:       input.TotalManHours,
		DesiredManpower:     input.DesiredManpower,
		Efficiency:          input.Efficiency,
		TargetDurationWeeks: input.TargetDurationWeeks,
	}
	if project.Status == "" {
		project.Status = "Active"
	}
	if project.DesiredManpower == 0 {
		project.DesiredManpower = 1
	}
	if project.Efficiency == 0 {
		project.Efficiency = 0.8
	}
	for _, m := range input.Team {
		project.Team = append(project.Team, models.TeamMember{Name: m.Name, Role: m.Role})
	}
	for _, ph := range input.Phases {
		project.Phases = append(project.Phases, ph.toModel())
	}

	created, err := h.Repo.Create(r.Context(), project)
	if err != nil {
		slog.Error("project: create", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, "create", created.ID)
	JSON(w, created, http.StatusCreated)
}

// ==========================
// List Projects
// ==========================
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	projects, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("project: list", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		slog.Error("project: count", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"items":  projects,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}, http.StatusOK)
}

// ==========================
// Get Project
// ==========================
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get")
		return
	}

	JSON(w, project, http.StatusOK)
}

// ==========================
// Update Project (details and calculator fields; partial)
// ==========================
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var input struct {
		Name          *string    `json:"name"`
		ProjectNumber *string    `json:"projectNumber"`
		Manager       *string    `json:"manager"`
		Status        *string    `json:"status"`
		Progress      *int       `json:"progress"`
		Deadline      *time.Time `json:"deadline"`

		TotalManHours       *float64 `json:"totalManHours"`
		DesiredManpower     *float64 `json:"desiredManpower"`
		Efficiency          *float64 `json:"efficiency"`
		TargetDurationWeeks *float64 `json:"targetDurationWeeks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// Absent fields keep their stored values; this mirrors the partial
	// document updates clients send (often just the calculator block).
	current, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "update")
		return
	}

	fields := make(map[string]string)
	if input.Name != nil {
		if *input.Name == "" {
			fields["name"] = "required"
		}
		current.Name = *input.Name
	}
	if input.ProjectNumber != nil {
		current.ProjectNumber = *input.ProjectNumber
	}
	if input.Manager != nil {
		current.Manager = *input.Manager
	}
	if input.Status != nil {
		current.Status = *input.Status
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			fields["progress"] = "must be between 0 and 100"
		}
		current.Progress = *input.Progress
	}
	if input.Deadline != nil {
		current.Deadline = input.Deadline
	}
	if input.TotalManHours != nil {
		if *input.TotalManHours < 0 {
			fields["totalManHours"] = "must not be negative"
		}
		current.TotalManHours = *input.TotalManHours
	}
	if input.DesiredManpower != nil {
		if *input.DesiredManpower < 0 {
			fields["desiredManpower"] = "must not be negative"
		}
		current.DesiredManpower = *input.DesiredManpower
	}
	if input.Efficiency != nil {
		if *input.Efficiency < 0 || *input.Efficiency > 1 {
			fields["efficiency"] = "must be between 0 and 1"
		}
		current.Efficiency = *input.Efficiency
	}
	if input.TargetDurationWeeks != nil {
		if *input.TargetDurationWeeks < 0 {
			fields["targetDurationWeeks"] = "must not be negative"
		}
		current.TargetDurationWeeks = *input.TargetDurationWeeks
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	project, err := h.Repo.Update(r.Context(), id, *current)
	if err != nil {
		h.storeError(w, err, "update")
		return
	}

	h.audit(r, "update", id)
	JSON(w, project, http.StatusOK)
}

// ==========================
// Update Progress
// ==========================
func (h *ProjectHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var input struct {
		Progress int `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Progress < 0 || input.Progress > 100 {
		JSONError(w, "progress must be between 0 and 100", http.StatusBadRequest)
		return
	}

	project, err := h.Repo.UpdateProgress(r.Context(), id, input.Progress)
	if err != nil {
		h.storeError(w, err, "update progress")
		return
	}

	h.audit(r, "update", id)
	JSON(w, project, http.StatusOK)
}

// ==========================
// Delete Project
// ==========================
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.storeError(w, err, "delete")
		return
	}

	h.audit(r, "delete", id)
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Add Team Member
// ==========================
func (h *ProjectHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var input struct {
		Name string `json:"name" validate:"required"`
		Role string `json:"role" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	exists, err := h.Repo.Exists(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "add team member")
		return
	}
	if !exists {
		JSONError(w, "project not found", http.StatusNotFound)
		return
	}

	if _, err := h.Repo.AddTeamMember(r.Context(), id, input.Name, input.Role); err != nil {
		h.storeError(w, err, "add team member")
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "add team member")
		return
	}

	h.audit(r, "update", id)
	JSON(w, project, http.StatusOK)
}

// ==========================
// Remove Team Member
// ==========================
func (h *ProjectHandler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	memberID, err := strconv.Atoi(chi.URLParam(r, "memberId"))
	if err != nil {
		JSONError(w, "invalid member id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.RemoveTeamMember(r.Context(), id, memberID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "team member not found", http.StatusNotFound)
			return
		}
		h.storeError(w, err, "remove team member")
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "remove team member")
		return
	}

	h.audit(r, "update", id)
	JSON(w, project, http.StatusOK)
}

// ==========================
// Add Phase (prepends, matching the historical client behavior)
// ==========================
func (h *ProjectHandler) AddPhase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var input phaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.Status != "" && !models.ValidPhaseStatus(input.Status) {
		JSONError(w, "invalid phase status", http.StatusBadRequest)
		return
	}

	exists, err := h.Repo.Exists(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "add phase")
		return
	}
	if !exists {
		JSONError(w, "project not found", http.StatusNotFound)
		return
	}

	if _, err := h.Repo.AddPhase(r.Context(), id, input.toModel()); err != nil {
		h.storeError(w, err, "add phase")
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "add phase")
		return
	}

	h.audit(r, "update", id)
	JSON(w, project, http.StatusOK)
}

// ==========================
// Helpers
// ==========================

func (h *ProjectHandler) projectID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *ProjectHandler) storeError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "project not found", http.StatusNotFound)
		return
	}
	slog.Error("project: "+op, "err", err)
	JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
}

func (h *ProjectHandler) audit(r *http.Request, action string, projectID int) {
	if h.AuditRepo == nil {
		return
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		_ = h.AuditRepo.Log(r.Context(), userID, action, "project", projectID, "")
	}
}
