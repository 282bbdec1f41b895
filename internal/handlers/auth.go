package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nsetools/project-scheduler/internal/auth"
	"github.com/nsetools/project-scheduler/internal/metrics"
	"github.com/nsetools/project-scheduler/internal/middleware"
	"github.com/nsetools/project-scheduler/internal/repo"
)

// namePattern and emailPattern are the exact patterns signup enforces. The
// email one is stricter than validator's email tag (2-4 letter TLD).
var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z ]+$`)
	emailPattern = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)
)

const dateLayout = "2006-01-02"

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo  *repo.UserRepo
	AuditRepo *repo.AuditRepo
	Issuer    *auth.Issuer
}

// ==========================
// Signup
// ==========================
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name" validate:"required"`
		Email       string `json:"email" validate:"required"`
		Password    string `json:"password" validate:"required,min=8"`
		DateOfBirth string `json:"dateOfBirth" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Password = strings.TrimSpace(input.Password)
	input.DateOfBirth = strings.TrimSpace(input.DateOfBirth)

	fields := make(map[string]string)
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Password":
					fields["password"] = "must be at least 8 characters long"
				default:
					fields[strings.ToLower(fe.Field())] = "required"
				}
			}
		}
	}
	if input.Name != "" && !namePattern.MatchString(input.Name) {
		fields["name"] = "can only contain letters"
	}
	if input.Email != "" && !emailPattern.MatchString(input.Email) {
		fields["email"] = "invalid email format"
	}
	var dob *time.Time
	if input.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, input.DateOfBirth)
		if err != nil {
			fields["dateOfBirth"] = "invalid date of birth"
		} else {
			dob = &parsed
		}
	}
	if len(fields) > 0 {
		metrics.SignupTotal.WithLabelValues("validation").Inc()
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		slog.Error("signup: hash password", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.UserRepo.Create(r.Context(), input.Name, input.Email, hash, dob)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			metrics.SignupTotal.WithLabelValues("duplicate").Inc()
			JSONError(w, "email already exists", http.StatusBadRequest)
			return
		}
		slog.Error("signup: create user", "err", err)
		metrics.SignupTotal.WithLabelValues("error").Inc()
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		slog.Error("signup: issue token", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.SignupTotal.WithLabelValues("success").Inc()
	JSON(w, map[string]interface{}{
		"token": token,
		"user":  user,
	}, http.StatusCreated)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Email == "" || input.Password == "" {
		JSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			slog.Error("login: lookup user", "err", err)
			metrics.LoginTotal.WithLabelValues("error").Inc()
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		// Same cost and same body as a wrong password.
		auth.BurnHashCheck(input.Password)
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		JSONError(w, ErrMessageInvalidCredentials, http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		metrics.LoginTotal.WithLabelValues("invalid_credentials").Inc()
		JSONError(w, ErrMessageInvalidCredentials, http.StatusUnauthorized)
		return
	}

	token, err := h.Issuer.Issue(user.ID)
	if err != nil {
		slog.Error("login: issue token", "err", err)
		metrics.LoginTotal.WithLabelValues("error").Inc()
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.LoginTotal.WithLabelValues("success").Inc()
	JSON(w, map[string]interface{}{
		"token": token,
		"user":  user,
	}, http.StatusOK)
}

// ==========================
// Get Profile
// ==========================
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.UserRepo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("profile: get user", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, user, http.StatusOK)
}

// ==========================
// Update Profile (name and date of birth only; an omitted date of birth
// keeps the stored value)
// ==========================
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Name        string `json:"name"`
		DateOfBirth string `json:"dateOfBirth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	input.Name = strings.TrimSpace(input.Name)

	fields := make(map[string]string)
	if input.Name == "" {
		fields["name"] = "required"
	} else if !namePattern.MatchString(input.Name) {
		fields["name"] = "can only contain letters"
	}
	var dob *time.Time
	if s := strings.TrimSpace(input.DateOfBirth); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			fields["dateOfBirth"] = "invalid date of birth"
		} else {
			dob = &parsed
		}
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.UpdateProfile(r.Context(), userID, input.Name, dob)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("profile: update user", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.AuditRepo != nil {
		_ = h.AuditRepo.Log(r.Context(), userID, "update", "profile", userID, "")
	}

	JSON(w, user, http.StatusOK)
}
