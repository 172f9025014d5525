package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/julienschmidt/httprouter"
)

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string `json:"accessToken"`
}

type createTaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
}

type updateStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) signUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}

	if err := s.accounts.SignUp(r.Context(), req.Username, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *HTTPServer) signIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if !decodeCredentials(w, r, &req) {
		return
	}

	token, err := s.accounts.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{AccessToken: token})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	account, _ := AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, account)
}

func (s *HTTPServer) listTasks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	account, _ := AccountFromContext(r.Context())

	q := r.URL.Query()
	filter := models.TaskFilter{Search: q.Get("search")}
	if v := q.Get("status"); v != "" {
		status := models.TaskStatus(v)
		filter.Status = &status
	}

	tasks, err := s.tasks.List(r.Context(), filter, account)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (s *HTTPServer) getTask(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	account, _ := AccountFromContext(r.Context())

	task, err := s.tasks.GetByID(r.Context(), ps.ByName("id"), account)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *HTTPServer) createTask(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	account, _ := AccountFromContext(r.Context())

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := s.tasks.Create(r.Context(), models.TaskDraft{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, account)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (s *HTTPServer) updateTaskStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	account, _ := AccountFromContext(r.Context())

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	task, err := s.tasks.UpdateStatus(r.Context(), ps.ByName("id"), req.Status, account)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *HTTPServer) deleteTask(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	account, _ := AccountFromContext(r.Context())

	if err := s.tasks.Delete(r.Context(), ps.ByName("id"), account); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, req *credentialsRequest) bool {
	if !decodeJSON(w, r, req) {
		return false
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes. Messages are
// fixed so responses never reveal why authentication or a lookup failed.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorConflict):
		writeError(w, http.StatusConflict, "username taken")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "invalid request")
	default:
		if !errors.Is(err, common.ErrorInternal) {
			s.logger.Error(r.Context(), "unexpected service error", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
