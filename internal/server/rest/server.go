// Package rest exposes the account and task services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/julienschmidt/httprouter"
)

// AccountService is the account use-case surface the HTTP layer needs.
type AccountService interface {
	SignUp(ctx context.Context, username, password string) error
	SignIn(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// TaskService is the task use-case surface the HTTP layer needs.
type TaskService interface {
	List(ctx context.Context, filter models.TaskFilter, account *models.Account) ([]*models.Task, error)
	GetByID(ctx context.Context, id string, account *models.Account) (*models.Task, error)
	Create(ctx context.Context, draft models.TaskDraft, account *models.Account) (*models.Task, error)
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus, account *models.Account) (*models.Task, error)
	Delete(ctx context.Context, id string, account *models.Account) error
}

const shutdownTimeout = 30 * time.Second

type HTTPServer struct {
	address  string
	accounts AccountService
	tasks    TaskService
	logger   logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, as AccountService, ts TaskService) *HTTPServer {
	return &HTTPServer{
		address:  a,
		logger:   l.With("module", "http_server"),
		accounts: as,
		tasks:    ts,
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *HTTPServer) Handler() http.Handler {
	router := httprouter.New()

	router.POST("/auth/signup", s.signUp)
	router.POST("/auth/signin", s.signIn)
	router.GET("/auth/me", s.requireAuth(s.me))

	router.GET("/tasks", s.requireAuth(s.listTasks))
	router.POST("/tasks", s.requireAuth(s.createTask))
	router.GET("/tasks/:id", s.requireAuth(s.getTask))
	router.PATCH("/tasks/:id/status", s.requireAuth(s.updateTaskStatus))
	router.DELETE("/tasks/:id", s.requireAuth(s.deleteTask))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error(r.Context(), "handler panic", "panic", v, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	return s.logRequests(router)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
