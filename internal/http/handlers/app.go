package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"thumbly/internal/domain"
	"thumbly/internal/infra"
	"thumbly/internal/providers/imagekit"
	"thumbly/internal/thumbgen"
)

// GenerationService runs the thumbnail pipeline for one request.
type GenerationService interface {
	Generate(ctx context.Context, req *thumbgen.GenerateRequest) (*thumbgen.Result, error)
}

// UploadAuthorizer mints client-side upload credentials.
type UploadAuthorizer interface {
	NewUploadAuth() imagekit.UploadAuth
}

// App carries the handler dependencies.
type App struct {
	Logger   infra.Logger
	Config   *infra.Config
	Service  GenerationService
	Users    domain.UserRepository
	Uploader UploadAuthorizer
}

func NewApp(logger infra.Logger, cfg *infra.Config, svc GenerationService, users domain.UserRepository, uploader UploadAuthorizer) *App {
	return &App{
		Logger:   logger,
		Config:   cfg,
		Service:  svc,
		Users:    users,
		Uploader: uploader,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type failBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func (a *App) fail(w http.ResponseWriter, code int, message string) {
	a.json(w, code, failBody{Error: message, Message: message, Success: false})
}

// statusForError maps the error taxonomy to HTTP statuses. Client-caused
// failures are 4xx; collaborator failures are 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrTooManyImages), errors.Is(err, domain.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateUser):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
