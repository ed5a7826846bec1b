package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/store"
)

type TrackedStore interface {
	ListTrackedRepositories(ctx context.Context) ([]store.TrackedRepository, error)
	GetTrackedRepository(ctx context.Context, repo fourkeys.Repository) (store.TrackedRepository, error)
	UpsertTrackedRepository(ctx context.Context, t store.TrackedRepository) (store.TrackedRepository, error)
}

// TrackedSettings is the body of PUT /tracked/{owner}/{repo}.
type TrackedSettings struct {
	Deployment fourkeys.DeploymentConfig `json:"deployment"`
	Failure    fourkeys.FailureConfig    `json:"failure"`
}

// ListTrackedHandler lists the repositories the cronjob reports on.
func ListTrackedHandler(db TrackedStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repos, err := db.ListTrackedRepositories(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "can't list tracked repositories", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, repos)
	}
}

func GetTrackedHandler(db TrackedStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo := fourkeys.Repository{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "repo")}
		t, err := db.GetTrackedRepository(r.Context(), repo)
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, "Repository is not tracked", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "can't get tracked repository", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// PutTrackedHandler starts tracking a repository or replaces its settings.
func PutTrackedHandler(db TrackedStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body TrackedSettings
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if body.Deployment.Method == "" {
			body.Deployment.Method = fourkeys.DeploymentMethodRelease
		}

		saved, err := db.UpsertTrackedRepository(r.Context(), store.TrackedRepository{
			Owner:      chi.URLParam(r, "owner"),
			Name:       chi.URLParam(r, "repo"),
			Deployment: body.Deployment,
			Failure:    body.Failure,
		})
		if errors.Is(err, fourkeys.ErrInvalidConfiguration) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "can't save tracked repository", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}
