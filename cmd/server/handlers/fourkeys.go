package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/internal/metrics"
	"github.com/akawula/fourkeys/params"
	"github.com/akawula/fourkeys/report"
)

// Calculator is implemented by *fourkeys.Service.
type Calculator interface {
	DeploymentFrequency(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, cfg fourkeys.DeploymentConfig) (*fourkeys.DeploymentFrequencyResult, error)
	LeadTime(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period) (*fourkeys.LeadTimeResult, error)
	ChangeFailureRate(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, dcfg fourkeys.DeploymentConfig, fcfg fourkeys.FailureConfig) (*fourkeys.ChangeFailureRateResult, error)
	MTTR(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, fcfg fourkeys.FailureConfig) (*fourkeys.MTTRResult, error)
	Summary(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, dcfg fourkeys.DeploymentConfig, fcfg fourkeys.FailureConfig) (*fourkeys.Summary, error)
}

// FourKeysHandler serves the metric endpoints under /repos/{owner}/{repo}.
// Every endpoint answers JSON, or markdown with ?format=markdown.
type FourKeysHandler struct {
	calc     Calculator
	defaults func() params.Defaults
	logger   *slog.Logger
}

func NewFourKeysHandler(calc Calculator, defaults func() params.Defaults, logger *slog.Logger) *FourKeysHandler {
	return &FourKeysHandler{calc: calc, defaults: defaults, logger: logger}
}

// Register mounts the endpoints on r.
func (h *FourKeysHandler) Register(r chi.Router) {
	r.Get("/four-keys", h.Summary)
	r.Get("/deployment-frequency", h.DeploymentFrequency)
	r.Get("/lead-time", h.LeadTime)
	r.Get("/change-failure-rate", h.ChangeFailureRate)
	r.Get("/mttr", h.MTTR)
}

func (h *FourKeysHandler) Summary(w http.ResponseWriter, r *http.Request) {
	repo, req, ctx, ok := h.request(w, r)
	if !ok {
		return
	}
	res, err := h.calc.Summary(ctx, repo, req.Period, req.Deployment, req.Failure)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	metrics.SetTiers(res.Repository, res.Tiers)
	respond(w, r, res, report.SummaryMarkdown)
}

func (h *FourKeysHandler) DeploymentFrequency(w http.ResponseWriter, r *http.Request) {
	repo, req, ctx, ok := h.request(w, r)
	if !ok {
		return
	}
	res, err := h.calc.DeploymentFrequency(ctx, repo, req.Period, req.Deployment)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	respond(w, r, res, report.DeploymentFrequencyMarkdown)
}

func (h *FourKeysHandler) LeadTime(w http.ResponseWriter, r *http.Request) {
	repo, req, ctx, ok := h.request(w, r)
	if !ok {
		return
	}
	res, err := h.calc.LeadTime(ctx, repo, req.Period)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	respond(w, r, res, report.LeadTimeMarkdown)
}

func (h *FourKeysHandler) ChangeFailureRate(w http.ResponseWriter, r *http.Request) {
	repo, req, ctx, ok := h.request(w, r)
	if !ok {
		return
	}
	res, err := h.calc.ChangeFailureRate(ctx, repo, req.Period, req.Deployment, req.Failure)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	respond(w, r, res, report.ChangeFailureRateMarkdown)
}

func (h *FourKeysHandler) MTTR(w http.ResponseWriter, r *http.Request) {
	repo, req, ctx, ok := h.request(w, r)
	if !ok {
		return
	}
	res, err := h.calc.MTTR(ctx, repo, req.Period, req.Failure)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	respond(w, r, res, report.MTTRMarkdown)
}

func (h *FourKeysHandler) request(w http.ResponseWriter, r *http.Request) (fourkeys.Repository, params.Request, context.Context, bool) {
	repo := fourkeys.Repository{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "repo")}
	ctx := logging.WithRepository(r.Context(), repo.String())

	req, err := params.Parse(r.URL.Query(), h.defaults())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return repo, params.Request{}, ctx, false
	}
	return repo, req, ctx, true
}

func (h *FourKeysHandler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "calculation failed", "error", err)
	}
	writeJSONError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fourkeys.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, fourkeys.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, fourkeys.ErrUpstreamFetch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respond[T any](w http.ResponseWriter, r *http.Request, res T, markdown func(T) string) {
	if r.URL.Query().Get("format") == "markdown" {
		writeMarkdown(w, markdown(res))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
