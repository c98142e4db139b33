package production

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// IdempotencyHeader carries the client supplied key for phase mutations.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes job endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Job routes - View
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermJobsView))
		r.Get("/jobs", h.listJobs)
		r.Get("/jobs/{id}", h.showJob)
		r.Get("/jobs/{id}/history", h.jobHistory)
	})

	// Scanner
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermJobsScan))
		r.Post("/scan", h.scan)
	})

	// Job routes - Create
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermJobsCreate))
		r.Post("/jobs", h.createJob)
	})

	// Job routes - Edit
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermJobsEdit))
		r.Patch("/jobs/{id}", h.editJob)
	})

	// Phase transitions
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermJobsPhaseUpdate))
		r.Post("/jobs/{id}/phases/{phaseID}/start", h.phaseAction(h.service.StartPhase))
		r.Post("/jobs/{id}/phases/{phaseID}/end", h.phaseAction(h.service.EndPhase))
		r.Post("/jobs/{id}/phases/{phaseID}/skip", h.phaseAction(h.service.SkipPhase))
	})
}

func actorFrom(r *http.Request) (Actor, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: user.ID, Name: user.Name, Role: user.Role, Department: user.Department}, true
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:  JobStatus(q.Get("status")),
		OrderID: q.Get("order_id"),
		Search:  q.Get("search"),
	}
	if q.Get("mine") == "true" {
		if actor, ok := actorFrom(r); ok {
			filter.Assignee = actor.ID
		}
	}
	jobs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list jobs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"jobs": jobs, "total": len(jobs)})
}

func (h *Handler) showJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) jobHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type scanForm struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var form scanForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Scan(r.Context(), form.Code, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req CreateJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	job, err := h.service.CreateJob(r.Context(), req, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, job)
}

func (h *Handler) editJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req EditJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	job, err := h.service.EditJob(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) phaseAction(apply func(context.Context, PhaseCommand) (JobView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		job, err := apply(r.Context(), PhaseCommand{
			JobID:          chi.URLParam(r, "id"),
			PhaseID:        chi.URLParam(r, "phaseID"),
			Actor:          actor,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyHeader)),
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, job)
	}
}
