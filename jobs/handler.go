package jobs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler serves the queue health endpoint.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler builds the handler. inspector may be nil when no queue is wired.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches queue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

// QueueHealth is the depth of one queue.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Paused    bool   `json:"paused"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Failed    int    `json:"failed_today"`
	Processed int    `json:"processed_today"`
}

type healthResponse struct {
	Enabled bool          `json:"enabled"`
	Queues  []QueueHealth `json:"queues"`
}

// Inspect collects the depth of every worker queue. Queues that have never
// received a task are reported empty.
func Inspect(inspector QueueInspector) ([]QueueHealth, error) {
	out := make([]QueueHealth, 0, len(QueuePriorities))
	for _, name := range QueueNames() {
		info, err := inspector.GetQueueInfo(name)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			out = append(out, QueueHealth{Queue: name})
			continue
		}
		if err != nil {
			return nil, err
		}
		q := QueueHealth{Queue: name}
		if info != nil {
			q.Paused = info.Paused
			q.Pending = info.Pending
			q.Active = info.Active
			q.Scheduled = info.Scheduled
			q.Retry = info.Retry
			q.Archived = info.Archived
			q.Failed = info.Failed
			q.Processed = info.Processed
		}
		out = append(out, q)
	}
	return out, nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, healthResponse{Queues: []QueueHealth{}})
		return
	}
	queues, err := Inspect(h.inspector)
	if err != nil {
		h.logger.Warn("queue health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue unavailable", "the task queue cannot be inspected")
		return
	}
	httpx.JSON(w, http.StatusOK, healthResponse{Enabled: true, Queues: queues})
}
