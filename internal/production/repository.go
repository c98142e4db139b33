package production

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/printdesk/printdesk/internal/platform/latency"
)

// Repository persists jobs.
type Repository interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	FindByQRCode(ctx context.Context, code string) (Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
	// Update applies fn to a copy of the job and stores the copy only when fn
	// succeeds.
	Update(ctx context.Context, id string, fn func(*Job) error) (Job, error)
}

// MemoryRepository keeps jobs in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	jobs    map[string]Job
	qr      map[string]string
	byOrder map[string]string
	latency latency.Simulator
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository(sim latency.Simulator) *MemoryRepository {
	return &MemoryRepository{
		jobs:    make(map[string]Job),
		qr:      make(map[string]string),
		byOrder: make(map[string]string),
		latency: sim,
	}
}

// Create stores a new job. An order holds at most one job per type.
func (r *MemoryRepository) Create(ctx context.Context, job Job) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return conflict("job %s already exists", job.ID)
	}
	if _, exists := r.qr[normalizeCode(job.QRCode)]; exists {
		return conflict("qr code %s already in use", job.QRCode)
	}
	key := orderTypeKey(job.OrderID, job.Type)
	if _, exists := r.byOrder[key]; exists {
		return conflict("order %s already has a %s job", orderLabel(job), job.Type)
	}
	r.jobs[job.ID] = job.Clone()
	r.qr[normalizeCode(job.QRCode)] = job.ID
	r.byOrder[key] = job.ID
	return nil
}

// Get returns a job by id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (Job, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job.Clone(), nil
}

// FindByQRCode resolves a scanned code.
func (r *MemoryRepository) FindByQRCode(ctx context.Context, code string) (Job, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.qr[normalizeCode(code)]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return r.jobs[id].Clone(), nil
}

// List returns jobs matching filter, most recent first.
func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]Job, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.OrderID != "" && job.OrderID != filter.OrderID {
			continue
		}
		if filter.Assignee != "" && !assignedTo(job, filter.Assignee) {
			continue
		}
		if search != "" && !matchesSearch(job, search) {
			continue
		}
		out = append(out, job.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies fn under the write lock.
func (r *MemoryRepository) Update(ctx context.Context, id string, fn func(*Job) error) (Job, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	draft := current.Clone()
	if err := fn(&draft); err != nil {
		return Job{}, err
	}
	r.jobs[id] = draft
	return draft.Clone(), nil
}

func orderTypeKey(orderID string, t JobType) string {
	return orderID + "|" + string(t)
}

func orderLabel(job Job) string {
	if job.OrderNumber != "" {
		return job.OrderNumber
	}
	return job.OrderID
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func assignedTo(job Job, userID string) bool {
	for _, p := range job.Phases {
		if p.Assignee == userID {
			return true
		}
	}
	return false
}

func matchesSearch(job Job, term string) bool {
	for _, field := range []string{job.JobName, job.ClientName, job.OrderNumber, job.QRCode} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
