package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/shared"
)

// AuditEntity names production jobs in the audit trail.
const AuditEntity = "production_job"

// OrderRef is the slice of an order a job copies at creation.
type OrderRef struct {
	ID         string
	Number     string
	JobName    string
	ClientName string
}

// OrderDirectory resolves orders for job creation.
type OrderDirectory interface {
	OrderRef(ctx context.Context, orderID string) (OrderRef, error)
}

// OrderSync propagates job status changes to the owning order.
type OrderSync interface {
	SyncProduction(ctx context.Context, orderID, jobType, jobStatus string) error
}

// IdempotencyGuard claims request keys so retried mutations apply once.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Invalidator drops cached read models after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// ServiceParams groups the collaborators of Service.
type ServiceParams struct {
	Repo        Repository
	Engine      *Engine
	Orders      OrderDirectory
	Sync        OrderSync
	SyncMode    string
	Audit       shared.AuditTrail
	Idempotency IdempotencyGuard
	Metrics     *observability.Metrics
	Cache       Invalidator
	Logger      *slog.Logger
}

// Service orchestrates job lookups and phase transitions.
type Service struct {
	repo     Repository
	engine   *Engine
	orders   OrderDirectory
	sync     OrderSync
	syncMode string
	audit    shared.AuditTrail
	idem     IdempotencyGuard
	metrics  *observability.Metrics
	cache    Invalidator
	logger   *slog.Logger
}

// NewService constructs the production service.
func NewService(p ServiceParams) *Service {
	if p.Engine == nil {
		p.Engine = NewEngine()
	}
	if p.Audit == nil {
		p.Audit = shared.NewMemoryAuditTrail()
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.SyncMode == "" {
		p.SyncMode = "inline"
	}
	return &Service{
		repo:     p.Repo,
		engine:   p.Engine,
		orders:   p.Orders,
		sync:     p.Sync,
		syncMode: p.SyncMode,
		audit:    p.Audit,
		idem:     p.Idempotency,
		metrics:  p.Metrics,
		cache:    p.Cache,
		logger:   p.Logger.With(slog.String("module", "production")),
	}
}

// Engine exposes the phase engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// PhaseCommand identifies one start, end or skip request.
type PhaseCommand struct {
	JobID          string
	PhaseID        string
	Actor          Actor
	IdempotencyKey string
}

// CreateJobRequest is the payload for CreateJob.
type CreateJobRequest struct {
	OrderID string     `json:"order_id" validate:"required"`
	Type    JobType    `json:"type" validate:"required,oneof=design print press cut sew qc iron_packing"`
	Phases  []string   `json:"phases" validate:"omitempty,dive,required"`
	Notes   string     `json:"notes" validate:"max=500"`
	DueDate *time.Time `json:"due_date"`
}

// EditJobRequest carries corrective edits. Nil fields are left untouched.
type EditJobRequest struct {
	JobName *string     `json:"job_name" validate:"omitempty,min=1,max=120"`
	Notes   *string     `json:"notes" validate:"omitempty,max=500"`
	DueDate *time.Time  `json:"due_date"`
	Phases  []PhaseEdit `json:"phases" validate:"omitempty,dive"`
}

// PhaseEdit is a corrective edit of one phase.
type PhaseEdit struct {
	ID           string       `json:"id" validate:"required"`
	Name         *string      `json:"name" validate:"omitempty,min=1"`
	Assignee     *string      `json:"assignee"`
	AssigneeName *string      `json:"assignee_name"`
	Status       *PhaseStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed skipped"`
	Notes        *string      `json:"notes"`
}

// PhaseActions lists what an actor may do on a job's current phase.
type PhaseActions struct {
	CanStart bool `json:"can_start"`
	CanEnd   bool `json:"can_end"`
	CanSkip  bool `json:"can_skip"`
}

// ScanResult is returned to the floor scanner.
type ScanResult struct {
	JobView
	Actions PhaseActions `json:"actions"`
}

// Get loads one job.
func (s *Service) Get(ctx context.Context, id string) (JobView, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return JobView{}, err
	}
	return s.engine.View(job), nil
}

// List returns jobs matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]JobView, error) {
	jobs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, s.engine.View(job))
	}
	return out, nil
}

// Scan resolves a QR code and reports which actions actor may take.
func (s *Service) Scan(ctx context.Context, code string, actor Actor) (ScanResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ScanResult{}, shared.FieldErrors{"code": "is required"}
	}
	job, err := s.repo.FindByQRCode(ctx, code)
	if err != nil {
		return ScanResult{}, err
	}
	s.logger.Info("job scanned", slog.String("job", job.ID), slog.String("user", actor.ID))
	return ScanResult{JobView: s.engine.View(job), Actions: s.actionsFor(job, actor)}, nil
}

func (s *Service) actionsFor(job Job, actor Actor) PhaseActions {
	current := s.engine.CurrentPhase(&job)
	if current == nil {
		return PhaseActions{}
	}
	try := func(fn func(*Job, string, Actor) error) bool {
		draft := job.Clone()
		return fn(&draft, current.ID, actor) == nil
	}
	return PhaseActions{
		CanStart: try(s.engine.StartPhase),
		CanEnd:   try(s.engine.EndPhase),
		CanSkip:  try(s.engine.SkipPhase),
	}
}

// CreateJob opens a job for an order with its phase template.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest, actor Actor) (JobView, error) {
	if len(req.Phases) > 0 {
		trimmed := make([]string, len(req.Phases))
		for i, name := range req.Phases {
			trimmed[i] = strings.TrimSpace(name)
		}
		req.Phases = trimmed
	}
	if err := shared.ValidateStruct(req); err != nil {
		return JobView{}, err
	}
	if s.orders == nil {
		return JobView{}, errors.New("production: order directory not configured")
	}
	ref, err := s.orders.OrderRef(ctx, req.OrderID)
	if err != nil {
		return JobView{}, err
	}
	names := req.Phases
	if len(names) == 0 {
		names = PhaseTemplate(req.Type)
	}
	now := s.engine.Now()
	job := Job{
		ID:          uuid.NewString(),
		QRCode:      newQRCode(),
		OrderID:     ref.ID,
		OrderNumber: ref.Number,
		JobName:     ref.JobName,
		ClientName:  ref.ClientName,
		Type:        req.Type,
		Status:      JobPending,
		Notes:       strings.TrimSpace(req.Notes),
		DueDate:     req.DueDate,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, name := range names {
		job.Phases = append(job.Phases, Phase{
			ID:     uuid.NewString(),
			Name:   name,
			Kind:   KindFromName(name),
			Order:  i + 1,
			Status: PhasePending,
		})
	}
	s.engine.Reconcile(&job)
	if err := s.repo.Create(ctx, job); err != nil {
		return JobView{}, err
	}
	s.logger.Info("job created", slog.String("job", job.ID), slog.String("order", ref.Number), slog.String("type", string(job.Type)))
	s.record(ctx, actor, "job.create", job, map[string]any{"type": job.Type, "phases": len(job.Phases)})
	s.invalidate(ctx)
	return s.engine.View(job), nil
}

// StartPhase begins the referenced phase.
func (s *Service) StartPhase(ctx context.Context, cmd PhaseCommand) (JobView, error) {
	return s.transition(ctx, "start", cmd, s.engine.StartPhase)
}

// EndPhase completes the referenced phase.
func (s *Service) EndPhase(ctx context.Context, cmd PhaseCommand) (JobView, error) {
	return s.transition(ctx, "end", cmd, s.engine.EndPhase)
}

// SkipPhase skips the referenced phase.
func (s *Service) SkipPhase(ctx context.Context, cmd PhaseCommand) (JobView, error) {
	return s.transition(ctx, "skip", cmd, s.engine.SkipPhase)
}

func (s *Service) transition(ctx context.Context, action string, cmd PhaseCommand, apply func(*Job, string, Actor) error) (JobView, error) {
	module := "production:" + action
	if cmd.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, cmd.IdempotencyKey, module); err != nil {
			return JobView{}, err
		}
	}

	var (
		before JobStatus
		kind   PhaseKind
		phase  Phase
	)
	job, err := s.repo.Update(ctx, cmd.JobID, func(j *Job) error {
		before = j.Status
		if p := j.phase(cmd.PhaseID); p != nil {
			kind = p.Kind
		}
		if err := apply(j, cmd.PhaseID, cmd.Actor); err != nil {
			return err
		}
		phase = j.phase(cmd.PhaseID).clone()
		return nil
	})
	s.metrics.PhaseTransition(string(kind), action, err)
	if err != nil {
		if cmd.IdempotencyKey != "" && s.idem != nil {
			if delErr := s.idem.Delete(ctx, cmd.IdempotencyKey, module); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		s.logger.Info("phase transition rejected",
			slog.String("action", action),
			slog.String("job", cmd.JobID),
			slog.String("phase", cmd.PhaseID),
			slog.String("user", cmd.Actor.ID),
			slog.Any("error", err))
		return JobView{}, err
	}

	s.logger.Info("phase transition",
		slog.String("action", action),
		slog.String("job", job.ID),
		slog.String("phase", phase.Name),
		slog.String("user", cmd.Actor.ID))
	meta := map[string]any{"phase_id": phase.ID, "phase": phase.Name, "status": phase.Status}
	if phase.DurationMinutes != nil {
		meta["duration_minutes"] = *phase.DurationMinutes
		s.metrics.PhaseDuration(string(phase.Kind), *phase.DurationMinutes)
	}
	s.record(ctx, cmd.Actor, "phase."+action, job, meta)
	if job.Status != before {
		if job.Status == JobCompleted {
			s.metrics.JobCompleted(string(job.Type))
		}
		s.syncOrder(ctx, job)
	}
	s.invalidate(ctx)
	return s.engine.View(job), nil
}

// EditJob applies corrective edits outside the start/end state machine.
func (s *Service) EditJob(ctx context.Context, id string, req EditJobRequest, actor Actor) (JobView, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return JobView{}, err
	}
	var before JobStatus
	job, err := s.repo.Update(ctx, id, func(j *Job) error {
		before = j.Status
		return s.applyEdit(j, req)
	})
	if err != nil {
		return JobView{}, err
	}
	s.logger.Info("job edited", slog.String("job", job.ID), slog.String("user", actor.ID))
	s.record(ctx, actor, "job.edit", job, map[string]any{"phases": len(req.Phases)})
	if job.Status != before {
		s.syncOrder(ctx, job)
	}
	s.invalidate(ctx)
	return s.engine.View(job), nil
}

func (s *Service) applyEdit(j *Job, req EditJobRequest) error {
	now := s.engine.Now()
	if req.JobName != nil {
		name := strings.TrimSpace(*req.JobName)
		if name == "" {
			return shared.FieldErrors{"job_name": "is required"}
		}
		j.JobName = name
	}
	if req.Notes != nil {
		j.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.DueDate != nil {
		due := *req.DueDate
		j.DueDate = &due
	}
	for i, edit := range req.Phases {
		p := j.phase(edit.ID)
		if p == nil {
			return shared.FieldErrors{fmt.Sprintf("phases[%d].id", i): "does not belong to this job"}
		}
		if edit.Name != nil {
			name := strings.TrimSpace(*edit.Name)
			if name == "" {
				return shared.FieldErrors{fmt.Sprintf("phases[%d].name", i): "is required"}
			}
			p.Name = name
			p.Kind = KindFromName(p.Name)
		}
		if edit.Assignee != nil {
			p.Assignee = strings.TrimSpace(*edit.Assignee)
		}
		if edit.AssigneeName != nil {
			p.AssigneeName = strings.TrimSpace(*edit.AssigneeName)
		}
		if edit.Notes != nil {
			p.Notes = strings.TrimSpace(*edit.Notes)
		}
		if edit.Status != nil && *edit.Status != p.Status {
			setPhaseStatus(p, *edit.Status, now)
		}
	}
	running := 0
	for _, p := range j.Phases {
		if p.Status == PhaseInProgress {
			running++
		}
	}
	if running > 1 {
		return shared.FieldErrors{"phases": "only one phase may be in progress"}
	}
	j.UpdatedAt = now
	s.engine.Reconcile(j)
	return nil
}

func setPhaseStatus(p *Phase, status PhaseStatus, now time.Time) {
	p.Status = status
	switch status {
	case PhasePending:
		p.StartedAt, p.EndedAt, p.DurationMinutes = nil, nil, nil
	case PhaseInProgress:
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		p.EndedAt, p.DurationMinutes = nil, nil
	case PhaseCompleted:
		if p.EndedAt == nil {
			p.EndedAt = &now
		}
		if p.StartedAt != nil && p.DurationMinutes == nil {
			minutes := int(p.EndedAt.Sub(*p.StartedAt).Round(time.Minute).Minutes())
			p.DurationMinutes = &minutes
		}
	}
}

// History returns the audit trail of a job, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]shared.AuditLog, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, AuditEntity, id)
}

func (s *Service) record(ctx context.Context, actor Actor, action string, job Job, meta map[string]any) {
	entry := shared.AuditLog{
		Actor:    actor.ID,
		Action:   action,
		Entity:   AuditEntity,
		EntityID: job.ID,
		Meta:     meta,
		At:       job.UpdatedAt,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("job", job.ID), slog.Any("error", err))
	}
}

func (s *Service) syncOrder(ctx context.Context, job Job) {
	if s.sync == nil {
		return
	}
	err := s.sync.SyncProduction(ctx, job.OrderID, string(job.Type), string(job.Status))
	s.metrics.OrderSync(s.syncMode, err)
	if err != nil {
		s.logger.Warn("order sync failed",
			slog.String("order", job.OrderID),
			slog.String("job_status", string(job.Status)),
			slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}

func newQRCode() string {
	return "JOB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
