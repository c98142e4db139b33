package production

import (
	"math"
	"time"

	"github.com/printdesk/printdesk/internal/rbac"
)

// Engine applies phase transitions to a job. It mutates the job it is given and
// never touches storage; callers hand it a copy and persist only on success.
type Engine struct {
	now     func() time.Time
	matcher RoleMatcher
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMatcher overrides the role matcher.
func WithMatcher(m RoleMatcher) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// NewEngine constructs an engine with the strict kind matcher.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now, matcher: NewKindMatcher()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now exposes the engine clock.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// CurrentPhase returns the phase explicitly marked current, else the phase in
// progress, else the first pending phase in order. Nil when none exists.
func (e *Engine) CurrentPhase(job *Job) *Phase {
	if job.CurrentPhaseID != "" {
		if p := job.phase(job.CurrentPhaseID); p != nil {
			return p
		}
	}
	for i := range job.Phases {
		if job.Phases[i].Status == PhaseInProgress {
			return &job.Phases[i]
		}
	}
	return firstPending(job)
}

// Authorize reports whether actor may act on phase. Managers may act on any
// phase. Production staff may act when assigned to the phase or when their role
// matches it. Designers may act on design phases.
func (e *Engine) Authorize(actor Actor, phase *Phase) bool {
	if phase == nil {
		return false
	}
	if actor.Role.IsManager() {
		return true
	}
	switch actor.Department {
	case rbac.DeptProduction, rbac.DeptDesign:
	default:
		return false
	}
	if phase.Assignee != "" && phase.Assignee == actor.ID {
		return true
	}
	return e.matcher.Matches(actor.Role, *phase)
}

// StartPhase moves a pending phase to in_progress.
func (e *Engine) StartPhase(job *Job, phaseID string, actor Actor) error {
	phase := job.phase(phaseID)
	if phase == nil {
		return ErrPhaseNotFound
	}
	if phase.Status != PhasePending {
		return illegal("phase %q is %s and cannot be started", phase.Name, phase.Status)
	}
	for i := range job.Phases {
		other := &job.Phases[i]
		if other.ID == phase.ID {
			continue
		}
		if other.Status == PhaseInProgress {
			return illegal("phase %q is still in progress", other.Name)
		}
		if other.Order < phase.Order && !other.Status.Terminal() {
			return illegal("phase %q must be finished before %q", other.Name, phase.Name)
		}
	}
	if !e.Authorize(actor, phase) {
		return ErrNotAuthorized
	}

	now := e.Now()
	phase.Status = PhaseInProgress
	phase.StartedAt = &now
	phase.EndedAt = nil
	phase.DurationMinutes = nil
	if phase.Assignee == "" {
		phase.Assignee = actor.ID
		phase.AssigneeName = actor.Name
	}
	job.CurrentPhaseID = phase.ID
	job.Status = JobInProgress
	job.UpdatedAt = now
	return nil
}

// EndPhase completes an in_progress phase, records its duration in whole
// minutes and advances the job to the next pending phase. The job completes
// when nothing is left.
func (e *Engine) EndPhase(job *Job, phaseID string, actor Actor) error {
	phase := job.phase(phaseID)
	if phase == nil {
		return ErrPhaseNotFound
	}
	if phase.Status != PhaseInProgress {
		return illegal("phase %q is %s and cannot be ended", phase.Name, phase.Status)
	}
	if !e.Authorize(actor, phase) {
		return ErrNotAuthorized
	}

	now := e.Now()
	phase.Status = PhaseCompleted
	phase.EndedAt = &now
	if phase.StartedAt != nil {
		minutes := int(math.Round(now.Sub(*phase.StartedAt).Minutes()))
		if minutes < 0 {
			minutes = 0
		}
		phase.DurationMinutes = &minutes
	}
	job.UpdatedAt = now
	e.advance(job)
	return nil
}

// SkipPhase is a manager override marking a pending phase as skipped.
func (e *Engine) SkipPhase(job *Job, phaseID string, actor Actor) error {
	if !actor.Role.IsManager() {
		return ErrNotManager
	}
	phase := job.phase(phaseID)
	if phase == nil {
		return ErrPhaseNotFound
	}
	if phase.Status != PhasePending {
		return illegal("phase %q is %s and cannot be skipped", phase.Name, phase.Status)
	}
	now := e.Now()
	phase.Status = PhaseSkipped
	job.UpdatedAt = now
	if job.CurrentPhaseID == phase.ID {
		job.CurrentPhaseID = ""
	}
	e.advance(job)
	return nil
}

// Reconcile recomputes the derived job fields after free-form edits.
func (e *Engine) Reconcile(job *Job) {
	job.SortPhases()
	job.CurrentPhaseID = ""
	for i := range job.Phases {
		if job.Phases[i].Status == PhaseInProgress {
			job.CurrentPhaseID = job.Phases[i].ID
			job.Status = JobInProgress
			return
		}
	}
	started := false
	for _, p := range job.Phases {
		if p.Status != PhasePending {
			started = true
			break
		}
	}
	e.advance(job)
	if job.Status != JobCompleted {
		if started {
			job.Status = JobInProgress
		} else {
			job.Status = JobPending
		}
	}
}

// advance points the job at its next pending phase, or completes it when
// every phase is terminal. An in_progress phase keeps the pointer.
func (e *Engine) advance(job *Job) {
	for i := range job.Phases {
		if job.Phases[i].Status == PhaseInProgress {
			job.CurrentPhaseID = job.Phases[i].ID
			return
		}
	}
	if next := firstPending(job); next != nil {
		job.CurrentPhaseID = next.ID
		return
	}
	job.CurrentPhaseID = ""
	if allTerminal(job) {
		job.Status = JobCompleted
	}
}

// View builds the rendering snapshot of a job.
func (e *Engine) View(job Job) JobView {
	view := JobView{Job: job, Progress: Progress(job)}
	if p := e.CurrentPhase(&view.Job); p != nil {
		cp := p.clone()
		view.CurrentPhase = &cp
	}
	return view
}

// Progress is the rounded percentage of phases that are completed or skipped.
// A job without phases reports 0.
func Progress(job Job) int {
	if len(job.Phases) == 0 {
		return 0
	}
	done := 0
	for _, p := range job.Phases {
		if p.Status.Terminal() {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(job.Phases))))
}

func firstPending(job *Job) *Phase {
	var found *Phase
	for i := range job.Phases {
		p := &job.Phases[i]
		if p.Status != PhasePending {
			continue
		}
		if found == nil || p.Order < found.Order {
			found = p
		}
	}
	return found
}

func allTerminal(job *Job) bool {
	if len(job.Phases) == 0 {
		return false
	}
	for _, p := range job.Phases {
		if !p.Status.Terminal() {
			return false
		}
	}
	return true
}
