// Package production tracks production jobs and their ordered phases.
package production

import (
	"sort"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/rbac"
)

// JobType is the kind of work a job represents.
type JobType string

const (
	JobTypeDesign      JobType = "design"
	JobTypePrint       JobType = "print"
	JobTypePress       JobType = "press"
	JobTypeCut         JobType = "cut"
	JobTypeSew         JobType = "sew"
	JobTypeQC          JobType = "qc"
	JobTypeIronPacking JobType = "iron_packing"
)

// IsValid checks if the job type is known.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeDesign, JobTypePrint, JobTypePress, JobTypeCut, JobTypeSew, JobTypeQC, JobTypeIronPacking:
		return true
	default:
		return false
	}
}

// JobStatus represents the lifecycle of a job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
)

// PhaseStatus represents the lifecycle of one phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseSkipped    PhaseStatus = "skipped"
)

// IsValid checks if the status is known.
func (s PhaseStatus) IsValid() bool {
	switch s {
	case PhasePending, PhaseInProgress, PhaseCompleted, PhaseSkipped:
		return true
	default:
		return false
	}
}

// Terminal reports whether the phase can no longer change.
func (s PhaseStatus) Terminal() bool {
	return s == PhaseCompleted || s == PhaseSkipped
}

// PhaseKind classifies a phase independently of its display name.
type PhaseKind string

const (
	KindDesign      PhaseKind = "design"
	KindPrint       PhaseKind = "print"
	KindPress       PhaseKind = "press"
	KindCut         PhaseKind = "cut"
	KindSew         PhaseKind = "sew"
	KindQC          PhaseKind = "qc"
	KindIronPacking PhaseKind = "iron_packing"
)

// KindFromName derives the kind of a phase from its display name. Unrecognised
// names yield the empty kind, which only managers may act on.
func KindFromName(name string) PhaseKind {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "design"):
		return KindDesign
	case strings.Contains(n, "print"):
		return KindPrint
	case strings.Contains(n, "press"):
		return KindPress
	case strings.Contains(n, "cut"):
		return KindCut
	case strings.Contains(n, "sew"):
		return KindSew
	case strings.Contains(n, "quality"), strings.Contains(n, "qc"):
		return KindQC
	case strings.Contains(n, "iron"), strings.Contains(n, "pack"):
		return KindIronPacking
	default:
		return ""
	}
}

// Phase is one stage of a job's production pipeline.
type Phase struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Kind            PhaseKind   `json:"kind,omitempty"`
	Order           int         `json:"order"`
	Status          PhaseStatus `json:"status"`
	Assignee        string      `json:"assignee,omitempty"`
	AssigneeName    string      `json:"assignee_name,omitempty"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// Job is one production or design task bound to an order.
type Job struct {
	ID             string     `json:"id"`
	QRCode         string     `json:"qr_code"`
	OrderID        string     `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	JobName        string     `json:"job_name"`
	ClientName     string     `json:"client_name"`
	Type           JobType    `json:"type"`
	Status         JobStatus  `json:"status"`
	CurrentPhaseID string     `json:"current_phase_id,omitempty"`
	Phases         []Phase    `json:"phases"`
	Notes          string     `json:"notes,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy.
func (j Job) Clone() Job {
	out := j
	out.Phases = make([]Phase, len(j.Phases))
	for i, p := range j.Phases {
		out.Phases[i] = p.clone()
	}
	if j.DueDate != nil {
		d := *j.DueDate
		out.DueDate = &d
	}
	return out
}

func (p Phase) clone() Phase {
	out := p
	if p.StartedAt != nil {
		t := *p.StartedAt
		out.StartedAt = &t
	}
	if p.EndedAt != nil {
		t := *p.EndedAt
		out.EndedAt = &t
	}
	if p.DurationMinutes != nil {
		d := *p.DurationMinutes
		out.DurationMinutes = &d
	}
	return out
}

// SortPhases orders phases by their sequence number.
func (j *Job) SortPhases() {
	sort.SliceStable(j.Phases, func(a, b int) bool { return j.Phases[a].Order < j.Phases[b].Order })
}

func (j *Job) phase(id string) *Phase {
	for i := range j.Phases {
		if j.Phases[i].ID == id {
			return &j.Phases[i]
		}
	}
	return nil
}

// Actor is the identity acting on a job.
type Actor struct {
	ID         string
	Name       string
	Role       rbac.Role
	Department rbac.Department
}

// RoleName implements rbac.Principal.
func (a Actor) RoleName() rbac.Role {
	return a.Role
}

// DepartmentName implements rbac.Principal.
func (a Actor) DepartmentName() rbac.Department {
	return a.Department
}

// StandardPhases is the production pipeline every non-design job follows.
var StandardPhases = []string{"PRINT", "PRESS", "CUT", "SEW", "QUALITY CHECK (QC)", "IRON/PACKING"}

// DesignPhases is the pipeline of design jobs.
var DesignPhases = []string{"DESIGN", "CLIENT APPROVAL"}

// PhaseTemplate returns the default phase names for a job type.
func PhaseTemplate(t JobType) []string {
	if t == JobTypeDesign {
		return append([]string(nil), DesignPhases...)
	}
	return append([]string(nil), StandardPhases...)
}

// JobView is the rendering snapshot of a job.
type JobView struct {
	Job
	Progress     int    `json:"progress"`
	CurrentPhase *Phase `json:"current_phase,omitempty"`
}

// ListFilter narrows job listings.
type ListFilter struct {
	Status   JobStatus
	OrderID  string
	Assignee string
	Search   string
}
