package booking

import (
	"strings"
	"time"

	"github.com/trezcool/learnbridge/core"
)

// Kinds
const (
	KindTutoring    = "tutoring"
	KindCounselling = "counselling"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusNoShow    = "no-show"
	StatusCancelled = "cancelled"
)

var AllStatuses = []string{StatusPending, StatusAccepted, StatusCompleted, StatusNoShow, StatusCancelled}

// transitions maps a status to the statuses reachable from it. Completed,
// no-show and cancelled are terminal.
var transitions = map[string][]string{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusNoShow, StatusCancelled},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from status.
func IsTerminal(status string) bool { return len(transitions[status]) == 0 }

// Request is one booking request between a student and a tutor/counsellor.
// Student and person details are denormalised at creation time so terminal
// requests survive account removal.
type Request struct {
	ID              string     `json:"id"`
	Kind            string     `json:"-"` // implied by the collection it lives in
	StudentID       string     `json:"studentId"`
	StudentName     string     `json:"studentName,omitempty"`
	StudentNumber   string     `json:"studentNumber,omitempty"`
	PersonID        string     `json:"personId"`
	PersonName      string     `json:"personName,omitempty"`
	PersonEmail     string     `json:"personEmail,omitempty"`
	Module          string     `json:"module,omitempty"`
	SessionType     string     `json:"sessionType,omitempty"` // online | in-person
	Venue           string     `json:"venue,omitempty"`
	DateTime        time.Time  `json:"datetime"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Status          string     `json:"status"`
	Comment         string     `json:"comment,omitempty"`
	FollowUp        bool       `json:"followUp,omitempty"`
	Updated         bool       `json:"updated,omitempty"`
	Created         time.Time  `json:"createdAt"` // UTC
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// IsOpen reports whether the request still awaits an outcome.
func (r *Request) IsOpen() bool {
	return r.Status == StatusPending || r.Status == StatusAccepted
}

// Upcoming reports whether the request is accepted for a future session.
func (r *Request) Upcoming(now time.Time) bool {
	return r.Status == StatusAccepted && r.DateTime.After(now)
}

// NewRequest contains information needed to create a new Request. Student and
// person details come from the caller's session.
type NewRequest struct {
	StudentID       string    `json:"studentId" validate:"required"`
	StudentName     string    `json:"studentName"`
	StudentNumber   string    `json:"studentNumber"`
	PersonID        string    `json:"personId" validate:"required"`
	PersonName      string    `json:"personName"`
	PersonEmail     string    `json:"personEmail" validate:"omitempty,email"`
	Module          string    `json:"module"`
	SessionType     string    `json:"sessionType" validate:"omitempty,oneof=online in-person"`
	Venue           string    `json:"venue"`
	DateTime        time.Time `json:"datetime" validate:"required,futuretime"`
	DurationMinutes int       `json:"durationMinutes" validate:"omitempty,min=15,max=240"`
	Comment         string    `json:"comment"`
}

func (nr *NewRequest) Validate() error {
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.PersonName = core.CleanString(nr.PersonName)
	nr.PersonEmail = core.CleanString(nr.PersonEmail, true /* lower */)
	nr.Module = core.CleanString(nr.Module)
	nr.Venue = core.CleanString(nr.Venue)
	return core.TranslateError(core.Validate.Struct(nr))
}

// QueryFilter filters requests; empty fields are ignored.
type QueryFilter struct {
	StudentID string `query:"student_id"`
	PersonID  string `query:"person_id"`
	Status    string `query:"status"`
	Module    string `query:"module"`
	// Search does a case-insensitive match on student name, person name or
	// module.
	Search string `query:"search"`
	// Category is one of the export views: pending, accepted, completed,
	// cancelled (includes no-show), upcoming, followup, updated, all.
	Category string    `query:"category"`
	From     time.Time `query:"from"` // session date lower bound
	To       time.Time `query:"to"`   // session date upper bound
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.PersonID == "" && qf.Status == "" && qf.Module == "" &&
		qf.Search == "" && qf.Category == "" && qf.From.IsZero() && qf.To.IsZero()
}

func (qf *QueryFilter) match(r Request, now time.Time) bool {
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(r.StudentName), search) &&
			!strings.Contains(strings.ToLower(r.PersonName), search) &&
			!strings.Contains(strings.ToLower(r.Module), search) {
			return false
		}
	}
	if qf.StudentID != "" && r.StudentID != qf.StudentID {
		return false
	}
	if qf.PersonID != "" && r.PersonID != qf.PersonID {
		return false
	}
	if qf.Status != "" && r.Status != qf.Status {
		return false
	}
	if qf.Module != "" && r.Module != qf.Module {
		return false
	}
	if !qf.From.IsZero() && r.DateTime.Before(qf.From) {
		return false
	}
	if !qf.To.IsZero() && r.DateTime.After(qf.To) {
		return false
	}
	switch qf.Category {
	case "", "all":
	case "pending":
		if r.Status != StatusPending {
			return false
		}
	case "accepted":
		if r.Status != StatusAccepted {
			return false
		}
	case "completed":
		if r.Status != StatusCompleted {
			return false
		}
	case "cancelled":
		if r.Status != StatusCancelled && r.Status != StatusNoShow {
			return false
		}
	case "upcoming":
		if !r.Upcoming(now) {
			return false
		}
	case "followup":
		if !r.FollowUp {
			return false
		}
	case "updated":
		if !r.Updated {
			return false
		}
	default:
		return false
	}
	return true
}
