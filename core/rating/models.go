package rating

import (
	"strings"
	"time"

	"github.com/trezcool/learnbridge/core"
)

// Rating is one star rating left by a student for a tutor or counsellor.
// Names are denormalised at creation time; nothing stops a student rating the
// same session twice.
type Rating struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"bookingId,omitempty"`
	StudentID     string    `json:"studentId"`
	StudentName   string    `json:"studentName,omitempty"`
	StudentNumber string    `json:"studentNumber,omitempty"`
	PersonID      string    `json:"personId"`
	PersonName    string    `json:"personName,omitempty"`
	Role          string    `json:"role"` // tutor | counsellor
	Module        string    `json:"module,omitempty"`
	Stars         int       `json:"stars"`
	Comment       string    `json:"comment,omitempty"`
	Created       time.Time `json:"date"` // UTC
}

// NewRating contains information needed to record a new Rating.
type NewRating struct {
	BookingID     string `json:"bookingId"`
	StudentID     string `json:"studentId" validate:"required"`
	StudentName   string `json:"studentName"`
	StudentNumber string `json:"studentNumber"`
	PersonID      string `json:"personId" validate:"required"`
	PersonName    string `json:"personName"`
	Role          string `json:"role" validate:"required,oneof=tutor counsellor"`
	Module        string `json:"module"`
	Stars         int    `json:"stars" validate:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

func (nr *NewRating) Validate() error {
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.PersonName = core.CleanString(nr.PersonName)
	nr.Role = core.CleanString(nr.Role, true /* lower */)
	nr.Module = core.CleanString(nr.Module)
	return core.TranslateError(core.Validate.Struct(nr))
}

// QueryFilter filters ratings; empty fields are ignored.
type QueryFilter struct {
	StudentID string `query:"student_id"`
	PersonID  string `query:"person_id"`
	Role      string `query:"role"`
	MinStars  int    `query:"min_stars"`
	// Search does a case-insensitive match on student name, rated person name
	// or module.
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.PersonID == "" && qf.Role == "" && qf.MinStars == 0 &&
		qf.Search == ""
}

func (qf *QueryFilter) match(r Rating) bool {
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
	if qf.Role != "" && r.Role != qf.Role {
		return false
	}
	if qf.MinStars > 0 && r.Stars < qf.MinStars {
		return false
	}
	return true
}
