package audit

import "time"

// Entry is one recorded action. The log is newest-first by insertion; two
// entries recorded in the same tick keep their insertion order.
type Entry struct {
	ID      string    `json:"id"`
	Action  string    `json:"action"`
	By      string    `json:"by"` // actor id or role
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}

type Filter struct {
	Action string
	By     string
	Since  time.Time
	Until  time.Time
}

func (f *Filter) IsEmpty() bool {
	return f.Action == "" && f.By == "" && f.Since.IsZero() && f.Until.IsZero()
}

func (f *Filter) match(e Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.By != "" && e.By != f.By {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Time.After(f.Until) {
		return false
	}
	return true
}
