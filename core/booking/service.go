package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core/audit"
	"github.com/trezcool/learnbridge/core/notification"
)

var (
	// errors
	ErrNotFound          = errors.New("request not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPastSession       = errors.New("session time must be in the future")

	timeNow = func() time.Time { return time.Now().UTC() } // mockable
)

const defaultDurationMinutes = 60

type (
	Repository interface {
		// CreateRequest inserts at the head of the kind's collection and, while
		// the request is pending, indexes it on the target person's bucket.
		CreateRequest(kind string, req Request) (Request, error)
		GetRequest(kind, id string) (Request, error)
		QueryAllRequests(kind string) ([]Request, error)
		// UpdateRequest replaces the stored request and keeps the person's
		// pending index in sync with the new status.
		UpdateRequest(kind string, req Request) (Request, error)
	}

	// Service drives the request lifecycle for one kind of booking. Two
	// instances share the same repository, one per kind.
	Service struct {
		kind     string
		repo     Repository
		auditSvc *audit.Service
		notifSvc *notification.Service
	}
)

func NewService(kind string, repo Repository, auditSvc *audit.Service, notifSvc *notification.Service) *Service {
	return &Service{kind: kind, repo: repo, auditSvc: auditSvc, notifSvc: notifSvc}
}

func (svc *Service) Kind() string { return svc.kind }

// personRole is the role of the person being booked, lowercase.
func (svc *Service) personRole() string {
	if svc.kind == KindCounselling {
		return "counsellor"
	}
	return "tutor"
}

// personLabel is the capitalised role used in audit actions.
func (svc *Service) personLabel() string {
	if svc.kind == KindCounselling {
		return "Counsellor"
	}
	return "Tutor"
}

func (svc *Service) Create(actor string, nr NewRequest) (Request, error) {
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}
	if nr.DurationMinutes == 0 {
		nr.DurationMinutes = defaultDurationMinutes
	}
	req := Request{
		ID:              uuid.NewString(),
		Kind:            svc.kind,
		StudentID:       nr.StudentID,
		StudentName:     nr.StudentName,
		StudentNumber:   nr.StudentNumber,
		PersonID:        nr.PersonID,
		PersonName:      nr.PersonName,
		PersonEmail:     nr.PersonEmail,
		Module:          nr.Module,
		SessionType:     nr.SessionType,
		Venue:           nr.Venue,
		DateTime:        nr.DateTime,
		DurationMinutes: nr.DurationMinutes,
		Status:          StatusPending,
		Comment:         nr.Comment,
		Created:         timeNow(),
	}
	req, err := svc.repo.CreateRequest(svc.kind, req)
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("Added %s request", svc.kind), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	studentName := req.StudentName
	if studentName == "" {
		studentName = "a student"
	}
	return req, svc.notifSvc.NotifyBooking(svc.personRole(), req.PersonID, notification.TypeNewRequest, req.ID,
		fmt.Sprintf("New %s request from %s.", svc.kind, studentName))
}

func (svc *Service) Get(id string) (Request, error) {
	return svc.repo.GetRequest(svc.kind, id)
}

func (svc *Service) QueryAll() ([]Request, error) {
	return svc.repo.QueryAllRequests(svc.kind)
}

func (svc *Service) ListByStudent(studentID string) ([]Request, error) {
	return svc.Filter(QueryFilter{StudentID: studentID})
}

func (svc *Service) ListByPerson(personID string) ([]Request, error) {
	return svc.Filter(QueryFilter{PersonID: personID})
}

// Filter returns matching requests, newest first.
func (svc *Service) Filter(filter QueryFilter) ([]Request, error) {
	all, err := svc.repo.QueryAllRequests(svc.kind)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return all, nil
	}
	now := timeNow()
	reqs := make([]Request, 0, len(all))
	for _, r := range all {
		if filter.match(r, now) {
			reqs = append(reqs, r)
		}
	}
	return reqs, nil
}

// Accept moves a pending request to accepted and notifies the student.
func (svc *Service) Accept(actor, id string) (Request, error) {
	req, err := svc.transition(id, StatusAccepted)
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("%s accepted request", svc.personLabel()), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	module := req.Module
	if module == "" {
		module = "-"
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeRequestAccepted, req.ID,
		fmt.Sprintf("Your %s request (%s) was accepted by %s.", svc.kind, module, svc.personRole()))
}

// Decline cancels a pending request with a reason and notifies the student.
func (svc *Service) Decline(actor, id, reason string) (Request, error) {
	if reason == "" {
		reason = "Declined by " + svc.personRole()
	}
	req, err := svc.transitionFrom(id, StatusPending, StatusCancelled, func(r *Request) {
		appendCancelComment(r, reason)
	})
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("%s declined request", svc.personLabel()), actor,
		fmt.Sprintf("id:%s reason:%s", req.ID, reason)); err != nil {
		return Request{}, err
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeRequestDeclined, req.ID,
		fmt.Sprintf("Your %s request was declined: %s", svc.kind, reason))
}

// Reschedule moves an accepted session to a new future time and notifies the
// student.
func (svc *Service) Reschedule(actor, id string, newTime time.Time) (Request, error) {
	if !newTime.After(timeNow()) {
		return Request{}, ErrPastSession
	}
	req, err := svc.transitionFrom(id, StatusAccepted, StatusAccepted, func(r *Request) {
		r.DateTime = newTime
	})
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("%s rescheduled", svc.personLabel()), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeSessionRescheduled, req.ID,
		fmt.Sprintf("Your session was rescheduled to %s by the %s.",
			newTime.Format("Mon, 02 Jan 2006 15:04"), svc.personRole()))
}

// Complete marks an accepted session as done, optionally flagging a follow-up.
func (svc *Service) Complete(actor, id string, followUp bool) (Request, error) {
	req, err := svc.transitionFrom(id, StatusAccepted, StatusCompleted, func(r *Request) {
		now := timeNow()
		r.CompletedAt = &now
		r.FollowUp = followUp
	})
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("%s marked completed", svc.personLabel()), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeSessionCompleted, req.ID,
		fmt.Sprintf("Your %s session has been marked completed.", svc.kind))
}

// MarkNoShow records that the student did not attend an accepted session.
func (svc *Service) MarkNoShow(actor, id string) (Request, error) {
	req, err := svc.transitionFrom(id, StatusAccepted, StatusNoShow, nil)
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("%s marked no-show", svc.personLabel()), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeSessionNoShow, req.ID,
		fmt.Sprintf("Session marked as no-show by %s.", svc.personRole()))
}

// Cancel cancels a pending or accepted request and notifies the actor's
// counterpart.
func (svc *Service) Cancel(actor, id, reason string) (Request, error) {
	return svc.cancel(actor, actor, id, reason)
}

// cancel notifies the counterpart of onBehalfOf, the party the cancellation
// originates from. Cancellations not originating from the student (the booked
// person, an admin) go to the student.
func (svc *Service) cancel(actor, onBehalfOf, id, reason string) (Request, error) {
	if reason == "" {
		reason = "No reason"
	}
	req, err := svc.transition(id, StatusCancelled, func(r *Request) {
		appendCancelComment(r, reason)
	})
	if err != nil {
		return Request{}, err
	}
	if err := svc.auditSvc.Record(fmt.Sprintf("Cancelled %s request", svc.kind), actor, "id:"+req.ID); err != nil {
		return Request{}, err
	}
	if onBehalfOf == req.StudentID {
		return req, svc.notifSvc.NotifyBooking(svc.personRole(), req.PersonID, notification.TypeRequestCancelled, req.ID,
			fmt.Sprintf("%s request cancelled: %s", svc.personLabel(), reason))
	}
	return req, svc.notifSvc.NotifyBooking("student", req.StudentID, notification.TypeRequestCancelled, req.ID,
		fmt.Sprintf("Your %s request was cancelled: %s", svc.kind, reason))
}

// ForceStatus sets any status directly, bypassing the transition table. It is
// an admin tool; completed requests cannot be resurrected and forcing the
// current status is rejected.
func (svc *Service) ForceStatus(actor, id, status string) (Request, error) {
	var valid bool
	for _, s := range AllStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return Request{}, ErrInvalidTransition
	}
	req, err := svc.repo.GetRequest(svc.kind, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status == StatusCompleted || req.Status == status {
		return Request{}, ErrInvalidTransition
	}
	req.Status = status
	req.Updated = true
	if status == StatusCompleted && req.CompletedAt == nil {
		now := timeNow()
		req.CompletedAt = &now
	}
	req, err = svc.repo.UpdateRequest(svc.kind, req)
	if err != nil {
		return Request{}, err
	}
	return req, svc.auditSvc.Record("Admin override", actor, fmt.Sprintf("id:%s status:%s", req.ID, status))
}

// CancelAllFor cancels every open request involving the given user. It is
// called when an account is removed.
func (svc *Service) CancelAllFor(actor, userID, reason string) error {
	all, err := svc.repo.QueryAllRequests(svc.kind)
	if err != nil {
		return err
	}
	for _, r := range all {
		if !r.IsOpen() {
			continue
		}
		if r.StudentID != userID && r.PersonID != userID {
			continue
		}
		if _, err := svc.cancel(actor, userID, r.ID, reason); err != nil {
			return err
		}
	}
	return nil
}

// transition moves the request to the given status if the transition table
// allows it from the current status.
func (svc *Service) transition(id, to string, mutate ...func(*Request)) (Request, error) {
	req, err := svc.repo.GetRequest(svc.kind, id)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(req.Status, to) {
		return Request{}, ErrInvalidTransition
	}
	return svc.apply(req, to, mutate...)
}

// transitionFrom additionally pins the current status, for operations that
// are only valid from one state (e.g. decline from pending only).
func (svc *Service) transitionFrom(id, from, to string, mutate func(*Request)) (Request, error) {
	req, err := svc.repo.GetRequest(svc.kind, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != from {
		return Request{}, ErrInvalidTransition
	}
	if mutate != nil {
		return svc.apply(req, to, mutate)
	}
	return svc.apply(req, to)
}

func (svc *Service) apply(req Request, to string, mutate ...func(*Request)) (Request, error) {
	req.Status = to
	req.Updated = true
	for _, fn := range mutate {
		fn(&req)
	}
	return svc.repo.UpdateRequest(svc.kind, req)
}

func appendCancelComment(r *Request, reason string) {
	if r.Comment != "" {
		r.Comment += "\n"
	}
	r.Comment += "Cancel: " + reason
}
