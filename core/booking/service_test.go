package booking_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learnbridge/core"
	"github.com/trezcool/learnbridge/core/audit"
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/notification"
	"github.com/trezcool/learnbridge/core/user"
	documentdb "github.com/trezcool/learnbridge/storage/document"
)

type testEnv struct {
	db       *documentdb.DB
	auditSvc *audit.Service
	notifSvc *notification.Service
	tutoring *booking.Service
	counsel  *booking.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := documentdb.Open(filepath.Join(t.TempDir(), "data.json"), nil)
	require.NoError(t, err)
	conf := &core.Config{AuditMaxEntries: 1000}
	auditSvc := audit.NewService(db, conf)
	notifSvc := notification.NewService(db, nil, nil, nil)
	return &testEnv{
		db:       db,
		auditSvc: auditSvc,
		notifSvc: notifSvc,
		tutoring: booking.NewService(booking.KindTutoring, db, auditSvc, notifSvc),
		counsel:  booking.NewService(booking.KindCounselling, db, auditSvc, notifSvc),
	}
}

func newRequest() booking.NewRequest {
	return booking.NewRequest{
		StudentID:   "s1",
		StudentName: "Thandi Mokoena",
		PersonID:    "t1",
		PersonName:  "Jane Dlamini",
		Module:      "CS101",
		DateTime:    time.Now().Add(48 * time.Hour).UTC(),
	}
}

func (env *testEnv) lastAudit(t *testing.T) audit.Entry {
	t.Helper()
	entries, err := env.auditSvc.QueryAll()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}

func (env *testEnv) notifications(t *testing.T, role, userID string) []notification.Notification {
	t.Helper()
	notifs, err := env.notifSvc.List(role, userID)
	require.NoError(t, err)
	return notifs
}

func TestService_Create(t *testing.T) {
	env := setup(t)

	t.Run("missing fields", func(t *testing.T) {
		_, err := env.tutoring.Create("s1", booking.NewRequest{DateTime: time.Now().Add(time.Hour)})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("past session time", func(t *testing.T) {
		nr := newRequest()
		nr.DateTime = time.Now().Add(-time.Hour)
		_, err := env.tutoring.Create("s1", nr)
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("ok", func(t *testing.T) {
		req, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, booking.StatusPending, req.Status)
		assert.Equal(t, 60, req.DurationMinutes, "duration defaults to an hour")
		assert.False(t, req.Updated)

		e := env.lastAudit(t)
		assert.Equal(t, "Added tutoring request", e.Action)
		assert.Equal(t, "s1", e.By)
		assert.Equal(t, "id:"+req.ID, e.Details)

		notifs := env.notifications(t, user.RoleTutor, "t1")
		require.NotEmpty(t, notifs)
		assert.Equal(t, notification.TypeNewRequest, notifs[0].Type)
		assert.Equal(t, "New tutoring request from Thandi Mokoena.", notifs[0].Message)
	})
}

func TestService_Accept(t *testing.T) {
	env := setup(t)
	req, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)

	req, err = env.tutoring.Accept("t1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAccepted, req.Status)
	assert.True(t, req.Updated)

	e := env.lastAudit(t)
	assert.Equal(t, "Tutor accepted request", e.Action)

	notifs := env.notifications(t, user.RoleStudent, "s1")
	require.NotEmpty(t, notifs)
	assert.Equal(t, "Your tutoring request (CS101) was accepted by tutor.", notifs[0].Message)

	// only pending requests can be accepted
	_, err = env.tutoring.Accept("t1", req.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestService_Decline(t *testing.T) {
	env := setup(t)

	t.Run("default reason", func(t *testing.T) {
		req, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)

		req, err = env.tutoring.Decline("t1", req.ID, "")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, req.Status)
		assert.Equal(t, "Cancel: Declined by tutor", req.Comment)

		notifs := env.notifications(t, user.RoleStudent, "s1")
		assert.Equal(t, "Your tutoring request was declined: Declined by tutor", notifs[0].Message)
	})

	t.Run("reason kept in history", func(t *testing.T) {
		req, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)

		req, err = env.tutoring.Decline("t1", req.ID, "schedule conflict")
		require.NoError(t, err)
		assert.Equal(t, "Cancel: schedule conflict", req.Comment)

		e := env.lastAudit(t)
		assert.Equal(t, "Tutor declined request", e.Action)
		assert.Equal(t, "id:"+req.ID+" reason:schedule conflict", e.Details)
	})

	t.Run("only from pending", func(t *testing.T) {
		req, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)
		_, err = env.tutoring.Accept("t1", req.ID)
		require.NoError(t, err)

		_, err = env.tutoring.Decline("t1", req.ID, "busy")
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	})
}

func TestService_Complete(t *testing.T) {
	env := setup(t)
	req, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)

	// pending sessions cannot be completed
	_, err = env.tutoring.Complete("t1", req.ID, false)
	require.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = env.tutoring.Accept("t1", req.ID)
	require.NoError(t, err)

	req, err = env.tutoring.Complete("t1", req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, req.Status)
	assert.True(t, req.FollowUp)
	require.NotNil(t, req.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *req.CompletedAt, time.Minute)

	assert.Equal(t, "Tutor marked completed", env.lastAudit(t).Action)
	notifs := env.notifications(t, user.RoleStudent, "s1")
	assert.Equal(t, "Your tutoring session has been marked completed.", notifs[0].Message)

	// completed is terminal
	_, err = env.tutoring.Cancel("s1", req.ID, "changed my mind")
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestService_MarkNoShow(t *testing.T) {
	env := setup(t)
	req, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	_, err = env.tutoring.Accept("t1", req.ID)
	require.NoError(t, err)

	req, err = env.tutoring.MarkNoShow("t1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusNoShow, req.Status)
	assert.Nil(t, req.CompletedAt)

	assert.Equal(t, "Tutor marked no-show", env.lastAudit(t).Action)
	notifs := env.notifications(t, user.RoleStudent, "s1")
	assert.Equal(t, "Session marked as no-show by tutor.", notifs[0].Message)
}

func TestService_Reschedule(t *testing.T) {
	env := setup(t)
	req, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	_, err = env.tutoring.Accept("t1", req.ID)
	require.NoError(t, err)

	t.Run("past time rejected", func(t *testing.T) {
		_, err := env.tutoring.Reschedule("t1", req.ID, time.Now().Add(-time.Hour))
		assert.ErrorIs(t, err, booking.ErrPastSession)
	})

	t.Run("ok", func(t *testing.T) {
		newTime := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
		got, err := env.tutoring.Reschedule("t1", req.ID, newTime)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAccepted, got.Status)
		assert.True(t, got.DateTime.Equal(newTime))

		assert.Equal(t, "Tutor rescheduled", env.lastAudit(t).Action)
		notifs := env.notifications(t, user.RoleStudent, "s1")
		assert.Contains(t, notifs[0].Message, "Your session was rescheduled to ")
		assert.Contains(t, notifs[0].Message, "by the tutor.")
	})
}

func TestService_Cancel(t *testing.T) {
	env := setup(t)

	t.Run("by student notifies the person", func(t *testing.T) {
		nr := newRequest()
		nr.Comment = "bring notes"
		req, err := env.tutoring.Create("s1", nr)
		require.NoError(t, err)
		_, err = env.tutoring.Accept("t1", req.ID)
		require.NoError(t, err)

		req, err = env.tutoring.Cancel("s1", req.ID, "clashing lecture")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, req.Status)
		assert.Equal(t, "bring notes\nCancel: clashing lecture", req.Comment)

		assert.Equal(t, "Cancelled tutoring request", env.lastAudit(t).Action)
		notifs := env.notifications(t, user.RoleTutor, "t1")
		assert.Equal(t, "Tutor request cancelled: clashing lecture", notifs[0].Message)
	})

	t.Run("by person notifies the student", func(t *testing.T) {
		req, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)
		tutorNotifs := len(env.notifications(t, user.RoleTutor, "t1"))

		_, err = env.tutoring.Cancel("t1", req.ID, "double booked")
		require.NoError(t, err)

		notifs := env.notifications(t, user.RoleStudent, "s1")
		assert.Equal(t, "Your tutoring request was cancelled: double booked", notifs[0].Message)
		assert.Len(t, env.notifications(t, user.RoleTutor, "t1"), tutorNotifs, "the tutor is not notified of their own cancellation")
	})
}

func TestService_counsellingLabels(t *testing.T) {
	env := setup(t)

	nr := newRequest()
	nr.PersonID = "c1"
	nr.Module = ""
	req, err := env.counsel.Create("s1", nr)
	require.NoError(t, err)
	assert.Equal(t, "Added counselling request", env.lastAudit(t).Action)

	_, err = env.counsel.Accept("c1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Counsellor accepted request", env.lastAudit(t).Action)

	notifs := env.notifications(t, user.RoleStudent, "s1")
	assert.Equal(t, "Your counselling request (-) was accepted by counsellor.", notifs[0].Message)
}

func TestService_ForceStatus(t *testing.T) {
	env := setup(t)
	req, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)

	t.Run("unknown status", func(t *testing.T) {
		_, err := env.tutoring.ForceStatus("admin", req.ID, "lost")
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	})

	t.Run("skips the transition table", func(t *testing.T) {
		got, err := env.tutoring.ForceStatus("admin", req.ID, booking.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)

		e := env.lastAudit(t)
		assert.Equal(t, "Admin override", e.Action)
		assert.Equal(t, "id:"+req.ID+" status:completed", e.Details)
	})

	t.Run("completed requests stay completed", func(t *testing.T) {
		_, err := env.tutoring.ForceStatus("admin", req.ID, booking.StatusCancelled)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)

		got, err := env.tutoring.Get(req.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, got.Status)
	})

	t.Run("forcing the current status rejected", func(t *testing.T) {
		other, err := env.tutoring.Create("s1", newRequest())
		require.NoError(t, err)

		_, err = env.tutoring.ForceStatus("admin", other.ID, booking.StatusPending)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	})
}

func TestService_CancelAllFor(t *testing.T) {
	env := setup(t)

	open1, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	open2, err := env.tutoring.Create("s2", func() booking.NewRequest {
		nr := newRequest()
		nr.StudentID = "s2"
		return nr
	}())
	require.NoError(t, err)
	_, err = env.tutoring.Accept("t1", open2.ID)
	require.NoError(t, err)

	done, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	_, err = env.tutoring.ForceStatus("admin", done.ID, booking.StatusCompleted)
	require.NoError(t, err)

	require.NoError(t, env.tutoring.CancelAllFor("admin", "t1", "account removed"))

	for _, id := range []string{open1.ID, open2.ID} {
		got, err := env.tutoring.Get(id)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)
		assert.True(t, strings.HasSuffix(got.Comment, "Cancel: account removed"))
	}
	got, err := env.tutoring.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, got.Status, "terminal requests are left alone")

	// the removed tutor's students hear about it, not the tutor
	for _, sid := range []string{"s1", "s2"} {
		notifs := env.notifications(t, user.RoleStudent, sid)
		require.NotEmpty(t, notifs)
		assert.Equal(t, "Your tutoring request was cancelled: account removed", notifs[0].Message)
	}
}

func TestService_Filter(t *testing.T) {
	env := setup(t)

	pending, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	accepted, err := env.tutoring.Create("s1", newRequest())
	require.NoError(t, err)
	_, err = env.tutoring.Accept("t1", accepted.ID)
	require.NoError(t, err)
	noShow, err := env.tutoring.Create("s2", func() booking.NewRequest {
		nr := newRequest()
		nr.StudentID = "s2"
		return nr
	}())
	require.NoError(t, err)
	_, err = env.tutoring.Accept("t1", noShow.ID)
	require.NoError(t, err)
	_, err = env.tutoring.MarkNoShow("t1", noShow.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  booking.QueryFilter
		wantIDs []string
	}{
		{name: "empty returns all newest first", wantIDs: []string{noShow.ID, accepted.ID, pending.ID}},
		{name: "pending", filter: booking.QueryFilter{Category: "pending"}, wantIDs: []string{pending.ID}},
		{name: "accepted", filter: booking.QueryFilter{Category: "accepted"}, wantIDs: []string{accepted.ID}},
		{name: "cancelled includes no-show", filter: booking.QueryFilter{Category: "cancelled"}, wantIDs: []string{noShow.ID}},
		{name: "upcoming", filter: booking.QueryFilter{Category: "upcoming"}, wantIDs: []string{accepted.ID}},
		{name: "updated", filter: booking.QueryFilter{Category: "updated"}, wantIDs: []string{noShow.ID, accepted.ID}},
		{name: "by student", filter: booking.QueryFilter{StudentID: "s2"}, wantIDs: []string{noShow.ID}},
		{name: "by person and status", filter: booking.QueryFilter{PersonID: "t1", Status: booking.StatusPending}, wantIDs: []string{pending.ID}},
		{name: "unknown category", filter: booking.QueryFilter{Category: "lol"}, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.tutoring.Filter(tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
