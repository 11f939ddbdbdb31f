package user_test

import (
	"path/filepath"
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
	testutil "github.com/trezcool/learnbridge/tests"
)

type testEnv struct {
	db       *documentdb.DB
	auditSvc *audit.Service
	usrSvc   *user.Service
	tutoring *booking.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := documentdb.Open(filepath.Join(t.TempDir(), "data.json"), nil)
	require.NoError(t, err)
	conf := &core.Config{AuditMaxEntries: 1000}
	auditSvc := audit.NewService(db, conf)
	usrSvc := user.NewService(db, auditSvc)
	notifSvc := notification.NewService(db, nil, usrSvc, nil)
	tutoring := booking.NewService(booking.KindTutoring, db, auditSvc, notifSvc)
	usrSvc.RegisterCanceller(tutoring)
	return &testEnv{db: db, auditSvc: auditSvc, usrSvc: usrSvc, tutoring: tutoring}
}

func (env *testEnv) lastAudit(t *testing.T) audit.Entry {
	t.Helper()
	entries, err := env.auditSvc.QueryAll()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestService_Create(t *testing.T) {
	env := setup(t)

	t.Run("ok", func(t *testing.T) {
		usr, err := env.usrSvc.Create("admin", user.NewUser{
			Name:  "  Jane Dlamini ",
			Role:  "Tutor",
			Email: "Jane@Test.CD",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "Jane Dlamini", usr.Name)
		assert.Equal(t, user.RoleTutor, usr.Role)
		assert.Equal(t, "jane@test.cd", usr.Email, "emails are normalised")
		assert.True(t, usr.Verified)
		assert.Empty(t, usr.PasswordHash)

		e := env.lastAudit(t)
		assert.Equal(t, "Created user Jane Dlamini", e.Action)
		assert.Equal(t, "admin", e.By)
		assert.Equal(t, "id:"+usr.ID, e.Details)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.usrSvc.Create("admin", user.NewUser{
			Name:  "Other",
			Role:  user.RoleStudent,
			Email: "jane@test.cd",
		})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := env.usrSvc.Create("admin", user.NewUser{Name: "X", Role: "principal", Email: "x@test.cd"})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("with password", func(t *testing.T) {
		usr, err := env.usrSvc.Create("admin", user.NewUser{
			Name:     "Thandi Mokoena",
			Role:     user.RoleStudent,
			Email:    "thandi@test.cd",
			Password: "G00d.Pass!",
		})
		require.NoError(t, err)
		assert.NoError(t, usr.CheckPassword("G00d.Pass!"))
		assert.Error(t, usr.CheckPassword("wrong"))
	})
}

func TestService_Create_passwordPolicy(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name string
		pwd  string
	}{
		{name: "too short", pwd: "G0.d!"},
		{name: "whitespace", pwd: "G00d Pass!"},
		{name: "all numeric", pwd: "1234567890"},
		{name: "no complexity", pwd: "goodpassword"},
		{name: "similar to email", pwd: "thandi@test.cd1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.usrSvc.Create("admin", user.NewUser{
				Name:     "Thandi Mokoena",
				Role:     user.RoleStudent,
				Email:    "thandi@test.cd",
				Password: tt.pwd,
			})
			assert.True(t, core.IsValidationError(err), "want validation error, got %v", err)
		})
	}
}

func TestService_Edit(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)
	other := testutil.CreateUser(t, env.db, "Sam", user.RoleStudent, "sam@test.cd", "", false)

	t.Run("empty fields keep originals", func(t *testing.T) {
		got, err := env.usrSvc.Edit("admin", usr.ID, user.UpdateUser{Department: "Maths"})
		require.NoError(t, err)
		assert.Equal(t, "Jane", got.Name)
		assert.Equal(t, user.RoleTutor, got.Role)
		assert.Equal(t, "jane@test.cd", got.Email)
		assert.Equal(t, "Maths", got.Department)
		assert.Equal(t, "Edited user Jane", env.lastAudit(t).Action)
	})

	t.Run("own email is not a duplicate", func(t *testing.T) {
		_, err := env.usrSvc.Edit("admin", usr.ID, user.UpdateUser{Email: "jane@test.cd"})
		assert.NoError(t, err)
	})

	t.Run("taken email rejected", func(t *testing.T) {
		_, err := env.usrSvc.Edit("admin", usr.ID, user.UpdateUser{Email: other.Email})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.usrSvc.Edit("admin", "nope", user.UpdateUser{})
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("role change moves the bucket", func(t *testing.T) {
		slots := []user.AvailabilitySlot{{Day: "Mon", From: "09:00", To: "10:00", Type: "online"}}
		require.NoError(t, env.usrSvc.SetAvailability("admin", usr.ID, slots))

		_, err := env.usrSvc.Edit("admin", usr.ID, user.UpdateUser{Role: user.RoleCounsellor})
		require.NoError(t, err)

		got, err := env.usrSvc.GetAvailability(usr.ID)
		require.NoError(t, err)
		assert.Equal(t, slots, got)

		doc, err := env.db.Load()
		require.NoError(t, err)
		assert.NotContains(t, doc.TutorData, usr.ID)
		assert.Contains(t, doc.CounsellorData, usr.ID)
	})
}

func TestService_SuspendReinstate(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)

	got, err := env.usrSvc.Suspend("admin", usr.ID)
	require.NoError(t, err)
	assert.True(t, got.Suspended)
	assert.Equal(t, "Suspended user Jane", env.lastAudit(t).Action)

	got, err = env.usrSvc.Reinstate("admin", usr.ID)
	require.NoError(t, err)
	assert.False(t, got.Suspended)
	assert.Equal(t, "Reinstated user Jane", env.lastAudit(t).Action)
}

func TestService_Delete_cancelsOpenRequests(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)
	student := testutil.CreateUser(t, env.db, "Thandi", user.RoleStudent, "thandi@test.cd", "", false)

	open := testutil.CreateRequest(t, env.db, booking.KindTutoring, student.ID, tutor.ID, "CS101", booking.StatusPending, time.Now().Add(24*time.Hour))
	done := testutil.CreateRequest(t, env.db, booking.KindTutoring, student.ID, tutor.ID, "CS101", booking.StatusCompleted, time.Now().Add(-24*time.Hour))

	require.NoError(t, env.usrSvc.Delete("admin", tutor.ID))

	_, err := env.usrSvc.GetByID(tutor.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.Equal(t, "Deleted user Jane", env.lastAudit(t).Action)

	got, err := env.tutoring.Get(open.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	assert.Contains(t, got.Comment, "Cancel: account removed")

	got, err = env.tutoring.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, got.Status)
}

func TestService_Filter(t *testing.T) {
	env := setup(t)
	old := time.Now().Add(-30 * 24 * time.Hour)
	jane := testutil.CreateUser(t, env.db, "Jane Dlamini", user.RoleTutor, "jane@test.cd", "", false, old)
	sam := testutil.CreateUser(t, env.db, "Sam Nkosi", user.RoleStudent, "sam@test.cd", "", true, old)
	fresh := testutil.CreateUser(t, env.db, "New Person", user.RoleCounsellor, "new@test.cd", "", false)

	suspended := true
	tests := []struct {
		name    string
		filter  user.QueryFilter
		wantIDs []string
	}{
		{name: "search by name", filter: user.QueryFilter{Search: "dlamini"}, wantIDs: []string{jane.ID}},
		{name: "search by email", filter: user.QueryFilter{Search: "sam@"}, wantIDs: []string{sam.ID}},
		{name: "by role", filter: user.QueryFilter{Role: user.RoleCounsellor}, wantIDs: []string{fresh.ID}},
		{name: "suspended only", filter: user.QueryFilter{Suspended: &suspended}, wantIDs: []string{sam.ID}},
		{name: "new registrations", filter: user.QueryFilter{NewOnly: true}, wantIDs: []string{fresh.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.usrSvc.Filter(tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestService_Availability(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)
	student := testutil.CreateUser(t, env.db, "Thandi", user.RoleStudent, "thandi@test.cd", "", false)

	t.Run("invalid slot", func(t *testing.T) {
		err := env.usrSvc.SetAvailability(tutor.ID, tutor.ID, []user.AvailabilitySlot{{Day: "Mon", From: "09:00", To: "10:00", Type: "telepathy"}})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("students have no availability", func(t *testing.T) {
		err := env.usrSvc.SetAvailability(student.ID, student.ID, []user.AvailabilitySlot{{Day: "Mon", From: "09:00", To: "10:00"}})
		assert.ErrorIs(t, err, user.ErrNotPerson)
	})

	t.Run("ok", func(t *testing.T) {
		slots := []user.AvailabilitySlot{
			{Day: "Mon", From: "09:00", To: "10:00", Type: "online"},
			{Day: "Wed", From: "14:00", To: "16:00"},
		}
		require.NoError(t, env.usrSvc.SetAvailability(tutor.ID, tutor.ID, slots))
		assert.Equal(t, "Updated availability", env.lastAudit(t).Action)

		got, err := env.usrSvc.GetAvailability(tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, slots, got)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	env := setup(t)
	tutor := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)
	student := testutil.CreateUser(t, env.db, "Thandi", user.RoleStudent, "thandi@test.cd", "", false)

	t.Run("students have no profile", func(t *testing.T) {
		err := env.usrSvc.UpdateProfile(student.ID, student.ID, user.Profile{Bio: "hi"})
		assert.ErrorIs(t, err, user.ErrNotPerson)
	})

	t.Run("ok and mirrored onto the user", func(t *testing.T) {
		p := user.Profile{Name: "Jane D.", Department: "Maths", Modules: "CS101, CS102", Bio: "10 years tutoring"}
		require.NoError(t, env.usrSvc.UpdateProfile(tutor.ID, tutor.ID, p))
		assert.Equal(t, "Updated tutor profile", env.lastAudit(t).Action)

		got, err := env.usrSvc.GetProfile(tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		usr, err := env.usrSvc.GetByID(tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane D.", usr.Name)
		assert.Equal(t, "Maths", usr.Department)
	})
}

func TestService_RecipientByID(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.db, "Jane", user.RoleTutor, "jane@test.cd", "", false)

	addr, err := env.usrSvc.RecipientByID(usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", addr.Name)
	assert.Equal(t, "jane@test.cd", addr.Address)

	_, err = env.usrSvc.RecipientByID("nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
