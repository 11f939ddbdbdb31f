package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core"
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/user"
)

// NewConfig returns test configuration with a throwaway data file.
func NewConfig(t *testing.T) *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.DataFile = t.TempDir() + "/data.json"
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, role, email, pwd string,
	suspended bool,
	created ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(created) > 0 {
		tstamp = created[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		Email:     email,
		Verified:  true,
		Suspended: suspended,
		Created:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateRequest(
	t *testing.T,
	repo booking.Repository,
	kind, studentID, personID, module, status string,
	dateTime time.Time,
) booking.Request {
	t.Helper()
	req := booking.Request{
		ID:        uuid.NewString(),
		Kind:      kind,
		StudentID: studentID,
		PersonID:  personID,
		Module:    module,
		DateTime:  dateTime.UTC(),
		Status:    status,
		Created:   time.Now().UTC(),
	}
	req, err := repo.CreateRequest(kind, req)
	if err != nil {
		t.Fatalf("CreateRequest() failed: %v", err)
	}
	return req
}
