package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/learnbridge/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleTutor      = "tutor"
	RoleCounsellor = "counsellor"
	RoleAdmin      = "admin"
)

var AllRoles = []string{RoleStudent, RoleTutor, RoleCounsellor, RoleAdmin}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	Department   string    `json:"department,omitempty"`
	Modules      string    `json:"modules,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	PasswordHash []byte    `json:"passwordHash,omitempty"`
	Verified     bool      `json:"verified"`
	Suspended    bool      `json:"suspended"`
	Created      time.Time `json:"created"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStudent() bool    { return u.Role == RoleStudent }
func (u *User) IsTutor() bool      { return u.Role == RoleTutor }
func (u *User) IsCounsellor() bool { return u.Role == RoleCounsellor }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }

// IsPerson reports whether the user can be the target of booking requests.
func (u *User) IsPerson() bool { return u.IsTutor() || u.IsCounsellor() }

// AvailabilitySlot is a weekly window during which a tutor/counsellor can be
// booked. Overlapping slots are allowed; no invariant is enforced on them.
type AvailabilitySlot struct {
	Day  string `json:"day" validate:"required"`
	From string `json:"from" validate:"required"` // HH:MM
	To   string `json:"to" validate:"required"`   // HH:MM
	Type string `json:"type" validate:"omitempty,oneof=online in-person both"`
}

// Profile is the public tutor/counsellor profile shown to students.
type Profile struct {
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Modules    string `json:"modules,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required,userrole"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department"`
	Modules    string `json:"modules"`
	Notes      string `json:"notes"`
	Password   string `json:"password"` // optional temporary password
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Department = core.CleanString(nu.Department)

	if err := core.TranslateError(core.Validate.Struct(nu)); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep the original value.
type UpdateUser struct {
	Name       string `json:"name"`
	Role       string `json:"role" validate:"omitempty,userrole"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department"`
	Modules    string `json:"modules"`
	Notes      string `json:"notes"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if role := core.CleanString(uu.Role, true /* lower */); role != "" {
		uu.Role = role
	} else {
		uu.Role = origUsr.Role
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.TranslateError(core.Validate.Struct(uu)); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Email, origUsr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	Suspended   *bool     `query:"suspended"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
	// NewOnly keeps unverified accounts and accounts created within the last
	// 7 days (the "New Registrations" view).
	NewOnly bool `query:"new_only"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Suspended == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero() && !qf.NewOnly
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
