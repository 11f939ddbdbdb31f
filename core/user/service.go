package user

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core"
	"github.com/trezcool/learnbridge/core/audit"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrNotPerson   = errors.New("user is not a tutor or counsellor")

	timeNow = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name,
		// User.Email, User.Role or User.Department.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(usr User) (User, error)
		SetUserSuspended(id string, suspended bool) (User, error)
		DeleteUser(id string) error

		GetAvailability(userID string) ([]AvailabilitySlot, error)
		SetAvailability(userID string, slots []AvailabilitySlot) error
		GetProfile(userID string) (Profile, error)
		SetProfile(userID string, p Profile) error
	}

	// RequestCanceller cancels a user's open booking requests when the
	// account is removed.
	RequestCanceller interface {
		CancelAllFor(actor, userID, reason string) error
	}

	Service struct {
		repo       Repository
		auditSvc   *audit.Service
		cancellers []RequestCanceller
	}
)

func NewService(repo Repository, auditSvc *audit.Service, cancellers ...RequestCanceller) *Service {
	return &Service{repo: repo, auditSvc: auditSvc, cancellers: cancellers}
}

// RegisterCanceller adds a canceller after construction; booking services are
// wired up after the user service they depend on.
func (svc *Service) RegisterCanceller(c RequestCanceller) {
	svc.cancellers = append(svc.cancellers, c)
}

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(actor string, nu NewUser) (User, error) {
	if err := nu.Validate(svc); err != nil {
		return User{}, err
	}
	usr := User{
		ID:         uuid.NewString(),
		Name:       nu.Name,
		Role:       nu.Role,
		Email:      nu.Email,
		Department: nu.Department,
		Modules:    nu.Modules,
		Notes:      nu.Notes,
		Verified:   true,
		Created:    timeNow(),
	}
	if nu.Password != "" {
		if err := usr.SetPassword(nu.Password); err != nil {
			return User{}, err
		}
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	return usr, svc.auditSvc.Record(fmt.Sprintf("Created user %s", usr.Name), actor, "id:"+usr.ID)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) Edit(actor, id string, uu UpdateUser) (User, error) {
	origUsr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(origUsr, svc); err != nil {
		return User{}, err
	}
	origUsr.Name = uu.Name
	origUsr.Role = uu.Role
	origUsr.Email = uu.Email
	origUsr.Department = uu.Department
	origUsr.Modules = uu.Modules
	origUsr.Notes = uu.Notes
	usr, err := svc.repo.UpdateUser(origUsr)
	if err != nil {
		return User{}, err
	}
	return usr, svc.auditSvc.Record(fmt.Sprintf("Edited user %s", usr.Name), actor, "id:"+usr.ID)
}

// ResetPassword replaces the user's password. The policy applied to admin-set
// temporary passwords is enforced by NewUser validation, not here.
func (svc *Service) ResetPassword(actor, id, pwd string) error {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := svc.repo.UpdateUser(usr); err != nil {
		return err
	}
	return svc.auditSvc.Record(fmt.Sprintf("Reset password for user %s", usr.Name), actor, "id:"+usr.ID)
}

func (svc *Service) Suspend(actor, id string) (User, error) {
	usr, err := svc.repo.SetUserSuspended(id, true)
	if err != nil {
		return User{}, err
	}
	return usr, svc.auditSvc.Record(fmt.Sprintf("Suspended user %s", usr.Name), actor, "id:"+usr.ID)
}

func (svc *Service) Reinstate(actor, id string) (User, error) {
	usr, err := svc.repo.SetUserSuspended(id, false)
	if err != nil {
		return User{}, err
	}
	return usr, svc.auditSvc.Record(fmt.Sprintf("Reinstated user %s", usr.Name), actor, "id:"+usr.ID)
}

// Delete removes the account for good. Open booking requests referencing the
// account are cancelled first so no live request points at a missing user;
// terminal requests keep their denormalised names.
func (svc *Service) Delete(actor, id string) error {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	for _, canceller := range svc.cancellers {
		if err := canceller.CancelAllFor(actor, id, "account removed"); err != nil {
			return err
		}
	}
	if err := svc.repo.DeleteUser(id); err != nil {
		return err
	}
	return svc.auditSvc.Record(fmt.Sprintf("Deleted user %s", usr.Name), actor, "id:"+usr.ID)
}

func (svc *Service) GetAvailability(userID string) ([]AvailabilitySlot, error) {
	return svc.repo.GetAvailability(userID)
}

func (svc *Service) SetAvailability(actor, userID string, slots []AvailabilitySlot) error {
	for _, slot := range slots {
		if err := core.TranslateError(core.Validate.Struct(slot)); err != nil {
			return err
		}
	}
	if err := svc.repo.SetAvailability(userID, slots); err != nil {
		return err
	}
	return svc.auditSvc.Record("Updated availability", actor, "id:"+userID)
}

func (svc *Service) GetProfile(userID string) (Profile, error) {
	return svc.repo.GetProfile(userID)
}

// UpdateProfile saves the public profile and mirrors the shared fields back
// onto the user record, as the portals do.
func (svc *Service) UpdateProfile(actor, userID string, p Profile) error {
	usr, err := svc.repo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !usr.IsPerson() {
		return ErrNotPerson
	}
	if err := svc.repo.SetProfile(userID, p); err != nil {
		return err
	}
	if p.Name != "" {
		usr.Name = p.Name
	}
	if p.Department != "" {
		usr.Department = p.Department
	}
	if p.Modules != "" {
		usr.Modules = p.Modules
	}
	if _, err := svc.repo.UpdateUser(usr); err != nil {
		return err
	}
	return svc.auditSvc.Record(fmt.Sprintf("Updated %s profile", usr.Role), actor, "id:"+usr.ID)
}

// RecipientByID resolves a user to an email recipient; used by the
// notification router's email echo.
func (svc *Service) RecipientByID(id string) (mail.Address, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return mail.Address{}, err
	}
	return mail.Address{Name: usr.Name, Address: usr.Email}, nil
}
