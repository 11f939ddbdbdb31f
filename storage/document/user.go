package documentdb

import (
	"strings"
	"time"

	"github.com/trezcool/learnbridge/core/user"
)

var timeNow = func() time.Time { return time.Now().UTC() } // mockable

// newAccountWindow is how long an account counts as a new registration.
const newAccountWindow = 7 * 24 * time.Hour

var _ user.Repository = (*DB)(nil)

func (db *DB) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	email = strings.ToLower(email)
	return db.view(func(doc *Document) error {
	usersLoop:
		for _, usr := range doc.Users {
			if strings.ToLower(usr.Email) != email {
				continue
			}
			for _, excl := range excludedUsers {
				if usr.ID == excl.ID {
					continue usersLoop
				}
			}
			return user.ErrEmailExists
		}
		return nil
	})
}

func (db *DB) CreateUser(usr user.User) (user.User, error) {
	err := db.update([]string{ColUsers}, func(doc *Document) error {
		doc.Users = append(doc.Users, usr)
		return nil
	})
	return usr, err
}

func (db *DB) QueryAllUsers() ([]user.User, error) {
	var users []user.User
	err := db.view(func(doc *Document) error {
		users = make([]user.User, len(doc.Users))
		copy(users, doc.Users)
		return nil
	})
	return users, err
}

func (db *DB) GetUserByID(id string) (user.User, error) {
	var usr user.User
	err := db.view(func(doc *Document) error {
		for _, u := range doc.Users {
			if u.ID == id {
				usr = u
				return nil
			}
		}
		return user.ErrNotFound
	})
	return usr, err
}

func (db *DB) GetUserByEmail(email string) (user.User, error) {
	var usr user.User
	err := db.view(func(doc *Document) error {
		for _, u := range doc.Users {
			if strings.EqualFold(u.Email, email) {
				usr = u
				return nil
			}
		}
		return user.ErrNotFound
	})
	return usr, err
}

func (db *DB) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	now := timeNow()
	var users []user.User
	err := db.view(func(doc *Document) error {
		for _, u := range doc.Users {
			if matchUser(u, filter, now) {
				users = append(users, u)
			}
		}
		return nil
	})
	return users, err
}

func matchUser(u user.User, filter user.QueryFilter, now time.Time) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Role), search) &&
			!strings.Contains(strings.ToLower(u.Department), search) {
			return false
		}
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Suspended != nil && u.Suspended != *filter.Suspended {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.Created.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.Created.After(filter.CreatedTo) {
		return false
	}
	if filter.NewOnly && u.Verified && u.Created.Before(now.Add(-newAccountWindow)) {
		return false
	}
	return true
}

// UpdateUser replaces the stored user. A role change that lands the user in a
// different data collection moves the bucket along, so availability,
// notifications and the pending index are never orphaned under the old role.
func (db *DB) UpdateUser(usr user.User) (user.User, error) {
	prev, err := db.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}
	cols := []string{ColUsers}
	migrate := bucketColFor(prev.Role) != bucketColFor(usr.Role)
	if migrate {
		cols = append(cols, bucketColFor(prev.Role), bucketColFor(usr.Role))
	}
	err = db.update(cols, func(doc *Document) error {
		for i, u := range doc.Users {
			if u.ID == usr.ID {
				doc.Users[i] = usr
				if migrate {
					if b, ok := doc.buckets(prev.Role)[usr.ID]; ok {
						delete(doc.buckets(prev.Role), usr.ID)
						doc.buckets(usr.Role)[usr.ID] = b
					}
				}
				return nil
			}
		}
		return user.ErrNotFound
	})
	return usr, err
}

func (db *DB) SetUserSuspended(id string, suspended bool) (user.User, error) {
	var usr user.User
	err := db.update([]string{ColUsers}, func(doc *Document) error {
		for i, u := range doc.Users {
			if u.ID == id {
				doc.Users[i].Suspended = suspended
				usr = doc.Users[i]
				return nil
			}
		}
		return user.ErrNotFound
	})
	return usr, err
}

// DeleteUser removes the user record along with its per-user bucket.
func (db *DB) DeleteUser(id string) error {
	var bucketCol string
	err := db.view(func(doc *Document) error {
		for _, u := range doc.Users {
			if u.ID == id {
				bucketCol = bucketColFor(u.Role)
				return nil
			}
		}
		return user.ErrNotFound
	})
	if err != nil {
		return err
	}
	return db.update([]string{ColUsers, bucketCol}, func(doc *Document) error {
		for i, u := range doc.Users {
			if u.ID == id {
				doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
				delete(doc.buckets(u.Role), id)
				return nil
			}
		}
		return user.ErrNotFound
	})
}

func (db *DB) GetAvailability(userID string) ([]user.AvailabilitySlot, error) {
	var slots []user.AvailabilitySlot
	err := db.view(func(doc *Document) error {
		usr, err := findUser(doc, userID)
		if err != nil {
			return err
		}
		if b, ok := doc.buckets(usr.Role)[userID]; ok {
			slots = make([]user.AvailabilitySlot, len(b.Availability))
			copy(slots, b.Availability)
		}
		return nil
	})
	return slots, err
}

func (db *DB) SetAvailability(userID string, slots []user.AvailabilitySlot) error {
	usr, err := db.personByID(userID)
	if err != nil {
		return err
	}
	return db.update([]string{bucketColFor(usr.Role)}, func(doc *Document) error {
		doc.bucket(usr.Role, userID).Availability = slots
		return nil
	})
}

func (db *DB) GetProfile(userID string) (user.Profile, error) {
	var p user.Profile
	err := db.view(func(doc *Document) error {
		usr, err := findUser(doc, userID)
		if err != nil {
			return err
		}
		if b, ok := doc.buckets(usr.Role)[userID]; ok {
			p = b.Profile
		}
		return nil
	})
	return p, err
}

func (db *DB) SetProfile(userID string, p user.Profile) error {
	usr, err := db.personByID(userID)
	if err != nil {
		return err
	}
	return db.update([]string{bucketColFor(usr.Role)}, func(doc *Document) error {
		doc.bucket(usr.Role, userID).Profile = p
		return nil
	})
}

func (db *DB) personByID(userID string) (user.User, error) {
	usr, err := db.GetUserByID(userID)
	if err != nil {
		return user.User{}, err
	}
	if !usr.IsPerson() {
		return user.User{}, user.ErrNotPerson
	}
	return usr, nil
}

func findUser(doc *Document, id string) (user.User, error) {
	for _, u := range doc.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
