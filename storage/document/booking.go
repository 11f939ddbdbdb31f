package documentdb

import (
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/user"
)

var _ booking.Repository = (*DB)(nil)

func requestColFor(kind string) string {
	if kind == booking.KindCounselling {
		return ColCounselling
	}
	return ColTutoring
}

// personRoleFor is the role of the booked person for a kind.
func personRoleFor(kind string) string {
	if kind == booking.KindCounselling {
		return user.RoleCounsellor
	}
	return user.RoleTutor
}

func (doc *Document) requests(kind string) *[]booking.Request {
	if kind == booking.KindCounselling {
		return &doc.CounsellingRequests
	}
	return &doc.TutoringRequests
}

func (db *DB) CreateRequest(kind string, req booking.Request) (booking.Request, error) {
	req.Kind = kind
	role := personRoleFor(kind)
	cols := []string{requestColFor(kind), bucketColFor(role), ColStudentData}
	err := db.update(cols, func(doc *Document) error {
		reqs := doc.requests(kind)
		*reqs = append([]booking.Request{req}, *reqs...)
		if req.Status == booking.StatusPending {
			b := doc.bucket(role, req.PersonID)
			b.PendingRequests = append(b.PendingRequests, req.ID)
			sb := doc.bucket(user.RoleStudent, req.StudentID)
			sb.PendingRequests = append(sb.PendingRequests, req.ID)
		}
		return nil
	})
	return req, err
}

func (db *DB) GetRequest(kind, id string) (booking.Request, error) {
	var req booking.Request
	err := db.view(func(doc *Document) error {
		for _, r := range *doc.requests(kind) {
			if r.ID == id {
				req = r
				req.Kind = kind
				return nil
			}
		}
		return booking.ErrNotFound
	})
	return req, err
}

func (db *DB) QueryAllRequests(kind string) ([]booking.Request, error) {
	var reqs []booking.Request
	err := db.view(func(doc *Document) error {
		src := *doc.requests(kind)
		reqs = make([]booking.Request, len(src))
		copy(reqs, src)
		for i := range reqs {
			reqs[i].Kind = kind
		}
		return nil
	})
	return reqs, err
}

// UpdateRequest replaces the stored request. A request leaving pending is
// removed from the person's pending index.
func (db *DB) UpdateRequest(kind string, req booking.Request) (booking.Request, error) {
	req.Kind = kind
	prev, err := db.GetRequest(kind, req.ID)
	if err != nil {
		return booking.Request{}, err
	}

	role := personRoleFor(kind)
	cols := []string{requestColFor(kind)}
	unindex := prev.Status == booking.StatusPending && req.Status != booking.StatusPending
	if unindex {
		cols = append(cols, bucketColFor(role), ColStudentData)
	}

	err = db.update(cols, func(doc *Document) error {
		reqs := *doc.requests(kind)
		for i, r := range reqs {
			if r.ID == req.ID {
				reqs[i] = req
				if unindex {
					if b, ok := doc.buckets(role)[req.PersonID]; ok {
						b.PendingRequests = removeID(b.PendingRequests, req.ID)
					}
					if sb, ok := doc.StudentData[req.StudentID]; ok {
						sb.PendingRequests = removeID(sb.PendingRequests, req.ID)
					}
				}
				return nil
			}
		}
		return booking.ErrNotFound
	})
	if err != nil {
		return booking.Request{}, err
	}
	return req, nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
