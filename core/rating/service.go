package rating

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core/audit"
)

var timeNow = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		// PrependRating inserts at the head of the ledger.
		PrependRating(r Rating) error
		QueryAllRatings() ([]Rating, error)
	}

	Service struct {
		repo     Repository
		auditSvc *audit.Service
	}
)

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, auditSvc: auditSvc}
}

func (svc *Service) Add(actor string, nr NewRating) (Rating, error) {
	if err := nr.Validate(); err != nil {
		return Rating{}, err
	}
	r := Rating{
		ID:            uuid.NewString(),
		BookingID:     nr.BookingID,
		StudentID:     nr.StudentID,
		StudentName:   nr.StudentName,
		StudentNumber: nr.StudentNumber,
		PersonID:      nr.PersonID,
		PersonName:    nr.PersonName,
		Role:          nr.Role,
		Module:        nr.Module,
		Stars:         nr.Stars,
		Comment:       nr.Comment,
		Created:       timeNow(),
	}
	if err := svc.repo.PrependRating(r); err != nil {
		return Rating{}, err
	}
	return r, svc.auditSvc.Record("Added rating", actor, "id:"+r.ID)
}

func (svc *Service) QueryAll() ([]Rating, error) {
	return svc.repo.QueryAllRatings()
}

// Filter returns matching ratings, newest first.
func (svc *Service) Filter(filter QueryFilter) ([]Rating, error) {
	all, err := svc.repo.QueryAllRatings()
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return all, nil
	}
	ratings := make([]Rating, 0, len(all))
	for _, r := range all {
		if filter.match(r) {
			ratings = append(ratings, r)
		}
	}
	return ratings, nil
}

// Average returns the mean stars for a person, 0 when unrated.
func (svc *Service) Average(personID string) (float64, error) {
	ratings, err := svc.Filter(QueryFilter{PersonID: personID})
	if err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 0, nil
	}
	var sum int
	for _, r := range ratings {
		sum += r.Stars
	}
	return float64(sum) / float64(len(ratings)), nil
}
