package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core"
)

var timeNow = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		// PrependEntry inserts at the head of the log and trims the tail to
		// maxEntries when positive.
		PrependEntry(e Entry, maxEntries int) error
		QueryAllEntries() ([]Entry, error)
	}

	Service struct {
		repo       Repository
		maxEntries int
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, maxEntries: conf.AuditMaxEntries}
}

// Record appends an entry at the head of the log.
func (svc *Service) Record(action, by, details string) error {
	e := Entry{
		ID:      uuid.NewString(),
		Action:  action,
		By:      by,
		Details: details,
		Time:    timeNow(),
	}
	return svc.repo.PrependEntry(e, svc.maxEntries)
}

func (svc *Service) QueryAll() ([]Entry, error) {
	return svc.repo.QueryAllEntries()
}

// Query returns matching entries, newest first.
func (svc *Service) Query(filter Filter) ([]Entry, error) {
	all, err := svc.repo.QueryAllEntries()
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return all, nil
	}
	entries := make([]Entry, 0, len(all))
	for _, e := range all {
		if filter.match(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
