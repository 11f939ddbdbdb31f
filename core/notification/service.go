package notification

import (
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/learnbridge/core"
)

var timeNow = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		// PrependNotification inserts at the head of the user's inbox for the
		// given role.
		PrependNotification(role, userID string, n Notification) error
		ListNotifications(role, userID string) ([]Notification, error)
		MarkAllNotificationsRead(role, userID string) error
	}

	// AddressBook resolves a user id to an email recipient.
	AddressBook interface {
		RecipientByID(id string) (mail.Address, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		addrs   AddressBook
		logger  core.Logger
	}
)

// NewService returns a notification router. mailSvc and addrs may be nil, in
// which case notifications are stored without an email echo.
func NewService(repo Repository, mailSvc core.EmailService, addrs AddressBook, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, addrs: addrs, logger: logger}
}

// Notify stores a general message in the user's inbox.
func (svc *Service) Notify(role, userID, message string) error {
	return svc.notify(role, userID, Notification{Type: TypeGeneral, Message: message})
}

// NotifyBooking stores a booking-related message in the user's inbox.
func (svc *Service) NotifyBooking(role, userID, typ, bookingID, message string) error {
	return svc.notify(role, userID, Notification{Type: typ, BookingID: bookingID, Message: message})
}

func (svc *Service) notify(role, userID string, n Notification) error {
	n.ID = uuid.NewString()
	n.Time = timeNow()
	if err := svc.repo.PrependNotification(role, userID, n); err != nil {
		return err
	}
	svc.echoMail(userID, n)
	return nil
}

// echoMail sends a best-effort copy of the notification by email. Failures
// never fail the originating operation.
func (svc *Service) echoMail(userID string, n Notification) {
	if svc.mailSvc == nil || svc.addrs == nil {
		return
	}
	addr, err := svc.addrs.RecipientByID(userID)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Warn("notification: could not resolve recipient", "userID", userID, "err", err)
		}
		return
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{addr},
		Subject: "You have a new notification",
		BodyStr: n.Message,
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) List(role, userID string) ([]Notification, error) {
	return svc.repo.ListNotifications(role, userID)
}

// Unread returns the number of unread notifications in the user's inbox.
func (svc *Service) Unread(role, userID string) (int, error) {
	all, err := svc.repo.ListNotifications(role, userID)
	if err != nil {
		return 0, err
	}
	var n int
	for _, notif := range all {
		if !notif.Read {
			n++
		}
	}
	return n, nil
}

func (svc *Service) MarkAllRead(role, userID string) error {
	return svc.repo.MarkAllNotificationsRead(role, userID)
}
