package documentdb

import "github.com/trezcool/learnbridge/core/notification"

var _ notification.Repository = (*DB)(nil)

func (db *DB) PrependNotification(role, userID string, n notification.Notification) error {
	return db.update([]string{bucketColFor(role)}, func(doc *Document) error {
		b := doc.bucket(role, userID)
		b.Notifications = append([]notification.Notification{n}, b.Notifications...)
		return nil
	})
}

func (db *DB) ListNotifications(role, userID string) ([]notification.Notification, error) {
	var notifs []notification.Notification
	err := db.view(func(doc *Document) error {
		if b, ok := doc.buckets(role)[userID]; ok {
			notifs = make([]notification.Notification, len(b.Notifications))
			copy(notifs, b.Notifications)
		}
		return nil
	})
	return notifs, err
}

func (db *DB) MarkAllNotificationsRead(role, userID string) error {
	return db.update([]string{bucketColFor(role)}, func(doc *Document) error {
		if b, ok := doc.buckets(role)[userID]; ok {
			for i := range b.Notifications {
				b.Notifications[i].Read = true
			}
		}
		return nil
	})
}
