package documentdb

import "github.com/trezcool/learnbridge/core/audit"

var _ audit.Repository = (*DB)(nil)

func (db *DB) PrependEntry(e audit.Entry, maxEntries int) error {
	return db.update([]string{ColAuditLog}, func(doc *Document) error {
		doc.AuditLog = append([]audit.Entry{e}, doc.AuditLog...)
		if maxEntries > 0 && len(doc.AuditLog) > maxEntries {
			doc.AuditLog = doc.AuditLog[:maxEntries]
		}
		return nil
	})
}

func (db *DB) QueryAllEntries() ([]audit.Entry, error) {
	var entries []audit.Entry
	err := db.view(func(doc *Document) error {
		entries = make([]audit.Entry, len(doc.AuditLog))
		copy(entries, doc.AuditLog)
		return nil
	})
	return entries, err
}
