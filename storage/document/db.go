// Package documentdb stores the whole application state as one JSON document
// on disk, the way the original portals shared a single data blob. Each
// top-level collection carries a revision counter; whole-document saves are
// checked against them so a stale writer cannot clobber a newer write.
package documentdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/learnbridge/core"
	"github.com/trezcool/learnbridge/core/audit"
	"github.com/trezcool/learnbridge/core/booking"
	"github.com/trezcool/learnbridge/core/notification"
	"github.com/trezcool/learnbridge/core/rating"
	"github.com/trezcool/learnbridge/core/user"
)

// Collection names, as they appear in the document and in revision keys.
const (
	ColUsers          = "users"
	ColTutoring       = "tutoringRequests"
	ColCounselling    = "counsellingRequests"
	ColRatings        = "ratings"
	ColAuditLog       = "audit"
	ColStudentData    = "studentData"
	ColTutorData      = "tutorData"
	ColCounsellorData = "counsellorData"
	ColSessions       = "sessions"
)

var allCollections = []string{
	ColUsers, ColTutoring, ColCounselling, ColRatings, ColAuditLog,
	ColStudentData, ColTutorData, ColCounsellorData, ColSessions,
}

type (
	// Bucket is the per-user blob kept under studentData/tutorData/
	// counsellorData, keyed by user id.
	Bucket struct {
		Profile         user.Profile                `json:"profile"`
		Availability    []user.AvailabilitySlot     `json:"availability,omitempty"`
		Notifications   []notification.Notification `json:"notifications,omitempty"`
		PendingRequests []string                    `json:"pendingRequests,omitempty"`
	}

	// Document is the whole stored state.
	Document struct {
		Users               []user.User                `json:"users"`
		TutoringRequests    []booking.Request          `json:"tutoringRequests"`
		CounsellingRequests []booking.Request          `json:"counsellingRequests"`
		Ratings             []rating.Rating            `json:"ratings"`
		AuditLog            []audit.Entry              `json:"audit"`
		StudentData         map[string]*Bucket         `json:"studentData"`
		TutorData           map[string]*Bucket         `json:"tutorData"`
		CounsellorData      map[string]*Bucket         `json:"counsellorData"`
		// Sessions is opaque portal session state; kept verbatim so a
		// round-trip never loses fields this code does not model.
		Sessions  map[string]json.RawMessage `json:"sessions"`
		Revisions map[string]uint64          `json:"revisions"`
	}

	// DB owns the document and its file. It implements the Repository
	// interface of every service.
	DB struct {
		mu       sync.RWMutex
		path     string
		doc      *Document
		logger   core.Logger
		onChange []func(collections ...string)
	}
)

func newDocument() *Document {
	doc := &Document{}
	doc.applyDefaults()
	return doc
}

// applyDefaults fills in anything a hand-edited or older file may miss.
func (doc *Document) applyDefaults() {
	if doc.StudentData == nil {
		doc.StudentData = map[string]*Bucket{}
	}
	if doc.TutorData == nil {
		doc.TutorData = map[string]*Bucket{}
	}
	if doc.CounsellorData == nil {
		doc.CounsellorData = map[string]*Bucket{}
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string]json.RawMessage{}
	}
	if doc.Revisions == nil {
		doc.Revisions = map[string]uint64{}
	}
	for _, col := range allCollections {
		if _, ok := doc.Revisions[col]; !ok {
			doc.Revisions[col] = 0
		}
	}
	// Kind is implied by the collection and not persisted.
	for i := range doc.TutoringRequests {
		doc.TutoringRequests[i].Kind = booking.KindTutoring
	}
	for i := range doc.CounsellingRequests {
		doc.CounsellingRequests[i].Kind = booking.KindCounselling
	}
}

// Open loads the document at path, creating a fresh one if the file does not
// exist yet. The file is only written on the first mutation. An empty path
// keeps the store in memory only.
func Open(path string, logger core.Logger) (*DB, error) {
	db := &DB{path: path, logger: logger}
	if path == "" {
		db.doc = newDocument()
		return db, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		db.doc = newDocument()
		return db, nil
	case err != nil:
		return nil, errors.Wrap(err, "reading document")
	}

	doc := new(Document)
	if err = json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}
	doc.applyDefaults()
	db.doc = doc
	return db, nil
}

// OnChange registers a callback invoked synchronously after every persisted
// mutation, with the names of the collections that changed.
func (db *DB) OnChange(fn func(collections ...string)) {
	db.mu.Lock()
	db.onChange = append(db.onChange, fn)
	db.mu.Unlock()
}

// Load returns a deep copy of the document, revisions included.
func (db *DB) Load() (Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.doc.clone()
}

// Save replaces the whole document with doc. For every collection whose
// content changed, doc's revision must match the stored one; otherwise a
// core.ConflictError names the first conflicting collection and nothing is
// written. Changed collections get their revision bumped.
func (db *DB) Save(doc Document) error {
	incoming, err := doc.collectionJSON()
	if err != nil {
		return err
	}

	db.mu.Lock()
	current, err := db.doc.collectionJSON()
	if err != nil {
		db.mu.Unlock()
		return err
	}

	var changed []string
	for _, col := range allCollections {
		if string(incoming[col]) == string(current[col]) {
			continue
		}
		if doc.Revisions[col] != db.doc.Revisions[col] {
			db.mu.Unlock()
			return core.NewConflictError(col)
		}
		changed = append(changed, col)
	}
	if len(changed) == 0 {
		db.mu.Unlock()
		return nil
	}

	next, err := doc.clone()
	if err != nil {
		db.mu.Unlock()
		return err
	}
	next.Revisions = make(map[string]uint64, len(db.doc.Revisions))
	for col, rev := range db.doc.Revisions {
		next.Revisions[col] = rev
	}
	for _, col := range changed {
		next.Revisions[col]++
	}
	db.doc = &next
	err = db.persistLocked()
	db.mu.Unlock()
	if err != nil {
		return err
	}
	db.notify(changed...)
	return nil
}

// update runs fn on the live document under the write lock, bumps the given
// collections' revisions and persists. Callbacks fire after the lock is
// released.
func (db *DB) update(cols []string, fn func(doc *Document) error) error {
	db.mu.Lock()
	if err := fn(db.doc); err != nil {
		db.mu.Unlock()
		return err
	}
	for _, col := range cols {
		db.doc.Revisions[col]++
	}
	err := db.persistLocked()
	db.mu.Unlock()
	if err != nil {
		return err
	}
	db.notify(cols...)
	return nil
}

func (db *DB) view(fn func(doc *Document) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.doc)
}

// persistLocked writes the document to a sibling temp file and renames it
// into place so readers never see a half-written file.
func (db *DB) persistLocked() error {
	if db.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(db.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	tmp := db.path + ".tmp"
	if err = os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return errors.Wrap(err, "creating data dir")
	}
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "writing document")
	}
	if err = os.Rename(tmp, db.path); err != nil {
		return errors.Wrap(err, "replacing document")
	}
	return nil
}

func (db *DB) notify(cols ...string) {
	db.mu.RLock()
	callbacks := make([]func(...string), len(db.onChange))
	copy(callbacks, db.onChange)
	db.mu.RUnlock()
	for _, fn := range callbacks {
		fn(cols...)
	}
}

// clone deep-copies via a JSON round-trip; cheap enough at this scale and
// guaranteed to match what persistence does.
func (doc *Document) clone() (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}, errors.Wrap(err, "copying document")
	}
	var cp Document
	if err = json.Unmarshal(data, &cp); err != nil {
		return Document{}, errors.Wrap(err, "copying document")
	}
	cp.applyDefaults()
	return cp, nil
}

// collectionJSON marshals each collection separately for change detection.
func (doc *Document) collectionJSON() (map[string][]byte, error) {
	cols := map[string]interface{}{
		ColUsers:          doc.Users,
		ColTutoring:       doc.TutoringRequests,
		ColCounselling:    doc.CounsellingRequests,
		ColRatings:        doc.Ratings,
		ColAuditLog:       doc.AuditLog,
		ColStudentData:    doc.StudentData,
		ColTutorData:      doc.TutorData,
		ColCounsellorData: doc.CounsellorData,
		ColSessions:       doc.Sessions,
	}
	out := make(map[string][]byte, len(cols))
	for name, col := range cols {
		data, err := json.Marshal(col)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", name)
		}
		out[name] = data
	}
	return out, nil
}

// bucketColFor maps a role to its per-user data collection.
func bucketColFor(role string) string {
	switch role {
	case user.RoleTutor:
		return ColTutorData
	case user.RoleCounsellor:
		return ColCounsellorData
	default:
		return ColStudentData
	}
}

func (doc *Document) buckets(role string) map[string]*Bucket {
	switch role {
	case user.RoleTutor:
		return doc.TutorData
	case user.RoleCounsellor:
		return doc.CounsellorData
	default:
		return doc.StudentData
	}
}

// bucket returns the user's bucket for the role, creating it if needed.
func (doc *Document) bucket(role, userID string) *Bucket {
	buckets := doc.buckets(role)
	b, ok := buckets[userID]
	if !ok {
		b = &Bucket{}
		buckets[userID] = b
	}
	return b
}
