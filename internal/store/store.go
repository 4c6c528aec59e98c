package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrSubmissionNotFound is returned for operations on a submission id that
// was never created by intake.
var ErrSubmissionNotFound = errors.New("submission not found")

// Interface is the persistence surface the ingestor works against.
type Interface interface {
	Open() error
	Close() error

	CreateSubmission(sub *Submission) error
	GetSubmission(id uint) (*Submission, error)

	// WithSubmission runs fn under the per-submission lock inside a
	// transaction. The loaded row is passed in; mutations to it are saved
	// when fn returns nil, and discarded (with the transaction rolled
	// back) when fn errors.
	WithSubmission(ctx context.Context, id uint, fn func(tx *gorm.DB, sub *Submission) error) error

	// UpsertAnswer inserts or updates by (submission_id, question_number).
	UpsertAnswer(tx *gorm.DB, ans *SubmissionAnswer) error
	GetAnswers(submissionID uint) ([]SubmissionAnswer, error)

	CreateEnrollment(e *Enrollment) error
	FindEnrollmentByIdentifier(tx *gorm.DB, identifier string) (*Enrollment, error)
}

// lockTable hands out one mutex per live submission id. Entries are
// reference counted and removed once the last holder releases, so the
// table stays bounded by in-flight work rather than submission history.
type lockTable struct {
	mu      sync.Mutex
	entries map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[uint]*lockEntry)}
}

func (t *lockTable) acquire(id uint) *lockEntry {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		e = &lockEntry{}
		t.entries[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return e
}

func (t *lockTable) release(id uint, e *lockEntry) {
	e.mu.Unlock()

	t.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(t.entries, id)
	}
	t.mu.Unlock()
}

// SQLiteStore is the gorm-backed datastore.
type SQLiteStore struct {
	path  string
	db    *gorm.DB
	locks *lockTable
	log   *slog.Logger
}

// NewSQLite builds a store against the SQLite file at path. Open must be
// called before use.
func NewSQLite(path string, log *slog.Logger) *SQLiteStore {
	if log == nil {
		log = slog.Default()
	}
	return &SQLiteStore{path: path, locks: newLockTable(), log: log}
}

// Open connects and migrates the schema.
func (s *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening sqlite database %q: %w", s.path, err)
	}

	// Single writer connection: SQLite serializes writes anyway, and a
	// pool of writers only manufactures SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("accessing sqlite connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&Enrollment{}, &Submission{}, &SubmissionAnswer{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	s.db = db
	s.log.Info("datastore opened", "path", s.path)
	return nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) CreateSubmission(sub *Submission) error {
	if sub.Status == "" {
		sub.Status = StatusPending
	}
	return s.db.Create(sub).Error
}

func (s *SQLiteStore) GetSubmission(id uint) (*Submission, error) {
	var sub Submission
	err := s.db.Preload("Enrollment").First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SQLiteStore) WithSubmission(ctx context.Context, id uint, fn func(tx *gorm.DB, sub *Submission) error) error {
	entry := s.locks.acquire(id)
	defer s.locks.release(id, entry)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub Submission
		err := tx.First(&sub, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		if err != nil {
			return fmt.Errorf("loading submission %d: %w", id, err)
		}

		if err := fn(tx, &sub); err != nil {
			return err
		}
		return tx.Save(&sub).Error
	})
}

func (s *SQLiteStore) UpsertAnswer(tx *gorm.DB, ans *SubmissionAnswer) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "submission_id"}, {Name: "question_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer", "marking", "confidence", "status", "updated_at",
		}),
	}).Create(ans).Error
}

func (s *SQLiteStore) GetAnswers(submissionID uint) ([]SubmissionAnswer, error) {
	var answers []SubmissionAnswer
	err := s.db.
		Where("submission_id = ?", submissionID).
		Order("question_number ASC").
		Find(&answers).Error
	return answers, err
}

func (s *SQLiteStore) CreateEnrollment(e *Enrollment) error {
	return s.db.Create(e).Error
}

// FindEnrollmentByIdentifier resolves a sheet identifier to an enrollment.
// Returns (nil, nil) when no enrollment carries the identifier; that is a
// routing outcome, not an error. Pass a transaction to read inside one, or
// nil for the base connection.
func (s *SQLiteStore) FindEnrollmentByIdentifier(tx *gorm.DB, identifier string) (*Enrollment, error) {
	db := tx
	if db == nil {
		db = s.db
	}
	var e Enrollment
	err := db.Where("identifier = ?", identifier).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
