package history

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Provider string
	Status   string
	Limit    int
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// Store reads and writes records.
type Store struct {
	db        *gorm.DB
	retention int
	log       *logger.Logger
}

func newStore(db *gorm.DB, retention int, log *logger.Logger) *Store {
	return &Store{db: db, retention: retention, log: log}
}

// Save inserts rec, assigning its ID, then prunes past the retention limit.
// A failed prune is logged and does not fail the save.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.StorageError("history save", err)
	}
	if s.retention > 0 {
		if err := s.prune(ctx); err != nil {
			s.log.Warn("history prune failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
	return nil
}

func (s *Store) prune(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(
		`DELETE FROM transcriptions WHERE id NOT IN (SELECT id FROM transcriptions ORDER BY created_at DESC LIMIT ?)`,
		s.retention).Error
}

// Get returns NOT_FOUND when id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("transcription", id)
	}
	if err != nil {
		return nil, errors.StorageError("history read", err)
	}
	return &rec, nil
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	q := s.db.WithContext(ctx).Model(&Record{})
	if f.Provider != "" {
		q = q.Where("provider = ?", f.Provider)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	records := []Record{}
	if err := q.Order("created_at DESC").Limit(f.limit()).Find(&records).Error; err != nil {
		return nil, errors.StorageError("history list", err)
	}
	return records, nil
}

// Counts returns the number of records per status.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&Record{}).
		Select("status, count(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, errors.StorageError("history count", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
