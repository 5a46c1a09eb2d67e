package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SessionRepo provides CRUD access to the Session table.
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo creates a SessionRepo bound to db.
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Get returns the session for threadID, or nil if none exists.
func (r *SessionRepo) Get(threadID string) (*Session, error) {
	var s Session
	err := r.db.First(&s, "thread_id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetBySessionID reverse-looks-up a session by its CLI session identifier.
func (r *SessionRepo) GetBySessionID(sessionID string) (*Session, error) {
	var s Session
	err := r.db.First(&s, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveOpts carries the optional fields of an upsert. Nil fields preserve
// whatever is already stored.
type SaveOpts struct {
	WorkingDir *string
	Model      *string
	Origin     *string
	Summary    *string
}

// Save upserts the thread→session mapping. On conflict (same thread id) the
// session id and last_used_at are always updated; non-nil optional fields
// overwrite, nil fields preserve the existing value.
func (r *SessionRepo) Save(threadID, sessionID string, opts SaveOpts) (*Session, error) {
	now := time.Now()

	var existing Session
	err := r.db.First(&existing, "thread_id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s := Session{
			ThreadID:   threadID,
			SessionID:  sessionID,
			Origin:     OriginDiscord,
			CreatedAt:  now,
			LastUsedAt: now,
		}
		if opts.WorkingDir != nil {
			s.WorkingDir = *opts.WorkingDir
		}
		if opts.Model != nil {
			s.Model = *opts.Model
		}
		if opts.Origin != nil {
			s.Origin = *opts.Origin
		}
		if opts.Summary != nil {
			s.Summary = *opts.Summary
		}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}

	existing.SessionID = sessionID
	existing.LastUsedAt = now
	if opts.WorkingDir != nil {
		existing.WorkingDir = *opts.WorkingDir
	}
	if opts.Model != nil {
		existing.Model = *opts.Model
	}
	if opts.Origin != nil {
		existing.Origin = *opts.Origin
	}
	if opts.Summary != nil {
		existing.Summary = *opts.Summary
	}
	if err := r.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// ListAll returns sessions ordered by last_used_at descending, optionally
// filtered by origin.
func (r *SessionRepo) ListAll(limit int, origin string) ([]Session, error) {
	q := r.db.Order("last_used_at DESC")
	if origin != "" {
		q = q.Where("origin = ?", origin)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var sessions []Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes the session for threadID. Returns true if a row was deleted.
func (r *SessionRepo) Delete(threadID string) (bool, error) {
	res := r.db.Delete(&Session{}, "thread_id = ?", threadID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CleanupOld deletes sessions whose last_used_at is older than the given
// number of days. Returns the number of rows removed.
func (r *SessionRepo) CleanupOld(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.Where("last_used_at < ?", cutoff).Delete(&Session{})
	return res.RowsAffected, res.Error
}
