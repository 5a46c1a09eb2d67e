package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// PendingResumeRepo provides CRUD access to the PendingResume table.
type PendingResumeRepo struct {
	db         *gorm.DB
	ttlMinutes int
}

// NewPendingResumeRepo creates a PendingResumeRepo bound to db with the
// given TTL (defaults to 5 minutes when ttlMinutes == 0). A negative
// ttlMinutes is honored as-is, useful for tests that want every row to be
// immediately expired.
func NewPendingResumeRepo(db *gorm.DB, ttlMinutes int) *PendingResumeRepo {
	if ttlMinutes == 0 {
		ttlMinutes = 5
	}
	return &PendingResumeRepo{db: db, ttlMinutes: ttlMinutes}
}

// Mark upserts a pending-resume marker for threadID. The UNIQUE constraint
// on thread_id enforces at most one pending resume per thread.
func (r *PendingResumeRepo) Mark(threadID, sessionID, reason, resumePrompt string) error {
	var existing PendingResume
	err := r.db.First(&existing, "thread_id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := PendingResume{
			ThreadID:     threadID,
			SessionID:    sessionID,
			Reason:       reason,
			ResumePrompt: resumePrompt,
			CreatedAt:    time.Now(),
		}
		return r.db.Create(&row).Error
	}
	if err != nil {
		return err
	}

	existing.SessionID = sessionID
	existing.Reason = reason
	existing.ResumePrompt = resumePrompt
	existing.CreatedAt = time.Now()
	return r.db.Save(&existing).Error
}

// GetPending prunes rows older than the TTL, then returns survivors
// oldest-first. Callers that spawn a resumed run MUST delete the row before
// spawning (single-fire guarantee).
func (r *PendingResumeRepo) GetPending() ([]PendingResume, error) {
	cutoff := time.Now().Add(-time.Duration(r.ttlMinutes) * time.Minute)
	if err := r.db.Where("created_at < ?", cutoff).Delete(&PendingResume{}).Error; err != nil {
		return nil, err
	}

	var rows []PendingResume
	if err := r.db.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a pending-resume row by id.
func (r *PendingResumeRepo) Delete(id uint) error {
	return r.db.Delete(&PendingResume{}, "id = ?", id).Error
}

// DeleteByThread removes the pending-resume row for threadID, if any.
func (r *PendingResumeRepo) DeleteByThread(threadID string) error {
	return r.db.Delete(&PendingResume{}, "thread_id = ?", threadID).Error
}
