package store

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AskQuestion is one question within an interactive ask batch.
type AskQuestion struct {
	Header      string     `json:"header"`
	Body        string     `json:"body,omitempty"`
	MultiSelect bool       `json:"multi_select"`
	Options     []AskOption `json:"options"`
}

// AskOption is a single selectable answer for an AskQuestion.
type AskOption struct {
	Label string `json:"label"`
}

// PendingAskRepo provides CRUD access to the PendingAsk table.
type PendingAskRepo struct {
	db *gorm.DB
}

// NewPendingAskRepo creates a PendingAskRepo bound to db.
func NewPendingAskRepo(db *gorm.DB) *PendingAskRepo {
	return &PendingAskRepo{db: db}
}

// Save upserts the pending-ask record for threadID.
func (r *PendingAskRepo) Save(threadID, sessionID string, questions []AskQuestion, currentIndex int) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	ask := PendingAsk{
		ThreadID:      threadID,
		SessionID:     sessionID,
		QuestionsJSON: JSON(raw),
		CurrentIndex:  currentIndex,
		CreatedAt:     time.Now(),
	}

	return r.db.Save(&ask).Error
}

// Get returns the pending-ask record for threadID, or nil if none exists.
func (r *PendingAskRepo) Get(threadID string) (*PendingAsk, error) {
	var a PendingAsk
	err := r.db.First(&a, "thread_id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Questions decodes the stored question batch.
func (a *PendingAsk) Questions() ([]AskQuestion, error) {
	var qs []AskQuestion
	if err := json.Unmarshal(a.QuestionsJSON, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// Delete removes the pending-ask record for threadID.
func (r *PendingAskRepo) Delete(threadID string) error {
	return r.db.Delete(&PendingAsk{}, "thread_id = ?", threadID).Error
}

// ListAll returns every pending-ask record, used for crash recovery.
func (r *PendingAskRepo) ListAll() ([]PendingAsk, error) {
	var asks []PendingAsk
	if err := r.db.Find(&asks).Error; err != nil {
		return nil, err
	}
	return asks, nil
}

// CleanupOld deletes pending-ask rows older than the given number of hours.
func (r *PendingAskRepo) CleanupOld(hours int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	res := r.db.Where("created_at < ?", cutoff).Delete(&PendingAsk{})
	return res.RowsAffected, res.Error
}
