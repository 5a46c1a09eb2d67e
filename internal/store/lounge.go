package store

import (
	"time"

	"gorm.io/gorm"
)

// DefaultLoungeRetention is the number of most-recent lounge messages kept.
const DefaultLoungeRetention = 200

// loungeMessageLimit matches the Message column size; longer posts are
// truncated rather than rejected.
const loungeMessageLimit = 1000

// LoungeRepo provides access to the LoungeMessage table.
type LoungeRepo struct {
	db        *gorm.DB
	retention int
}

// NewLoungeRepo creates a LoungeRepo bound to db, retaining at most
// retention rows (DefaultLoungeRetention when retention <= 0).
func NewLoungeRepo(db *gorm.DB, retention int) *LoungeRepo {
	if retention <= 0 {
		retention = DefaultLoungeRetention
	}
	return &LoungeRepo{db: db, retention: retention}
}

// Post inserts a message and prunes to the newest N rows in one transaction.
func (r *LoungeRepo) Post(message, label string) (*LoungeMessage, error) {
	if len(message) > loungeMessageLimit {
		message = message[:loungeMessageLimit]
	}

	var created LoungeMessage
	err := r.db.Transaction(func(tx *gorm.DB) error {
		created = LoungeMessage{
			Label:    label,
			Message:  message,
			PostedAt: time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&LoungeMessage{}).Count(&count).Error; err != nil {
			return err
		}
		if count <= int64(r.retention) {
			return nil
		}

		var stale []LoungeMessage
		if err := tx.Order("posted_at ASC").
			Limit(int(count) - r.retention).
			Find(&stale).Error; err != nil {
			return err
		}
		for _, s := range stale {
			if err := tx.Delete(&LoungeMessage{}, "id = ?", s.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetRecent returns the newest-N messages in chronological (oldest-first)
// order.
func (r *LoungeRepo) GetRecent(limit int) ([]LoungeMessage, error) {
	var newest []LoungeMessage
	if err := r.db.Order("posted_at DESC").Limit(limit).Find(&newest).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// Count returns the total number of lounge messages.
func (r *LoungeRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&LoungeMessage{}).Count(&count).Error
	return count, err
}
