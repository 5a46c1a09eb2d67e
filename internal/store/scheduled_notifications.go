package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduledNotificationRepo provides CRUD access to the
// ScheduledNotification table.
type ScheduledNotificationRepo struct {
	db *gorm.DB
}

// NewScheduledNotificationRepo creates a ScheduledNotificationRepo bound to db.
func NewScheduledNotificationRepo(db *gorm.DB) *ScheduledNotificationRepo {
	return &ScheduledNotificationRepo{db: db}
}

// CreateScheduledParams describes a one-shot notification booking.
type CreateScheduledParams struct {
	Message     string
	Title       string
	Color       int
	ChannelID   string
	ScheduledAt time.Time
}

// Create inserts a pending scheduled notification.
func (r *ScheduledNotificationRepo) Create(p CreateScheduledParams) (*ScheduledNotification, error) {
	n := ScheduledNotification{
		ID:          uuid.New().String(),
		Message:     p.Message,
		Title:       p.Title,
		Color:       p.Color,
		ChannelID:   p.ChannelID,
		ScheduledAt: p.ScheduledAt,
		CreatedAt:   time.Now(),
	}
	if err := r.db.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Get returns a scheduled notification by id.
func (r *ScheduledNotificationRepo) Get(id string) (*ScheduledNotification, error) {
	var n ScheduledNotification
	err := r.db.First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListPending returns all undelivered notifications, soonest-first.
func (r *ScheduledNotificationRepo) ListPending() ([]ScheduledNotification, error) {
	var rows []ScheduledNotification
	err := r.db.Where("delivered = ?", false).Order("scheduled_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetDue returns undelivered notifications whose scheduled_at is at or
// before now.
func (r *ScheduledNotificationRepo) GetDue(now time.Time) ([]ScheduledNotification, error) {
	var rows []ScheduledNotification
	err := r.db.Where("delivered = ? AND scheduled_at <= ?", false, now).
		Order("scheduled_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkDelivered flags a notification as sent so it is not redelivered.
func (r *ScheduledNotificationRepo) MarkDelivered(id string) error {
	return r.db.Model(&ScheduledNotification{}).Where("id = ?", id).Update("delivered", true).Error
}

// Delete cancels a pending scheduled notification. Returns false if the id
// did not exist or was already delivered.
func (r *ScheduledNotificationRepo) Delete(id string) (bool, error) {
	res := r.db.Where("id = ? AND delivered = ?", id, false).Delete(&ScheduledNotification{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
