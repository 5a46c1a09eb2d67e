package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskRepo provides CRUD access to the Task table.
type TaskRepo struct {
	db *gorm.DB
}

// NewTaskRepo creates a TaskRepo bound to db.
func NewTaskRepo(db *gorm.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// CreateParams describes a new periodic task.
type CreateParams struct {
	Name            string
	Prompt          string
	IntervalSeconds int
	ChannelID       string
	WorkingDir      string
	RunImmediately  bool
}

// Create inserts a new task. When RunImmediately is true, the first firing
// is scheduled for now; otherwise it is scheduled one interval out.
func (r *TaskRepo) Create(p CreateParams) (*Task, error) {
	now := time.Now()
	nextRun := now.Add(time.Duration(p.IntervalSeconds) * time.Second)
	if p.RunImmediately {
		nextRun = now
	}

	t := Task{
		ID:              uuid.New().String(),
		Name:            p.Name,
		Prompt:          p.Prompt,
		IntervalSeconds: p.IntervalSeconds,
		ChannelID:       p.ChannelID,
		WorkingDir:      p.WorkingDir,
		Enabled:         true,
		NextRunAt:       nextRun,
		CreatedAt:       now,
	}
	if err := r.db.Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ErrDuplicateName indicates a task name collision.
var ErrDuplicateName = errors.New("task name already exists")

// Get returns a task by id.
func (r *TaskRepo) Get(id string) (*Task, error) {
	var t Task
	err := r.db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ByName returns a task by its unique name.
func (r *TaskRepo) ByName(name string) (*Task, error) {
	var t Task
	err := r.db.First(&t, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListAll returns every task.
func (r *TaskRepo) ListAll() ([]Task, error) {
	var rows []Task
	if err := r.db.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetDue returns enabled tasks whose next_run_at is at or before now,
// ordered by next_run_at.
func (r *TaskRepo) GetDue(now time.Time) ([]Task, error) {
	var rows []Task
	err := r.db.Where("enabled = ? AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateNextRun atomically advances next_run_at by interval and stamps
// last_run_at. Must be called before the task is dispatched so a re-fire
// of the master loop within the same interval cannot double-spawn it.
func (r *TaskRepo) UpdateNextRun(taskID string, intervalSeconds int) error {
	now := time.Now()
	return r.db.Model(&Task{}).Where("id = ?", taskID).Updates(map[string]interface{}{
		"next_run_at": now.Add(time.Duration(intervalSeconds) * time.Second),
		"last_run_at": now,
	}).Error
}

// FiredSince returns tasks whose last_run_at is strictly after cursor,
// ordered oldest-first, along with the newest last_run_at seen (or cursor
// unchanged if nothing fired). Used by the WS task-event stream to poll
// without re-delivering events already sent.
func (r *TaskRepo) FiredSince(cursor time.Time) ([]Task, time.Time) {
	var rows []Task
	q := r.db.Where("last_run_at > ?", cursor).Order("last_run_at ASC").Find(&rows)
	if q.Error != nil || len(rows) == 0 {
		return nil, cursor
	}
	return rows, rows[len(rows)-1].LastRunAt
}

// Delete removes a task.
func (r *TaskRepo) Delete(id string) error {
	return r.db.Delete(&Task{}, "id = ?", id).Error
}

// PatchParams describes a partial task update. Nil fields are left alone.
type PatchParams struct {
	Enabled         *bool
	Prompt          *string
	IntervalSeconds *int
	WorkingDir      *string
}

// Patch applies a partial update to a task and returns the updated row.
func (r *TaskRepo) Patch(id string, p PatchParams) (*Task, error) {
	var t Task
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	if p.Prompt != nil {
		t.Prompt = *p.Prompt
	}
	if p.IntervalSeconds != nil {
		t.IntervalSeconds = *p.IntervalSeconds
	}
	if p.WorkingDir != nil {
		t.WorkingDir = *p.WorkingDir
	}
	if err := r.db.Save(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
