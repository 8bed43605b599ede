package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/exam"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db}
}

func copyNotification(n exam.Notification) exam.Notification {
	if n.Semester != nil {
		n.Semester = core.IntPtr(*n.Semester)
	}
	return n
}

func (repo *examRepository) CreateNotification(_ context.Context, n exam.Notification) (exam.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n.ID = uuid.NewString()
	stored := copyNotification(n)
	repo.db.notifications[n.ID] = &stored
	return n, nil
}

func (repo *examRepository) GetNotificationByID(_ context.Context, id string) (exam.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return copyNotification(*n), nil
	}
	return exam.Notification{}, exam.ErrNotFound
}

func (repo *examRepository) UpdateNotification(_ context.Context, n exam.Notification) (exam.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.notifications[n.ID]
	if !ok {
		return exam.Notification{}, exam.ErrNotFound
	}
	orig.EndDate = n.EndDate
	orig.LateFee = n.LateFee
	orig.IsActive = n.IsActive
	orig.UpdatedAt = n.UpdatedAt
	return copyNotification(*orig), nil
}

func (repo *examRepository) QueryActiveNotifications(_ context.Context) ([]exam.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ns := make([]exam.Notification, 0)
	for _, n := range repo.db.notifications {
		if n.IsActive {
			ns = append(ns, copyNotification(*n))
		}
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i].CreatedAt.After(ns[j].CreatedAt) })
	return ns, nil
}
