package exam

import (
	"context"
	"time"

	"github.com/trezcool/feedesk/core"
)

var ErrNotFound = core.NewNotFoundError("notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		QueryActiveNotifications(ctx context.Context) ([]Notification, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens an exam window; its end date is the last date without fine.
func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	now := time.Now().UTC()
	return svc.repo.CreateNotification(ctx, Notification{
		Title:               nn.Title,
		Year:                nn.Year,
		Semester:            nn.Semester,
		ExamFeeAmount:       nn.ExamFeeAmount,
		StartDate:           nn.StartDate.UTC(),
		EndDate:             nn.EndDate.UTC(),
		LastDateWithoutFine: nn.EndDate.UTC(),
		IsActive:            true,
		Description:         nn.Description,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
}

func (svc *Service) Update(ctx context.Context, id string, un UpdateNotification) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if un.EndDate != nil && !un.EndDate.IsZero() {
		n.EndDate = un.EndDate.UTC()
	}
	if un.LateFee != nil {
		n.LateFee = *un.LateFee
	}
	if un.IsActive != nil {
		n.IsActive = *un.IsActive
	}
	n.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNotification(ctx, n)
}

func (svc *Service) ListActive(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryActiveNotifications(ctx)
}
