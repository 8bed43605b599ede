package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/feedesk/core/exam"
)

const notificationColumns = `id, title, year, semester, exam_fee_amount, start_date, end_date,
	last_date_without_fine, late_fee, is_active, description, created_at, updated_at`

type notificationRow struct {
	ID                  string    `db:"id"`
	Title               string    `db:"title"`
	Year                int       `db:"year"`
	Semester            null.Int  `db:"semester"`
	ExamFeeAmount       int64     `db:"exam_fee_amount"`
	StartDate           time.Time `db:"start_date"`
	EndDate             time.Time `db:"end_date"`
	LastDateWithoutFine null.Time `db:"last_date_without_fine"`
	LateFee             int64     `db:"late_fee"`
	IsActive            bool      `db:"is_active"`
	Description         string    `db:"description"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func toNotificationRow(n exam.Notification) notificationRow {
	row := notificationRow{
		ID:                  n.ID,
		Title:               n.Title,
		Year:                n.Year,
		ExamFeeAmount:       n.ExamFeeAmount,
		StartDate:           n.StartDate.UTC(),
		EndDate:             n.EndDate.UTC(),
		LastDateWithoutFine: null.NewTime(n.LastDateWithoutFine.UTC(), !n.LastDateWithoutFine.IsZero()),
		LateFee:             n.LateFee,
		IsActive:            n.IsActive,
		Description:         n.Description,
		CreatedAt:           n.CreatedAt.UTC(),
		UpdatedAt:           n.UpdatedAt.UTC(),
	}
	if n.Semester != nil {
		row.Semester = null.IntFrom(*n.Semester)
	}
	return row
}

func (r notificationRow) toNotification() exam.Notification {
	n := exam.Notification{
		ID:            r.ID,
		Title:         r.Title,
		Year:          r.Year,
		ExamFeeAmount: r.ExamFeeAmount,
		StartDate:     r.StartDate.UTC(),
		EndDate:       r.EndDate.UTC(),
		LateFee:       r.LateFee,
		IsActive:      r.IsActive,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.Semester.Valid {
		sem := r.Semester.Int
		n.Semester = &sem
	}
	if r.LastDateWithoutFine.Valid {
		n.LastDateWithoutFine = r.LastDateWithoutFine.Time.UTC()
	}
	return n
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateNotification(ctx context.Context, n exam.Notification) (exam.Notification, error) {
	n.ID = uuid.NewString()
	q := `INSERT INTO exam_notification (` + notificationColumns + `) VALUES (:id, :title, :year, :semester,
		:exam_fee_amount, :start_date, :end_date, :last_date_without_fine, :late_fee, :is_active, :description,
		:created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toNotificationRow(n)); err != nil {
		return exam.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *examRepository) GetNotificationByID(ctx context.Context, id string) (exam.Notification, error) {
	var row notificationRow
	q := `SELECT ` + notificationColumns + ` FROM exam_notification WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return exam.Notification{}, trapNoRowsErr(err, exam.ErrNotFound, "selecting notification")
	}
	return row.toNotification(), nil
}

func (repo *examRepository) UpdateNotification(ctx context.Context, n exam.Notification) (exam.Notification, error) {
	q := `UPDATE exam_notification SET end_date = :end_date, late_fee = :late_fee, is_active = :is_active,
		updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toNotificationRow(n))
	if err != nil {
		return exam.Notification{}, errors.Wrap(err, "updating notification")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return exam.Notification{}, exam.ErrNotFound
	}
	return n, nil
}

func (repo *examRepository) QueryActiveNotifications(ctx context.Context) ([]exam.Notification, error) {
	var rows []notificationRow
	q := `SELECT ` + notificationColumns + ` FROM exam_notification WHERE is_active ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}
	ns := make([]exam.Notification, 0, len(rows))
	for _, row := range rows {
		ns = append(ns, row.toNotification())
	}
	return ns, nil
}
