package exam

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/feedesk/core"
)

// Notification announces an exam window and its fee.
type Notification struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Year                int       `json:"year"`
	Semester            *int      `json:"semester"`
	ExamFeeAmount       int64     `json:"examFeeAmount"`
	StartDate           time.Time `json:"startDate"`
	EndDate             time.Time `json:"endDate"`
	LastDateWithoutFine time.Time `json:"lastDateWithoutFine"`
	LateFee             int64     `json:"lateFee"`
	IsActive            bool      `json:"isActive"`
	Description         string    `json:"description"`
	CreatedAt           time.Time `json:"createdAt"` // UTC
	UpdatedAt           time.Time `json:"updatedAt"` // UTC
}

// FeeOn is the exam fee due when paying on day.
func (n *Notification) FeeOn(day time.Time) int64 {
	if day.After(n.LastDateWithoutFine) {
		return n.ExamFeeAmount + n.LateFee
	}
	return n.ExamFeeAmount
}

type NewNotification struct {
	Title         string    `json:"title" validate:"required"`
	Year          int       `json:"year" validate:"required,min=1,max=4"`
	Semester      *int      `json:"semester" validate:"omitempty,min=1,max=8"`
	ExamFeeAmount int64     `json:"examFeeAmount" validate:"min=0"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	EndDate       time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Description   string    `json:"description"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Description = core.CleanString(nn.Description)
	return validate.Struct(nn)
}

// UpdateNotification extends an exam window (the previous end date stays the last date without fine)
// and/or sets the late fee or the active flag.
type UpdateNotification struct {
	EndDate  *time.Time `json:"endDate"`
	LateFee  *int64     `json:"lateFee" validate:"omitempty,min=0"`
	IsActive *bool      `json:"isActive"`
}

func (un *UpdateNotification) Validate(validate *validator.Validate) error {
	return validate.Struct(un)
}
