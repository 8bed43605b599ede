package student

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/user"
)

const (
	QuotaGovernment = "government"
	QuotaManagement = "management"

	EntryRegular = "regular"
	EntryLateral = "lateral"

	StatusActive   = "active"
	StatusDetained = "detained"
	StatusDropout  = "dropout"

	FeeCollege   = "college"
	FeeTransport = "transport"
	FeeOther     = "other"

	RecordPending = "pending"
	RecordPartial = "partial"
	RecordPaid    = "paid"
)

// Transaction is one entry of a FeeRecord's audit trail. Never edited nor removed.
type Transaction struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Date      time.Time `json:"date"` // UTC
	Mode      string    `json:"mode"`
	Reference string    `json:"reference"`
}

// FeeRecord is one due item of a student's ledger.
type FeeRecord struct {
	ID           string        `json:"id"`
	Year         int           `json:"year"`
	Semester     *int          `json:"semester"`
	FeeType      string        `json:"feeType"`
	AmountDue    int64         `json:"amountDue"`
	AmountPaid   int64         `json:"amountPaid"`
	Status       string        `json:"status"`
	Transactions []Transaction `json:"transactions"`
}

type Student struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	USN            string `json:"usn"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Department     string `json:"department"`
	CurrentYear    int    `json:"currentYear"`
	Quota          string `json:"quota"`
	Entry          string `json:"entry"`
	Status         string `json:"status"`
	TransportOpted bool   `json:"transportOpted"`

	// aggregates: cached projection of the ledger, see LedgerDues
	CollegeFeeDue   int64 `json:"collegeFeeDue"`
	TransportFeeDue int64 `json:"transportFeeDue"`
	LastSemDues     int64 `json:"lastSemDues"`

	FeeRecords []FeeRecord `json:"feeRecords"`
	Version    int64       `json:"-"`
	CreatedAt  time.Time   `json:"createdAt"` // UTC
	UpdatedAt  time.Time   `json:"updatedAt"` // UTC
}

// Records returns the student's ledger rows of the given fee type, in insertion order.
func (s *Student) Records(feeType string) []*FeeRecord {
	var recs []*FeeRecord
	for i := range s.FeeRecords {
		if s.FeeRecords[i].FeeType == feeType {
			recs = append(recs, &s.FeeRecords[i])
		}
	}
	return recs
}

func (s *Student) record(id string) *FeeRecord {
	for i := range s.FeeRecords {
		if s.FeeRecords[i].ID == id {
			return &s.FeeRecords[i]
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s Student) Clone() Student {
	c := s
	c.FeeRecords = make([]FeeRecord, len(s.FeeRecords))
	for i, rec := range s.FeeRecords {
		if rec.Semester != nil {
			rec.Semester = core.IntPtr(*rec.Semester)
		}
		rec.Transactions = append([]Transaction(nil), rec.Transactions...)
		c.FeeRecords[i] = rec
	}
	return c
}

// NewStudent contains information needed to enroll a student: their account and their fee assignment.
type NewStudent struct {
	Username             string `json:"username" validate:"required,alphanum_"` // USN
	Password             string `json:"password" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"omitempty,email"`
	Department           string `json:"department" validate:"required"`
	CurrentYear          int    `json:"currentYear" validate:"required,min=1,max=4"`
	Quota                string `json:"quota" validate:"required,oneof=government management"`
	Entry                string `json:"entry" validate:"required,oneof=regular lateral"`
	TransportOpted       bool   `json:"transportOpted"`
	AssignedCollegeFee   int64  `json:"assignedCollegeFee" validate:"min=0"`
	AssignedTransportFee int64  `json:"assignedTransportFee" validate:"min=0"`
}

func (ns *NewStudent) Clean() {
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Department = core.CleanString(ns.Department)
	ns.Quota = core.CleanString(ns.Quota, true /* lower */)
	ns.Entry = core.CleanString(ns.Entry, true /* lower */)
}

var errLateralYear = errors.New("lateral entry students start in year 2")

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.Entry == EntryLateral && ns.CurrentYear < StartYear(EntryLateral) {
		return core.NewValidationError(errLateralYear, core.FieldError{Field: "currentYear", Error: errLateralYear.Error()})
	}
	return ns.newUser().Validate(validate)
}

func (ns *NewStudent) newUser() *user.NewUser {
	return &user.NewUser{
		Name:     ns.Name,
		Username: ns.Username,
		Email:    ns.Email,
		Password: ns.Password,
		Roles:    []string{user.RoleStudent},
	}
}

// UpdateFees is an admin update: a ledger payment (FeeRecordID & Amount) and/or direct overrides.
type UpdateFees struct {
	FeeRecordID string `json:"feeRecordId"`
	Amount      int64  `json:"amount" validate:"min=0"`
	Mode        string `json:"mode"`
	Reference   string `json:"reference"`

	CollegeFeeDue   *int64  `json:"collegeFeeDue" validate:"omitempty,min=0"`
	TransportFeeDue *int64  `json:"transportFeeDue" validate:"omitempty,min=0"`
	LastSemDues     *int64  `json:"lastSemDues" validate:"omitempty,min=0"`
	Status          *string `json:"status" validate:"omitempty,oneof=active detained dropout"`
	TransportOpted  *bool   `json:"transportOpted"`
}

func (uf *UpdateFees) Validate(validate *validator.Validate) error {
	uf.FeeRecordID = core.CleanString(uf.FeeRecordID)
	uf.Mode = core.CleanString(uf.Mode)
	uf.Reference = core.CleanString(uf.Reference)
	return validate.Struct(uf)
}

// FeeSchedule sets the annual college fee of a year: for every government student of that year,
// or for a single management student.
type FeeSchedule struct {
	Quota       string `json:"quota" validate:"required,oneof=government management"`
	CurrentYear int    `json:"currentYear" validate:"required,min=1,max=4"`
	Amount      int64  `json:"amount" validate:"required,min=0"`
	USN         string `json:"usn"` // management only
}

func (fs *FeeSchedule) Validate(validate *validator.Validate) error {
	fs.Quota = core.CleanString(fs.Quota, true /* lower */)
	fs.USN = core.CleanString(fs.USN, true /* lower */)
	return validate.Struct(fs)
}

// TransportUpdate is a transport department update.
type TransportUpdate struct {
	TransportOpted  *bool  `json:"transportOpted"`
	TransportFeeDue *int64 `json:"transportFeeDue" validate:"omitempty,min=0"`
}

func (tu *TransportUpdate) Validate(validate *validator.Validate) error {
	return validate.Struct(tu)
}

type (
	// EligibilityReport answers a student's exam eligibility query.
	EligibilityReport struct {
		IsEligible bool         `json:"isEligible"`
		Reasons    []string     `json:"reasons"`
		Student    DuesSnapshot `json:"student"`
	}

	DuesSnapshot struct {
		USN             string `json:"usn"`
		Name            string `json:"name"`
		CollegeFeeDue   int64  `json:"collegeFeeDue"`
		TransportFeeDue int64  `json:"transportFeeDue"`
		LastSemDues     int64  `json:"lastSemDues"`
	}
)

type (
	GroupCount struct {
		ID    string `json:"_id"`
		Count int    `json:"count"`
	}

	// Stats are the dashboard counters.
	Stats struct {
		TotalStudents  int          `json:"totalStudents"`
		ActiveStudents int          `json:"activeStudents"`
		ByDepartment   []GroupCount `json:"byDepartment"`
		ByQuota        []GroupCount `json:"byQuota"`
		ByEntryType    []GroupCount `json:"byEntryType"`
	}
)
