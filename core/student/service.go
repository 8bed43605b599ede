package student

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/user"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("student not found")
	errUSNRequired = errors.New("USN and Year required")
)

type (
	Repository interface {
		// CreateStudent stores the student & their user account together.
		// It returns user.ErrUsernameExists when the USN is taken.
		CreateStudent(ctx context.Context, usr user.User, st Student) (Student, error)
		GetStudentByUSN(ctx context.Context, usn string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		// SearchStudent returns the first student whose USN contains query, case-insensitively.
		SearchStudent(ctx context.Context, query string) (Student, error)
		// QueryUSNs lists the USNs of a quota's students in a given year.
		QueryUSNs(ctx context.Context, quota string, year int) ([]string, error)
		// UpdateStudent is the per-student unit of work: it loads the student, applies fn and persists
		// the aggregates & the ledger atomically. Concurrent calls for the same student are serialized.
		// Nothing is written when fn fails.
		UpdateStudent(ctx context.Context, usn string, fn func(*Student) error) (Student, error)
		Stats(ctx context.Context) (Stats, error)
	}

	// SettingsRepository holds the institution-wide settings.
	SettingsRepository interface {
		// DefaultGovFee returns 0 when unset.
		DefaultGovFee(ctx context.Context) (int64, error)
		SetDefaultGovFee(ctx context.Context, fee int64) error
	}

	Service struct {
		repo     Repository
		settings SettingsRepository
	}
)

func NewService(repo Repository, settings SettingsRepository) *Service {
	return &Service{repo: repo, settings: settings}
}

// Create enrolls a student: their account and their generated ledger.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	var govFee int64
	if ns.Quota != QuotaManagement {
		fee, err := svc.settings.DefaultGovFee(ctx)
		if err != nil {
			return Student{}, errors.Wrap(err, "reading default gov fee")
		}
		govFee = fee
	}

	usr, err := user.New(*ns.newUser())
	if err != nil {
		return Student{}, err
	}
	st := GenerateLedger(ns, "", govFee)
	return svc.repo.CreateStudent(ctx, usr, st)
}

func (svc *Service) GetByUSN(ctx context.Context, usn string) (Student, error) {
	return svc.repo.GetStudentByUSN(ctx, core.CleanString(usn, true /* lower */))
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *Service) Search(ctx context.Context, query string) (Student, error) {
	query = core.CleanString(query)
	if query == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.SearchStudent(ctx, query)
}

// Eligibility reports whether the student owning userID may sit exams.
func (svc *Service) Eligibility(ctx context.Context, userID string) (EligibilityReport, error) {
	st, err := svc.repo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return EligibilityReport{}, err
	}
	return st.Eligibility(), nil
}

// UpdateFees applies an admin update. The ledger payment goes first, then the direct overrides.
// Setting a college/transport due to 0 clears the matching ledger rows.
func (svc *Service) UpdateFees(ctx context.Context, usn string, uf UpdateFees) (Student, error) {
	return svc.repo.UpdateStudent(ctx, core.CleanString(usn, true /* lower */), func(st *Student) error {
		if uf.FeeRecordID != "" && uf.Amount > 0 {
			if _, err := st.ApplyPayment(uf.FeeRecordID, uf.Amount, uf.Mode, uf.Reference); err != nil {
				return err
			}
		}
		if uf.CollegeFeeDue != nil {
			if *uf.CollegeFeeDue == 0 {
				st.ClearDues(FeeCollege)
			}
			st.CollegeFeeDue = *uf.CollegeFeeDue
		}
		if uf.TransportFeeDue != nil {
			if *uf.TransportFeeDue == 0 {
				st.ClearDues(FeeTransport)
			}
			st.TransportFeeDue = *uf.TransportFeeDue
		}
		if uf.LastSemDues != nil {
			st.LastSemDues = *uf.LastSemDues
		}
		if uf.Status != nil {
			st.Status = *uf.Status
		}
		if uf.TransportOpted != nil {
			st.TransportOpted = *uf.TransportOpted
		}
		return nil
	})
}

// ScheduleResult reports a fee schedule change.
type ScheduleResult struct {
	Message string   `json:"message"`
	Updated int      `json:"updated"`
	Student *Student `json:"student,omitempty"`
}

// SetFeeSchedule sets the annual college fee of a year.
// Government: every government student of that year, and the default gov fee becomes fs.Amount.
// Management: the single student fs.USN.
func (svc *Service) SetFeeSchedule(ctx context.Context, fs FeeSchedule) (ScheduleResult, error) {
	if fs.Quota == QuotaManagement {
		if fs.USN == "" {
			return ScheduleResult{}, core.NewValidationError(errUSNRequired, core.FieldError{Field: "usn", Error: errUSNRequired.Error()})
		}
		st, err := svc.repo.UpdateStudent(ctx, fs.USN, func(st *Student) error {
			if st.Quota != QuotaManagement {
				return ErrNotFound
			}
			st.SetYearFee(fs.CurrentYear, fs.Amount)
			return nil
		})
		if err != nil {
			return ScheduleResult{}, err
		}
		return ScheduleResult{Message: "Fee Allocated", Updated: 1, Student: &st}, nil
	}

	usns, err := svc.repo.QueryUSNs(ctx, QuotaGovernment, fs.CurrentYear)
	if err != nil {
		return ScheduleResult{}, errors.Wrap(err, "querying government students")
	}
	for _, usn := range usns {
		_, err := svc.repo.UpdateStudent(ctx, usn, func(st *Student) error {
			st.SetYearFee(fs.CurrentYear, fs.Amount)
			return nil
		})
		if err != nil {
			return ScheduleResult{}, errors.Wrapf(err, "setting year fee of %s", usn)
		}
	}
	if err := svc.settings.SetDefaultGovFee(ctx, fs.Amount); err != nil {
		return ScheduleResult{}, errors.Wrap(err, "saving default gov fee")
	}
	return ScheduleResult{
		Message: fmt.Sprintf("Updated fees for %d students in Year %d", len(usns), fs.CurrentYear),
		Updated: len(usns),
	}, nil
}

// UpdateTransport applies a transport department update.
// Setting the transport due to 0 settles the first unpaid transport row.
func (svc *Service) UpdateTransport(ctx context.Context, usn string, tu TransportUpdate) (Student, error) {
	return svc.repo.UpdateStudent(ctx, core.CleanString(usn, true /* lower */), func(st *Student) error {
		if tu.TransportOpted != nil {
			st.TransportOpted = *tu.TransportOpted
		}
		if tu.TransportFeeDue != nil {
			st.TransportFeeDue = *tu.TransportFeeDue
			if *tu.TransportFeeDue == 0 {
				st.ClearLatestTransport()
			}
		}
		return nil
	})
}

// ApplyGatewayPayment allocates a settled gateway payment on the student's ledger.
func (svc *Service) ApplyGatewayPayment(ctx context.Context, usn, feeType string, amount int64, ref string) (Student, error) {
	return svc.repo.UpdateStudent(ctx, usn, func(st *Student) error {
		if ref != "" && st.HasTransaction(ModeGateway, ref) {
			return nil // already credited
		}
		_, err := st.AllocatePayment(feeType, amount, ModeGateway, ref)
		return err
	})
}

// Reconciliation reports the student's aggregates against their ledger.
func (svc *Service) Reconciliation(ctx context.Context, usn string) ([]Drift, error) {
	st, err := svc.GetByUSN(ctx, usn)
	if err != nil {
		return nil, err
	}
	return st.Drifts(), nil
}

// Reconcile resets the student's aggregates to their ledger projection.
func (svc *Service) Reconcile(ctx context.Context, usn string) (Student, error) {
	return svc.repo.UpdateStudent(ctx, core.CleanString(usn, true /* lower */), func(st *Student) error {
		st.Reconcile()
		return nil
	})
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.Stats(ctx)
}

func (svc *Service) DefaultGovFee(ctx context.Context) (int64, error) {
	return svc.settings.DefaultGovFee(ctx)
}

func (svc *Service) SetDefaultGovFee(ctx context.Context, fee int64) error {
	return svc.settings.SetDefaultGovFee(ctx, fee)
}
