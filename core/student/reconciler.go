package student

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core"
)

var (
	ErrRecordNotFound = core.NewNotFoundError("fee record not found")
	errInvalidAmount  = errors.New("amount must be positive")
)

// ApplyPayment credits amount to the ledger row recordID and decrements the matching aggregate by it.
// Over-payment is accepted on the row; the aggregate never goes below 0.
func (s *Student) ApplyPayment(recordID string, amount int64, mode, ref string) (*FeeRecord, error) {
	if amount <= 0 {
		return nil, core.NewValidationError(errInvalidAmount, core.FieldError{Field: "amount", Error: errInvalidAmount.Error()})
	}
	rec := s.record(recordID)
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	if mode == "" {
		mode = ModeManual
	}
	if ref == "" {
		ref = RefAdminUpdate
	}
	rec.pay(amount, mode, ref)
	s.adjustDue(rec.FeeType, -amount)
	return rec, nil
}

// SetYearFee sets the annual college fee of year: both semester rows are re-split (missing ones created pending)
// and their statuses re-derived from what was already paid.
// The aggregate moves by the difference with the previously recorded due of that year.
func (s *Student) SetYearFee(year int, annual int64) {
	var oldDue int64
	for _, rec := range s.Records(FeeCollege) {
		if rec.Year == year {
			oldDue += rec.AmountDue
		}
	}

	odd, even := Split(annual)
	semA, semB := Semesters(year)
	for _, row := range []struct {
		sem int
		due int64
	}{{semA, odd}, {semB, even}} {
		if rec := s.collegeRecord(row.sem); rec != nil {
			rec.AmountDue = row.due
			rec.refreshStatus()
			continue
		}
		s.FeeRecords = append(s.FeeRecords, newRecord(year, core.IntPtr(row.sem), FeeCollege, row.due))
	}

	s.adjustDue(FeeCollege, annual-oldDue)
}

func (s *Student) collegeRecord(sem int) *FeeRecord {
	for _, rec := range s.Records(FeeCollege) {
		if rec.semesterIs(sem) {
			return rec
		}
	}
	return nil
}

// ClearDues marks every unpaid row of feeType as fully paid and zeroes the aggregate.
// Each row logs the amount it was actually missing.
func (s *Student) ClearDues(feeType string) {
	for _, rec := range s.Records(feeType) {
		if rec.IsPaid() {
			continue
		}
		missing := rec.Outstanding()
		rec.AmountPaid = rec.AmountDue
		rec.refreshStatus()
		rec.log(missing, ModeAutoClear, RefAdminCleared)
	}
	s.adjustDue(feeType, -s.dueOf(feeType))
}

// ClearLatestTransport settles the first unpaid transport row, if any.
func (s *Student) ClearLatestTransport() *FeeRecord {
	for _, rec := range s.Records(FeeTransport) {
		if rec.IsPaid() {
			continue
		}
		missing := rec.Outstanding()
		rec.AmountPaid = rec.AmountDue
		rec.refreshStatus()
		rec.log(missing, ModeTransportDept, RefTransportPaid)
		return rec
	}
	return nil
}

func (s *Student) dueOf(feeType string) int64 {
	switch feeType {
	case FeeCollege:
		return s.CollegeFeeDue
	case FeeTransport:
		return s.TransportFeeDue
	}
	return 0
}

// HasTransaction reports whether any ledger row logs a transaction of mode carrying reference ref.
func (s *Student) HasTransaction(mode, ref string) bool {
	for _, rec := range s.FeeRecords {
		for _, t := range rec.Transactions {
			if t.Mode == mode && t.Reference == ref {
				return true
			}
		}
	}
	return false
}

// AllocatePayment spreads a gateway payment over the unpaid rows of feeType, oldest first.
// Any excess lands on the last row. With no unpaid row, a settled row is added for the current year.
// The aggregate is decremented by amount, floored at 0.
func (s *Student) AllocatePayment(feeType string, amount int64, mode, ref string) ([]*FeeRecord, error) {
	if amount <= 0 {
		return nil, core.NewValidationError(errInvalidAmount, core.FieldError{Field: "amount", Error: errInvalidAmount.Error()})
	}

	var unpaid []*FeeRecord
	if feeType != FeeOther {
		for _, rec := range s.Records(feeType) {
			if !rec.IsPaid() {
				unpaid = append(unpaid, rec)
			}
		}
	}

	if len(unpaid) == 0 {
		semA, _ := Semesters(s.CurrentYear)
		rec := newRecord(s.CurrentYear, core.IntPtr(semA), feeType, amount)
		rec.pay(amount, mode, ref)
		s.FeeRecords = append(s.FeeRecords, rec)
		s.adjustDue(feeType, -amount)
		return []*FeeRecord{&s.FeeRecords[len(s.FeeRecords)-1]}, nil
	}

	sort.SliceStable(unpaid, func(i, j int) bool {
		if unpaid[i].Year != unpaid[j].Year {
			return unpaid[i].Year < unpaid[j].Year
		}
		return semesterOf(unpaid[i]) < semesterOf(unpaid[j])
	})

	remaining := amount
	var touched []*FeeRecord
	for i, rec := range unpaid {
		share := rec.Outstanding()
		if share > remaining || i == len(unpaid)-1 {
			share = remaining
		}
		if share == 0 {
			break
		}
		rec.pay(share, mode, ref)
		touched = append(touched, rec)
		remaining -= share
	}
	s.adjustDue(feeType, -amount)
	return touched, nil
}

func semesterOf(rec *FeeRecord) int {
	if rec.Semester == nil {
		return 0
	}
	return *rec.Semester
}
