package student

import (
	"time"

	"github.com/google/uuid"
)

// Transaction modes & references written by the ledger itself.
const (
	ModeManual        = "Manual"
	ModeMigration     = "Migration"
	ModeAutoClear     = "Auto-Clear"
	ModeTransportDept = "Transport Dept"
	ModeGateway       = "Razorpay"

	RefAdminUpdate   = "Admin Update"
	RefHistorical    = "Historical Data - Pre-paid"
	RefAdminCleared  = "Admin Marked Paid"
	RefTransportPaid = "Marked as Paid by Transport Dept"
)

var nowFunc = func() time.Time { return time.Now().UTC() }

// Split divides an annual fee between the odd & even semesters of a year.
// The odd semester gets the ceiling half.
func Split(annual int64) (odd, even int64) {
	odd = (annual + 1) / 2
	return odd, annual - odd
}

// Semesters returns the odd & even semester numbers of a year.
func Semesters(year int) (odd, even int) {
	return 2*year - 1, 2 * year
}

// DeriveStatus: paid >= due -> paid, paid > 0 -> partial, else pending.
func DeriveStatus(due, paid int64) string {
	switch {
	case paid >= due:
		return RecordPaid
	case paid > 0:
		return RecordPartial
	default:
		return RecordPending
	}
}

func newRecord(year int, semester *int, feeType string, due int64) FeeRecord {
	return FeeRecord{
		ID:           uuid.NewString(),
		Year:         year,
		Semester:     semester,
		FeeType:      feeType,
		AmountDue:    due,
		Status:       DeriveStatus(due, 0),
		Transactions: []Transaction{},
	}
}

// Outstanding is what remains to be paid on the row, never negative.
func (r *FeeRecord) Outstanding() int64 {
	if r.AmountPaid >= r.AmountDue {
		return 0
	}
	return r.AmountDue - r.AmountPaid
}

func (r *FeeRecord) IsPaid() bool { return r.Status == RecordPaid }

func (r *FeeRecord) refreshStatus() {
	r.Status = DeriveStatus(r.AmountDue, r.AmountPaid)
}

// pay credits amount to the row and logs it.
func (r *FeeRecord) pay(amount int64, mode, ref string) {
	r.AmountPaid += amount
	r.refreshStatus()
	r.log(amount, mode, ref)
}

func (r *FeeRecord) log(amount int64, mode, ref string) {
	r.Transactions = append(r.Transactions, Transaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Date:      nowFunc(),
		Mode:      mode,
		Reference: ref,
	})
}

func (r *FeeRecord) semesterIs(sem int) bool {
	return r.Semester != nil && *r.Semester == sem
}

// adjustDue applies delta to the aggregate matching feeType, floored at 0.
// Other fee types have no aggregate.
func (s *Student) adjustDue(feeType string, delta int64) {
	var due *int64
	switch feeType {
	case FeeCollege:
		due = &s.CollegeFeeDue
	case FeeTransport:
		due = &s.TransportFeeDue
	default:
		return
	}
	*due += delta
	if *due < 0 {
		*due = 0
	}
}

// LedgerDue computes the aggregate of feeType from the ledger: sum of amountDue - amountPaid, floored at 0.
func (s *Student) LedgerDue(feeType string) int64 {
	var sum int64
	for _, rec := range s.Records(feeType) {
		sum += rec.AmountDue - rec.AmountPaid
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// Drift compares a cached aggregate to its ledger projection.
type Drift struct {
	FeeType   string `json:"feeType"`
	Aggregate int64  `json:"aggregate"`
	Ledger    int64  `json:"ledger"`
}

func (d Drift) InSync() bool { return d.Aggregate == d.Ledger }

// Drifts returns the college & transport aggregates against the ledger.
func (s *Student) Drifts() []Drift {
	return []Drift{
		{FeeType: FeeCollege, Aggregate: s.CollegeFeeDue, Ledger: s.LedgerDue(FeeCollege)},
		{FeeType: FeeTransport, Aggregate: s.TransportFeeDue, Ledger: s.LedgerDue(FeeTransport)},
	}
}

// Reconcile resets the aggregates to the ledger projection.
func (s *Student) Reconcile() {
	s.CollegeFeeDue = s.LedgerDue(FeeCollege)
	s.TransportFeeDue = s.LedgerDue(FeeTransport)
}
