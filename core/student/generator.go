package student

import (
	"github.com/trezcool/feedesk/core"
)

// StartYear is the first academic year a student is billed for; lateral entries skip year 1.
func StartYear(entry string) int {
	if entry == EntryLateral {
		return 2
	}
	return 1
}

// AnnualCollegeFee resolves the yearly college fee of an enrollment.
// Government students get defaultGovFee; management students their assigned fee.
func AnnualCollegeFee(ns NewStudent, defaultGovFee int64) int64 {
	if ns.Quota == QuotaManagement {
		return ns.AssignedCollegeFee
	}
	return defaultGovFee
}

// GenerateLedger builds a new Student with its fee history up to and including the current year:
// years before the current one are back-filled as paid, the current year is pending.
func GenerateLedger(ns NewStudent, userID string, defaultGovFee int64) Student {
	now := nowFunc()
	st := Student{
		UserID:         userID,
		USN:            ns.Username,
		Name:           ns.Name,
		Email:          ns.Email,
		Department:     ns.Department,
		CurrentYear:    ns.CurrentYear,
		Quota:          ns.Quota,
		Entry:          ns.Entry,
		Status:         StatusActive,
		TransportOpted: ns.TransportOpted,
		FeeRecords:     []FeeRecord{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	annual := AnnualCollegeFee(ns, defaultGovFee)
	odd, even := Split(annual)

	// history is written even at a zero fee
	for y := StartYear(ns.Entry); y < ns.CurrentYear; y++ {
		semA, semB := Semesters(y)
		for _, row := range []struct {
			sem int
			due int64
		}{{semA, odd}, {semB, even}} {
			rec := newRecord(y, core.IntPtr(row.sem), FeeCollege, row.due)
			rec.pay(row.due, ModeMigration, RefHistorical)
			st.FeeRecords = append(st.FeeRecords, rec)
		}
	}

	if annual > 0 && ns.CurrentYear >= StartYear(ns.Entry) {
		semA, semB := Semesters(ns.CurrentYear)
		st.FeeRecords = append(st.FeeRecords,
			newRecord(ns.CurrentYear, core.IntPtr(semA), FeeCollege, odd),
			newRecord(ns.CurrentYear, core.IntPtr(semB), FeeCollege, even),
		)
		st.CollegeFeeDue = annual
	}

	if ns.TransportOpted && ns.AssignedTransportFee > 0 {
		semA, _ := Semesters(ns.CurrentYear)
		st.FeeRecords = append(st.FeeRecords,
			newRecord(ns.CurrentYear, core.IntPtr(semA), FeeTransport, ns.AssignedTransportFee))
		st.TransportFeeDue = ns.AssignedTransportFee
	}
	return st
}
