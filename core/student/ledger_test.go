package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrollment(quota, entry string, year int) NewStudent {
	return NewStudent{
		Username:    "1ms21cs001",
		Name:        "Asha",
		Department:  "CSE",
		CurrentYear: year,
		Quota:       quota,
		Entry:       entry,
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		annual, odd, even int64
	}{
		{0, 0, 0},
		{1, 1, 0},
		{9, 5, 4},
		{10000, 5000, 5000},
		{10001, 5001, 5000},
	}
	for _, tt := range tests {
		odd, even := Split(tt.annual)
		assert.Equal(t, tt.odd, odd, "odd of %d", tt.annual)
		assert.Equal(t, tt.even, even, "even of %d", tt.annual)
		assert.Equal(t, tt.annual, odd+even)
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		due, paid int64
		want      string
	}{
		{"nothing paid", 5000, 0, RecordPending},
		{"some paid", 5000, 3000, RecordPartial},
		{"all paid", 5000, 5000, RecordPaid},
		{"overpaid", 5000, 6000, RecordPaid},
		{"nothing due", 0, 0, RecordPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.due, tt.paid))
		})
	}
}

func TestGenerateLedger(t *testing.T) {
	t.Run("government regular year 2", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "u1", 10000)

		require.Len(t, st.FeeRecords, 4)
		for i, rec := range st.FeeRecords[:2] {
			assert.Equal(t, 1, rec.Year)
			assert.Equal(t, i+1, *rec.Semester)
			assert.Equal(t, int64(5000), rec.AmountDue)
			assert.Equal(t, int64(5000), rec.AmountPaid)
			assert.Equal(t, RecordPaid, rec.Status)
			require.Len(t, rec.Transactions, 1)
			assert.Equal(t, ModeMigration, rec.Transactions[0].Mode)
			assert.Equal(t, RefHistorical, rec.Transactions[0].Reference)
			assert.Equal(t, int64(5000), rec.Transactions[0].Amount)
		}
		for i, rec := range st.FeeRecords[2:] {
			assert.Equal(t, 2, rec.Year)
			assert.Equal(t, i+3, *rec.Semester)
			assert.Equal(t, int64(5000), rec.AmountDue)
			assert.Zero(t, rec.AmountPaid)
			assert.Equal(t, RecordPending, rec.Status)
			assert.Empty(t, rec.Transactions)
		}
		assert.Equal(t, int64(10000), st.CollegeFeeDue)
		assert.Zero(t, st.TransportFeeDue)
		assert.Equal(t, StatusActive, st.Status)
		assert.Equal(t, "u1", st.UserID)
	})

	t.Run("management uses the assigned fee", func(t *testing.T) {
		ns := newEnrollment(QuotaManagement, EntryRegular, 1)
		ns.AssignedCollegeFee = 150001
		st := GenerateLedger(ns, "", 10000)

		require.Len(t, st.FeeRecords, 2)
		assert.Equal(t, int64(75001), st.FeeRecords[0].AmountDue)
		assert.Equal(t, int64(75000), st.FeeRecords[1].AmountDue)
		assert.Equal(t, int64(150001), st.CollegeFeeDue)
	})

	t.Run("lateral students have no year 1 rows", func(t *testing.T) {
		for year := 1; year <= 4; year++ {
			st := GenerateLedger(newEnrollment(QuotaGovernment, EntryLateral, year), "", 8000)
			for _, rec := range st.FeeRecords {
				assert.NotEqual(t, 1, rec.Year, "year %d", year)
			}
		}
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryLateral, 3), "", 8000)
		assert.Len(t, st.FeeRecords, 4) // year 2 history + year 3
	})

	t.Run("history is always settled", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 4), "", 9999)
		for _, rec := range st.FeeRecords {
			if rec.Year < 4 {
				assert.Equal(t, rec.AmountDue, rec.AmountPaid)
				assert.Equal(t, RecordPaid, rec.Status)
			}
		}
		assert.Len(t, st.FeeRecords, 8)
	})

	t.Run("zero fee keeps a settled history", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaManagement, EntryRegular, 3), "", 0)
		require.Len(t, st.FeeRecords, 4) // years 1 & 2, nothing for year 3
		for _, rec := range st.FeeRecords {
			assert.Less(t, rec.Year, 3)
			assert.Zero(t, rec.AmountDue)
			assert.Equal(t, RecordPaid, rec.Status)
			require.Len(t, rec.Transactions, 1)
			assert.Equal(t, ModeMigration, rec.Transactions[0].Mode)
		}
		assert.Zero(t, st.CollegeFeeDue)
	})

	t.Run("zero fee in year 1 creates no rows", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 1), "", 0)
		assert.Empty(t, st.FeeRecords)
		assert.Zero(t, st.CollegeFeeDue)
	})

	t.Run("transport", func(t *testing.T) {
		ns := newEnrollment(QuotaGovernment, EntryRegular, 2)
		ns.TransportOpted = true
		ns.AssignedTransportFee = 12000
		st := GenerateLedger(ns, "", 0)

		require.Len(t, st.FeeRecords, 1)
		rec := st.FeeRecords[0]
		assert.Equal(t, FeeTransport, rec.FeeType)
		assert.Equal(t, 3, *rec.Semester)
		assert.Equal(t, int64(12000), rec.AmountDue)
		assert.Equal(t, RecordPending, rec.Status)
		assert.Equal(t, int64(12000), st.TransportFeeDue)

		ns.TransportOpted = false
		st = GenerateLedger(ns, "", 0)
		assert.Empty(t, st.FeeRecords)
		assert.Zero(t, st.TransportFeeDue)
	})
}

func TestStudent_ApplyPayment(t *testing.T) {
	st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
	current := st.FeeRecords[2].ID

	t.Run("partial payment", func(t *testing.T) {
		rec, err := st.ApplyPayment(current, 3000, "", "")
		require.NoError(t, err)
		assert.Equal(t, RecordPartial, rec.Status)
		assert.Equal(t, int64(3000), rec.AmountPaid)
		assert.Equal(t, int64(7000), st.CollegeFeeDue)
		require.Len(t, rec.Transactions, 1)
		assert.Equal(t, ModeManual, rec.Transactions[0].Mode)
		assert.Equal(t, RefAdminUpdate, rec.Transactions[0].Reference)
	})

	t.Run("overpayment is kept on the row, aggregate floors at 0", func(t *testing.T) {
		rec, err := st.ApplyPayment(current, 9000, "Cash", "receipt 12")
		require.NoError(t, err)
		assert.Equal(t, RecordPaid, rec.Status)
		assert.Equal(t, int64(12000), rec.AmountPaid)
		assert.Zero(t, st.CollegeFeeDue)
		assert.Equal(t, "Cash", rec.Transactions[1].Mode)
		assert.Equal(t, "receipt 12", rec.Transactions[1].Reference)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := st.ApplyPayment("nope", 10, "", "")
		assert.Equal(t, ErrRecordNotFound, err)
	})

	t.Run("non positive amount", func(t *testing.T) {
		_, err := st.ApplyPayment(current, 0, "", "")
		assert.Error(t, err)
	})
}

func TestStudent_ApplyPayment_decrementsByMinOfAggregate(t *testing.T) {
	tests := []struct {
		name            string
		aggregate, paid int64
		want            int64
	}{
		{"below aggregate", 10000, 2500, 7500},
		{"equals aggregate", 10000, 10000, 0},
		{"above aggregate", 4000, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := GenerateLedger(newEnrollment(QuotaManagement, EntryRegular, 1), "", 0)
			st.SetYearFee(1, 10000)
			st.CollegeFeeDue = tt.aggregate

			_, err := st.ApplyPayment(st.FeeRecords[0].ID, tt.paid, "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.CollegeFeeDue)
		})
	}
}

func TestStudent_SetYearFee(t *testing.T) {
	t.Run("re-split keeps payments", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
		_, err := st.ApplyPayment(st.FeeRecords[2].ID, 5000, "", "")
		require.NoError(t, err)
		require.Equal(t, int64(5000), st.CollegeFeeDue)

		st.SetYearFee(2, 12001)

		odd, even := st.FeeRecords[2], st.FeeRecords[3]
		assert.Equal(t, int64(6001), odd.AmountDue)
		assert.Equal(t, int64(6000), even.AmountDue)
		assert.Equal(t, odd.AmountDue+even.AmountDue, int64(12001))
		assert.Equal(t, RecordPartial, odd.Status)
		assert.Equal(t, RecordPending, even.Status)
		assert.Equal(t, int64(7001), st.CollegeFeeDue) // 5000 + (12001 - 10000)
		assert.Len(t, st.FeeRecords, 4)
	})

	t.Run("missing rows are created", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 3), "", 0)
		st.SetYearFee(3, 7000)

		require.Len(t, st.FeeRecords, 6) // zero-due history for years 1 & 2 stays untouched
		for _, rec := range st.FeeRecords[:4] {
			assert.Zero(t, rec.AmountDue)
			assert.Equal(t, RecordPaid, rec.Status)
		}
		assert.Equal(t, 5, *st.FeeRecords[4].Semester)
		assert.Equal(t, 6, *st.FeeRecords[5].Semester)
		assert.Equal(t, int64(3500), st.FeeRecords[4].AmountDue)
		assert.Equal(t, RecordPending, st.FeeRecords[5].Status)
		assert.Equal(t, int64(7000), st.CollegeFeeDue)
		assert.Equal(t, int64(7000), st.LedgerDue(FeeCollege))
	})

	t.Run("lowering the fee floors the aggregate", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 1), "", 10000)
		st.CollegeFeeDue = 1000
		st.SetYearFee(1, 2000)
		assert.Zero(t, st.CollegeFeeDue)
	})
}

func TestStudent_ClearDues(t *testing.T) {
	st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
	_, err := st.ApplyPayment(st.FeeRecords[2].ID, 1500, "", "")
	require.NoError(t, err)

	st.ClearDues(FeeCollege)

	assert.Zero(t, st.CollegeFeeDue)
	for _, rec := range st.Records(FeeCollege) {
		assert.Equal(t, RecordPaid, rec.Status)
		assert.Equal(t, rec.AmountDue, rec.AmountPaid)
	}
	// history untouched
	assert.Len(t, st.FeeRecords[0].Transactions, 1)

	odd := st.FeeRecords[2]
	require.Len(t, odd.Transactions, 2)
	assert.Equal(t, ModeAutoClear, odd.Transactions[1].Mode)
	assert.Equal(t, RefAdminCleared, odd.Transactions[1].Reference)
	assert.Equal(t, int64(3500), odd.Transactions[1].Amount)

	even := st.FeeRecords[3]
	require.Len(t, even.Transactions, 1)
	assert.Equal(t, int64(5000), even.Transactions[0].Amount)
}

func TestStudent_ClearLatestTransport(t *testing.T) {
	ns := newEnrollment(QuotaGovernment, EntryRegular, 1)
	ns.TransportOpted = true
	ns.AssignedTransportFee = 6000
	st := GenerateLedger(ns, "", 0)

	rec := st.ClearLatestTransport()
	require.NotNil(t, rec)
	assert.Equal(t, RecordPaid, rec.Status)
	require.Len(t, rec.Transactions, 1)
	assert.Equal(t, ModeTransportDept, rec.Transactions[0].Mode)
	assert.Equal(t, RefTransportPaid, rec.Transactions[0].Reference)
	assert.Equal(t, int64(6000), rec.Transactions[0].Amount)

	assert.Nil(t, st.ClearLatestTransport())
}

func TestStudent_AllocatePayment(t *testing.T) {
	t.Run("oldest first", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
		// leave part of year 1 unpaid
		st.SetYearFee(1, 10000)
		st.FeeRecords[0].AmountPaid = 4000
		st.FeeRecords[0].refreshStatus()
		st.CollegeFeeDue = st.LedgerDue(FeeCollege)
		require.Equal(t, int64(11000), st.CollegeFeeDue)

		touched, err := st.AllocatePayment(FeeCollege, 3000, ModeGateway, "pay_1")
		require.NoError(t, err)

		require.Len(t, touched, 2)
		assert.Equal(t, 1, touched[0].Year)
		assert.Equal(t, RecordPaid, touched[0].Status)
		assert.Equal(t, 3, *touched[1].Semester)
		assert.Equal(t, int64(2000), touched[1].AmountPaid)
		assert.Equal(t, RecordPartial, touched[1].Status)
		assert.Equal(t, "pay_1", touched[1].Transactions[0].Reference)
		assert.Equal(t, int64(8000), st.CollegeFeeDue)
		assert.Equal(t, st.LedgerDue(FeeCollege), st.CollegeFeeDue)
	})

	t.Run("excess lands on the last row", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 1), "", 10000)
		touched, err := st.AllocatePayment(FeeCollege, 12000, ModeGateway, "pay_2")
		require.NoError(t, err)
		require.Len(t, touched, 2)
		assert.Equal(t, int64(7000), touched[1].AmountPaid)
		assert.Zero(t, st.CollegeFeeDue)
	})

	t.Run("no unpaid row", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 3), "", 0)
		touched, err := st.AllocatePayment(FeeTransport, 2500, ModeGateway, "pay_3")
		require.NoError(t, err)
		require.Len(t, touched, 1)
		assert.Equal(t, FeeTransport, touched[0].FeeType)
		assert.Equal(t, 3, touched[0].Year)
		assert.Equal(t, 5, *touched[0].Semester)
		assert.Equal(t, int64(2500), touched[0].AmountDue)
		assert.Equal(t, RecordPaid, touched[0].Status)
		assert.Len(t, st.FeeRecords, 1)
	})

	t.Run("exam fee", func(t *testing.T) {
		st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 1), "", 10000)
		touched, err := st.AllocatePayment(FeeOther, 800, ModeGateway, "pay_4")
		require.NoError(t, err)
		require.Len(t, touched, 1)
		assert.Equal(t, FeeOther, touched[0].FeeType)
		assert.Equal(t, int64(10000), st.CollegeFeeDue)
	})
}

func TestStudent_Drifts(t *testing.T) {
	st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
	for _, d := range st.Drifts() {
		assert.True(t, d.InSync(), d.FeeType)
	}

	st.CollegeFeeDue = 42
	drifts := st.Drifts()
	assert.False(t, drifts[0].InSync())
	assert.Equal(t, int64(10000), drifts[0].Ledger)

	st.Reconcile()
	assert.Equal(t, int64(10000), st.CollegeFeeDue)
}

func TestStudent_Eligibility(t *testing.T) {
	tests := []struct {
		name     string
		student  Student
		eligible bool
		reasons  []string
	}{
		{
			name:     "all clear",
			student:  Student{Status: StatusActive},
			eligible: true,
			reasons:  []string{},
		},
		{
			name:     "college fee",
			student:  Student{Status: StatusActive, CollegeFeeDue: 5000},
			reasons:  []string{"Pending College Fee: 5000"},
		},
		{
			name: "everything, in order",
			student: Student{
				Status: StatusDetained, CollegeFeeDue: 1, TransportFeeDue: 2, LastSemDues: 3,
			},
			reasons: []string{
				"Student status is detained",
				"Pending College Fee: 1",
				"Pending Transport Fee: 2",
				"Pending Last Semester Dues: 3",
			},
		},
		{
			name:    "dropout with last semester dues",
			student: Student{Status: StatusDropout, LastSemDues: 700},
			reasons: []string{"Student status is dropout", "Pending Last Semester Dues: 700"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.student.Eligibility()
			assert.Equal(t, tt.eligible, report.IsEligible)
			assert.Equal(t, tt.reasons, report.Reasons)
		})
	}
}

func TestStudent_Clone(t *testing.T) {
	st := GenerateLedger(newEnrollment(QuotaGovernment, EntryRegular, 2), "", 10000)
	c := st.Clone()
	_, err := c.ApplyPayment(c.FeeRecords[2].ID, 100, "", "")
	require.NoError(t, err)
	*c.FeeRecords[0].Semester = 9

	assert.Zero(t, st.FeeRecords[2].AmountPaid)
	assert.Empty(t, st.FeeRecords[2].Transactions)
	assert.Equal(t, 1, *st.FeeRecords[0].Semester)
	assert.Equal(t, int64(10000), st.CollegeFeeDue)
}
