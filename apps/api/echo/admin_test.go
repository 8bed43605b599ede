package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/feedesk/apps/api/echo"
	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
	"github.com/trezcool/feedesk/testutil"
)

func TestAdminAPI_createStudent(t *testing.T) {
	app, stack := setup(t)
	require.NoError(t, stack.StudentSvc.SetDefaultGovFee(context.Background(), 40000))
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))
	registrarTkn := getToken(t, stack, staff(t, stack, "registrar", user.RoleRegistrar))
	examTkn := getToken(t, stack, staff(t, stack, "examhead", user.RoleExamHead))

	newStudent := student.NewStudent{
		Username:    " 1MS21CS010 ",
		Password:    "Str0ng&Passw0rd",
		Name:        "Kiran Shetty",
		Email:       "kiran@example.com",
		Department:  "CSE",
		CurrentYear: 1,
		Quota:       "government",
		Entry:       "regular",
	}

	t.Run("created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/students", adminTkn, marchallObj(t, newStudent))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var st student.Student
		unmarshallObj(t, rec, &st)
		assert.Equal(t, "1ms21cs010", st.USN)
		assert.Equal(t, student.StatusActive, st.Status)
		assert.Equal(t, int64(40000), st.CollegeFeeDue)
		require.Len(t, st.FeeRecords, 2)
		for _, rec := range st.FeeRecords {
			assert.Equal(t, int64(20000), rec.AmountDue)
			assert.Equal(t, student.RecordPending, rec.Status)
		}

		// the student can log in with their USN
		req, rec = newRequest(http.MethodPost, "/v1/auth/login",
			marchallObj(t, LoginRequest{Username: "1ms21cs010", Password: "Str0ng&Passw0rd"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	invalid := newStudent
	invalid.Username = "1ms21cs011"
	invalid.Quota = "vip"

	registered := newStudent
	registered.Username = "1ms21cs012"

	lateralYear1 := newStudent
	lateralYear1.Username = "1ms21cs013"
	lateralYear1.Entry = "lateral"

	runHTTPTests(t, app, []httpTest{
		{
			name: "duplicate USN", method: http.MethodPost, path: "/v1/admin/students",
			body: marchallObj(t, newStudent), token: adminTkn,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a user with this username already exists"}),
		},
		{
			name: "invalid quota", method: http.MethodPost, path: "/v1/admin/students",
			body: marchallObj(t, invalid), token: adminTkn,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "lateral entry in year 1", method: http.MethodPost, path: "/v1/admin/students",
			body: marchallObj(t, lateralYear1), token: adminTkn,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"currentYear":"lateral entry students start in year 2"}`),
		},
		{
			name: "registrar enrolls", method: http.MethodPost, path: "/v1/registrar/students",
			body: marchallObj(t, registered), token: registrarTkn,
			wantCode: http.StatusCreated,
		},
		{
			name: "exam head cannot enroll", method: http.MethodPost, path: "/v1/admin/students",
			body: marchallObj(t, registered), token: examTkn,
			wantCode: http.StatusForbidden,
		},
	})
}

func TestAdminAPI_updateFees(t *testing.T) {
	app, stack := setup(t)
	ctx := context.Background()
	require.NoError(t, stack.StudentSvc.SetDefaultGovFee(ctx, 40000))
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))
	st := testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs020"})

	put := func(t *testing.T, data student.UpdateFees) (student.Student, int) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/students/1ms21cs020/fees", adminTkn, marchallObj(t, data))
		app.ServeHTTP(rec, req)
		var got student.Student
		if rec.Code == http.StatusOK {
			unmarshallObj(t, rec, &got)
		}
		return got, rec.Code
	}

	t.Run("ledger payment", func(t *testing.T) {
		got, code := put(t, student.UpdateFees{FeeRecordID: st.FeeRecords[0].ID, Amount: 5000})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, int64(35000), got.CollegeFeeDue)
		assert.Equal(t, student.RecordPartial, got.FeeRecords[0].Status)
		require.Len(t, got.FeeRecords[0].Transactions, 1)
		txn := got.FeeRecords[0].Transactions[0]
		assert.Equal(t, int64(5000), txn.Amount)
		assert.Equal(t, student.ModeManual, txn.Mode)
		assert.Equal(t, student.RefAdminUpdate, txn.Reference)
	})

	t.Run("unknown fee record", func(t *testing.T) {
		_, code := put(t, student.UpdateFees{FeeRecordID: "nope", Amount: 5000})
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("unknown student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/students/ghost/fees", adminTkn, []byte(`{"lastSemDues":10}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})}, rec)
	})

	t.Run("clearing the college fee settles the ledger", func(t *testing.T) {
		got, code := put(t, student.UpdateFees{CollegeFeeDue: core.Int64Ptr(0), Status: core.StringPtr(student.StatusDetained)})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, int64(0), got.CollegeFeeDue)
		assert.Equal(t, student.StatusDetained, got.Status)
		for _, rec := range got.FeeRecords {
			assert.Equal(t, student.RecordPaid, rec.Status)
			last := rec.Transactions[len(rec.Transactions)-1]
			assert.Equal(t, student.ModeAutoClear, last.Mode)
		}
		assert.Equal(t, int64(15000), got.FeeRecords[0].Transactions[1].Amount)
		assert.Equal(t, int64(20000), got.FeeRecords[1].Transactions[0].Amount)
	})

	t.Run("negative override", func(t *testing.T) {
		_, code := put(t, student.UpdateFees{LastSemDues: core.Int64Ptr(-1)})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestAdminAPI_search(t *testing.T) {
	app, stack := setup(t)
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))
	transportTkn := getToken(t, stack, staff(t, stack, "transport", user.RoleTransportDept))
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs030"})

	for _, path := range []string{"/v1/admin/students/search", "/v1/transport/students/search"} {
		tkn := adminTkn
		if path == "/v1/transport/students/search" {
			tkn = transportTkn
		}

		req, rec := newAuthRequest(http.MethodGet, path+"?query=CS030", tkn)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var st student.Student
		unmarshallObj(t, rec, &st)
		assert.Equal(t, "1ms21cs030", st.USN)

		req, rec = newAuthRequest(http.MethodGet, path+"?query=ec999", tkn)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestAdminAPI_reconciliation(t *testing.T) {
	app, stack := setup(t)
	ctx := context.Background()
	require.NoError(t, stack.StudentSvc.SetDefaultGovFee(ctx, 40000))
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs040"})

	// a direct override makes the aggregate drift from the ledger
	_, err := stack.StudentSvc.UpdateFees(ctx, "1ms21cs040", student.UpdateFees{CollegeFeeDue: core.Int64Ptr(1000)})
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "drift",
			path:     "/v1/admin/students/1ms21cs040/reconciliation",
			token:    adminTkn,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ReconciliationResponse{
				USN:    "1ms21cs040",
				InSync: false,
				Drifts: []student.Drift{
					{FeeType: student.FeeCollege, Aggregate: 1000, Ledger: 40000},
					{FeeType: student.FeeTransport},
				},
			}),
		},
		{
			name:     "unknown student",
			path:     "/v1/admin/students/ghost/reconciliation",
			token:    adminTkn,
			wantCode: http.StatusNotFound,
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/students/1ms21cs040/reconcile", adminTkn)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var st student.Student
	unmarshallObj(t, rec, &st)
	assert.Equal(t, int64(40000), st.CollegeFeeDue)

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/students/1ms21cs040/reconciliation", adminTkn)
	app.ServeHTTP(rec, req)
	var resp ReconciliationResponse
	unmarshallObj(t, rec, &resp)
	assert.True(t, resp.InSync)
}

func TestAdminAPI_feeSchedule(t *testing.T) {
	app, stack := setup(t)
	ctx := context.Background()
	require.NoError(t, stack.StudentSvc.SetDefaultGovFee(ctx, 40000))
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))

	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs050"})
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs051"})
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms20cs052", CurrentYear: 2})
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{
		Username: "1ms21cs053", Quota: student.QuotaManagement, AssignedCollegeFee: 150000,
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "government year", method: http.MethodPost, path: "/v1/admin/config/gov-fee",
			body:     marchallObj(t, student.FeeSchedule{Quota: "government", CurrentYear: 1, Amount: 45001}),
			token:    adminTkn,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student.ScheduleResult{Message: "Updated fees for 2 students in Year 1", Updated: 2}),
		},
		{
			name: "default gov fee follows", path: "/v1/admin/config", token: adminTkn,
			wantCode: http.StatusOK, wantData: marchallObj(t, ConfigResponse{DefaultGovFee: 45001}),
		},
		{
			name: "management needs a USN", method: http.MethodPost, path: "/v1/admin/config/gov-fee",
			body:     marchallObj(t, student.FeeSchedule{Quota: "management", CurrentYear: 1, Amount: 160000}),
			token:    adminTkn,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"usn":"USN and Year required"}`),
		},
		{
			name: "management USN must be a management student", method: http.MethodPost, path: "/v1/admin/config/gov-fee",
			body:     marchallObj(t, student.FeeSchedule{Quota: "management", CurrentYear: 1, Amount: 160000, USN: "1ms21cs050"}),
			token:    adminTkn,
			wantCode: http.StatusNotFound,
		},
	})

	st, err := stack.StudentSvc.GetByUSN(ctx, "1ms21cs050")
	require.NoError(t, err)
	assert.Equal(t, int64(45001), st.CollegeFeeDue)
	assert.Equal(t, int64(22501), st.FeeRecords[0].AmountDue)
	assert.Equal(t, int64(22500), st.FeeRecords[1].AmountDue)

	st, err = stack.StudentSvc.GetByUSN(ctx, "1ms20cs052")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), st.CollegeFeeDue, "other years are left alone")

	t.Run("management student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/config/gov-fee", adminTkn,
			marchallObj(t, student.FeeSchedule{Quota: "management", CurrentYear: 1, Amount: 160000, USN: "1MS21CS053"}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res student.ScheduleResult
		unmarshallObj(t, rec, &res)
		assert.Equal(t, "Fee Allocated", res.Message)
		require.NotNil(t, res.Student)
		assert.Equal(t, int64(160000), res.Student.CollegeFeeDue)
	})
}

func TestAdminAPI_notifications(t *testing.T) {
	app, stack := setup(t)
	examTkn := getToken(t, stack, staff(t, stack, "examhead", user.RoleExamHead))
	adminTkn := getToken(t, stack, staff(t, stack, "admin", user.RoleAdmin))
	st := testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs060"})
	studentTkn := studentToken(t, stack, st)

	start := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	nn := exam.NewNotification{
		Title:         "Semester 1 Exams",
		Year:          1,
		Semester:      core.IntPtr(1),
		ExamFeeAmount: 1500,
		StartDate:     start,
		EndDate:       end,
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/notifications", studentTkn, marchallObj(t, nn))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/notifications", examTkn, marchallObj(t, nn))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var n exam.Notification
	unmarshallObj(t, rec, &n)
	assert.True(t, n.IsActive)
	assert.True(t, n.LastDateWithoutFine.Equal(end))

	extended := end.AddDate(0, 0, 7)
	req, rec = newAuthRequest(http.MethodPut, "/v1/admin/notifications/"+n.ID, adminTkn,
		marchallObj(t, exam.UpdateNotification{EndDate: &extended, LateFee: core.Int64Ptr(200)}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshallObj(t, rec, &n)
	assert.True(t, n.EndDate.Equal(extended))
	assert.True(t, n.LastDateWithoutFine.Equal(end))
	assert.Equal(t, int64(1700), n.FeeOn(extended))

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/notifications", studentTkn)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var ns []exam.Notification
	unmarshallObj(t, rec, &ns)
	require.Len(t, ns, 1)
	assert.Equal(t, n.ID, ns[0].ID)

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid window", method: http.MethodPost, path: "/v1/admin/notifications", token: examTkn,
			body:     marchallObj(t, exam.NewNotification{Title: "x", Year: 1, StartDate: end, EndDate: start}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown notification", method: http.MethodPut, path: "/v1/admin/notifications/nope", token: adminTkn,
			body:     []byte(`{"isActive":false}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "notification not found"}),
		},
	})
}

func TestAdminAPI_stats(t *testing.T) {
	app, stack := setup(t)
	tkn := getToken(t, stack, staff(t, stack, "principal", user.RolePrincipal))
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs070"})
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21ec071", Department: "ECE", Entry: student.EntryLateral, CurrentYear: 2})
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs072", Quota: student.QuotaManagement})
	_, err := stack.StudentSvc.UpdateFees(context.Background(), "1ms21cs072", student.UpdateFees{Status: core.StringPtr(student.StatusDropout)})
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{{
		name:     "counters",
		path:     "/v1/admin/stats",
		token:    tkn,
		wantCode: http.StatusOK,
		wantData: marchallObj(t, student.Stats{
			TotalStudents:  3,
			ActiveStudents: 2,
			ByDepartment:   []student.GroupCount{{ID: "CSE", Count: 2}, {ID: "ECE", Count: 1}},
			ByQuota:        []student.GroupCount{{ID: "government", Count: 2}, {ID: "management", Count: 1}},
			ByEntryType:    []student.GroupCount{{ID: "lateral", Count: 1}, {ID: "regular", Count: 2}},
		}),
	}})
}

func TestRegistrarAPI_resetPassword(t *testing.T) {
	app, stack := setup(t)
	tkn := getToken(t, stack, staff(t, stack, "registrar", user.RoleRegistrar))
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{Username: "1ms21cs080"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "reset", method: http.MethodPost, path: "/v1/registrar/reset-password", token: tkn,
			body:     marchallObj(t, user.ResetUserPassword{Username: "1MS21CS080", NewPassword: "An0ther&Passw0rd"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "Password reset for 1ms21cs080"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/registrar/reset-password", token: tkn,
			body:     marchallObj(t, user.ResetUserPassword{Username: "ghost", NewPassword: "An0ther&Passw0rd"}),
			wantCode: http.StatusNotFound,
		},
		{
			name: "new password works", method: http.MethodPost, path: "/v1/auth/login",
			body:     marchallObj(t, LoginRequest{Username: "1ms21cs080", Password: "An0ther&Passw0rd"}),
			wantCode: http.StatusOK,
		},
		{
			name: "old password does not", method: http.MethodPost, path: "/v1/auth/login",
			body:     marchallObj(t, LoginRequest{Username: "1ms21cs080", Password: "Str0ng&Passw0rd"}),
			wantCode: http.StatusBadRequest,
		},
	})
}

func TestTransportAPI_update(t *testing.T) {
	app, stack := setup(t)
	tkn := getToken(t, stack, staff(t, stack, "transport", user.RoleTransportDept))
	testutil.Enroll(t, stack.StudentSvc, student.NewStudent{
		Username: "1ms21cs090", TransportOpted: true, AssignedTransportFee: 12000,
	})

	req, rec := newAuthRequest(http.MethodPut, "/v1/transport/students/1ms21cs090", tkn, []byte(`{"transportFeeDue":0}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var st student.Student
	unmarshallObj(t, rec, &st)
	assert.Equal(t, int64(0), st.TransportFeeDue)
	assert.True(t, st.TransportOpted)
	recs := st.Records(student.FeeTransport)
	require.Len(t, recs, 1)
	assert.Equal(t, student.RecordPaid, recs[0].Status)
	require.Len(t, recs[0].Transactions, 1)
	assert.Equal(t, int64(12000), recs[0].Transactions[0].Amount)
	assert.Equal(t, student.ModeTransportDept, recs[0].Transactions[0].Mode)
	assert.Equal(t, student.RefTransportPaid, recs[0].Transactions[0].Reference)

	req, rec = newAuthRequest(http.MethodPut, "/v1/transport/students/1ms21cs090", tkn, []byte(`{"transportOpted":false}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshallObj(t, rec, &st)
	assert.False(t, st.TransportOpted)
}
