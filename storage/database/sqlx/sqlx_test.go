package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

var studentColumns = []string{
	"id", "user_id", "usn", "name", "email", "department", "current_year", "quota", "entry", "status",
	"transport_opted", "college_fee_due", "transport_fee_due", "last_sem_dues", "version", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%1ms%", containsPattern("1ms"))
	assert.Equal(t, `%50\%\_off\\%`, containsPattern(`50%_off\`))
}

func TestTrapNoRowsErr(t *testing.T) {
	notFound := student.ErrNotFound
	assert.NoError(t, trapNoRowsErr(nil, notFound, "x"))
	assert.Equal(t, notFound, trapNoRowsErr(sql.ErrNoRows, notFound, "x"))
	assert.Equal(t, notFound, trapNoRowsErr(errors.Wrap(sql.ErrNoRows, "wrapped"), notFound, "x"))
	assert.Equal(t, notFound, trapNoRowsErr(&pq.Error{Code: pqInvalidTextInput}, notFound, "x"))

	err := trapNoRowsErr(errors.New("boom"), notFound, "selecting")
	require.Error(t, err)
	assert.Equal(t, "selecting: boom", err.Error())
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("username taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO "user"`).WillReturnError(&pq.Error{Code: pqUniqueViolation})

		_, err := NewUserRepository(db).CreateUser(ctx, user.User{Username: "admin"})
		assert.Equal(t, user.ErrUsernameExists, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM "user" WHERE username = \$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := NewUserRepository(db).GetUserByUsername(ctx, "ghost")
		assert.Equal(t, user.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"id", "name", "username", "email", "is_active", "roles", "password_hash", "created_at", "updated_at", "last_login",
		}).AddRow("u1", "Admin", "admin", nil, true, "{admin,registrar}", []byte("hash"), now, now, nil)
		mock.ExpectQuery(`FROM "user" WHERE id = \$1`).WithArgs("u1").WillReturnRows(rows)

		usr, err := NewUserRepository(db).GetUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "admin", usr.Username)
		assert.Equal(t, "", usr.Email)
		assert.Equal(t, []string{user.RoleAdmin, user.RoleRegistrar}, usr.Roles)
		assert.True(t, usr.LastLogin.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("unset", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT value FROM system_config`).WithArgs(keyDefaultGovFee).WillReturnError(sql.ErrNoRows)

		fee, err := NewSettingsRepository(db).DefaultGovFee(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), fee)
	})

	t.Run("set", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT value FROM system_config`).
			WithArgs(keyDefaultGovFee).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("50000"))

		fee, err := NewSettingsRepository(db).DefaultGovFee(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(50000), fee)
	})

	t.Run("upsert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO system_config .* ON CONFLICT \(key\) DO UPDATE`).
			WithArgs(keyDefaultGovFee, "60000", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewSettingsRepository(db).SetDefaultGovFee(ctx, 60000))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentRepository_CreatePayment_duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO payment`).WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := NewPaymentRepository(db).CreatePayment(context.Background(), payment.Payment{GatewayPaymentID: "pay_1"})
	assert.Equal(t, payment.ErrAlreadyVerified, err)
}

func expectLockedStudent(mock sqlmock.Sqlmock, now time.Time) {
	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE s.usn = \$1 FOR UPDATE OF s`).
		WithArgs("1ms21cs001").
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(
			"s1", "u1", "1ms21cs001", "Asha", "asha@example.com", "CSE", 1, "government", "regular", "active",
			false, 5000, 0, 0, 3, now, now,
		))
	mock.ExpectQuery(`FROM fee_record WHERE student_id = \$1 ORDER BY position`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "position", "year", "semester", "fee_type", "amount_due", "amount_paid", "status",
		}).
			AddRow("r1", "s1", 0, 1, 1, "college", 2500, 0, "pending").
			AddRow("r2", "s1", 1, 1, 2, "college", 2500, 0, "pending"))
	mock.ExpectQuery(`FROM fee_transaction t`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "fee_record_id", "position", "amount", "date", "mode", "reference",
		}))
}

func TestStudentRepository_UpdateStudent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("commits the aggregates & the ledger", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectLockedStudent(mock, now)
		mock.ExpectExec(`UPDATE student SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO fee_record .* ON CONFLICT \(id\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO fee_transaction .* ON CONFLICT \(id\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO fee_record`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		st, err := NewStudentRepository(db).UpdateStudent(ctx, "1ms21cs001", func(st *student.Student) error {
			_, err := st.ApplyPayment("r1", 1000, "", "")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), st.Version)
		assert.Equal(t, int64(4000), st.CollegeFeeDue)
		require.Len(t, st.FeeRecords, 2)
		assert.Equal(t, student.RecordPartial, st.FeeRecords[0].Status)
		require.Len(t, st.FeeRecords[0].Transactions, 1)
		require.NotNil(t, st.FeeRecords[1].Semester)
		assert.Equal(t, 2, *st.FeeRecords[1].Semester)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectLockedStudent(mock, now)
		mock.ExpectRollback()

		_, err := NewStudentRepository(db).UpdateStudent(ctx, "1ms21cs001", func(st *student.Student) error {
			_, err := st.ApplyPayment("nope", 1000, "", "")
			return err
		})
		assert.Equal(t, student.ErrRecordNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown student", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF s`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := NewStudentRepository(db).UpdateStudent(ctx, "ghost", func(*student.Student) error { return nil })
		assert.Equal(t, student.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStudentRepository_Stats(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WithArgs(student.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(3, 2))
	mock.ExpectQuery(`GROUP BY department`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count"}).AddRow("CSE", 2).AddRow("ECE", 1))
	mock.ExpectQuery(`GROUP BY quota`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count"}).AddRow("government", 3))
	mock.ExpectQuery(`GROUP BY entry`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count"}))

	stats, err := NewStudentRepository(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 2, stats.ActiveStudents)
	assert.Equal(t, []student.GroupCount{{ID: "CSE", Count: 2}, {ID: "ECE", Count: 1}}, stats.ByDepartment)
	assert.Equal(t, []student.GroupCount{{ID: "government", Count: 3}}, stats.ByQuota)
	assert.Empty(t, stats.ByEntryType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
