package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

const studentSelect = `SELECT s.id, s.user_id, s.usn, u.name, COALESCE(u.email, '') AS email, s.department,
	s.current_year, s.quota, s.entry, s.status, s.transport_opted, s.college_fee_due, s.transport_fee_due,
	s.last_sem_dues, s.version, s.created_at, s.updated_at
	FROM student s JOIN "user" u ON u.id = s.user_id`

type (
	studentRow struct {
		ID              string    `db:"id"`
		UserID          string    `db:"user_id"`
		USN             string    `db:"usn"`
		Name            string    `db:"name"`
		Email           string    `db:"email"`
		Department      string    `db:"department"`
		CurrentYear     int       `db:"current_year"`
		Quota           string    `db:"quota"`
		Entry           string    `db:"entry"`
		Status          string    `db:"status"`
		TransportOpted  bool      `db:"transport_opted"`
		CollegeFeeDue   int64     `db:"college_fee_due"`
		TransportFeeDue int64     `db:"transport_fee_due"`
		LastSemDues     int64     `db:"last_sem_dues"`
		Version         int64     `db:"version"`
		CreatedAt       time.Time `db:"created_at"`
		UpdatedAt       time.Time `db:"updated_at"`
	}

	feeRecordRow struct {
		ID         string   `db:"id"`
		StudentID  string   `db:"student_id"`
		Position   int      `db:"position"`
		Year       int      `db:"year"`
		Semester   null.Int `db:"semester"`
		FeeType    string   `db:"fee_type"`
		AmountDue  int64    `db:"amount_due"`
		AmountPaid int64    `db:"amount_paid"`
		Status     string   `db:"status"`
	}

	transactionRow struct {
		ID          string    `db:"id"`
		FeeRecordID string    `db:"fee_record_id"`
		Position    int       `db:"position"`
		Amount      int64     `db:"amount"`
		Date        time.Time `db:"date"`
		Mode        string    `db:"mode"`
		Reference   string    `db:"reference"`
	}
)

func toStudentRow(st student.Student) studentRow {
	return studentRow{
		ID:              st.ID,
		UserID:          st.UserID,
		USN:             st.USN,
		Department:      st.Department,
		CurrentYear:     st.CurrentYear,
		Quota:           st.Quota,
		Entry:           st.Entry,
		Status:          st.Status,
		TransportOpted:  st.TransportOpted,
		CollegeFeeDue:   st.CollegeFeeDue,
		TransportFeeDue: st.TransportFeeDue,
		LastSemDues:     st.LastSemDues,
		Version:         st.Version,
		CreatedAt:       st.CreatedAt.UTC(),
		UpdatedAt:       st.UpdatedAt.UTC(),
	}
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:              r.ID,
		UserID:          r.UserID,
		USN:             r.USN,
		Name:            r.Name,
		Email:           r.Email,
		Department:      r.Department,
		CurrentYear:     r.CurrentYear,
		Quota:           r.Quota,
		Entry:           r.Entry,
		Status:          r.Status,
		TransportOpted:  r.TransportOpted,
		CollegeFeeDue:   r.CollegeFeeDue,
		TransportFeeDue: r.TransportFeeDue,
		LastSemDues:     r.LastSemDues,
		FeeRecords:      []student.FeeRecord{},
		Version:         r.Version,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, usr user.User, st student.Student) (student.Student, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		if usr, err = insertUser(ctx, tx, usr); err != nil {
			return err
		}

		st.ID = uuid.NewString()
		st.UserID = usr.ID
		st.Name = usr.Name
		st.Email = usr.Email
		st.Version = 1
		q := `INSERT INTO student (id, user_id, usn, department, current_year, quota, entry, status, transport_opted,
			college_fee_due, transport_fee_due, last_sem_dues, version, created_at, updated_at)
			VALUES (:id, :user_id, :usn, :department, :current_year, :quota, :entry, :status, :transport_opted,
			:college_fee_due, :transport_fee_due, :last_sem_dues, :version, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, q, toStudentRow(st)); err != nil {
			if isUniqueViolation(err) {
				return user.ErrUsernameExists
			}
			return errors.Wrap(err, "inserting student")
		}
		return saveLedger(ctx, tx, st)
	})
	if err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (repo *studentRepository) getOne(ctx context.Context, q string, args ...interface{}) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "selecting student")
	}
	st := row.toStudent()
	if err := loadLedger(ctx, repo.db, &st); err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (repo *studentRepository) GetStudentByUSN(ctx context.Context, usn string) (student.Student, error) {
	return repo.getOne(ctx, studentSelect+` WHERE s.usn = $1`, usn)
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string) (student.Student, error) {
	return repo.getOne(ctx, studentSelect+` WHERE s.user_id = $1`, userID)
}

func (repo *studentRepository) SearchStudent(ctx context.Context, query string) (student.Student, error) {
	return repo.getOne(ctx, studentSelect+` WHERE s.usn ILIKE $1 ORDER BY s.usn LIMIT 1`, containsPattern(query))
}

func (repo *studentRepository) QueryUSNs(ctx context.Context, quota string, year int) ([]string, error) {
	usns := make([]string, 0)
	q := `SELECT usn FROM student WHERE quota = $1 AND current_year = $2 ORDER BY usn`
	if err := repo.db.SelectContext(ctx, &usns, q, quota, year); err != nil {
		return nil, errors.Wrap(err, "selecting USNs")
	}
	return usns, nil
}

func (repo *studentRepository) UpdateStudent(
	ctx context.Context,
	usn string,
	fn func(*student.Student) error,
) (student.Student, error) {
	var st student.Student
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row studentRow
		if err := tx.GetContext(ctx, &row, studentSelect+` WHERE s.usn = $1 FOR UPDATE OF s`, usn); err != nil {
			return trapNoRowsErr(err, student.ErrNotFound, "locking student")
		}
		st = row.toStudent()
		if err := loadLedger(ctx, tx, &st); err != nil {
			return err
		}

		if err := fn(&st); err != nil {
			return err
		}

		st.Version++
		st.UpdatedAt = time.Now().UTC()
		q := `UPDATE student SET current_year = :current_year, status = :status, transport_opted = :transport_opted,
			college_fee_due = :college_fee_due, transport_fee_due = :transport_fee_due, last_sem_dues = :last_sem_dues,
			version = :version, updated_at = :updated_at
			WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, q, toStudentRow(st)); err != nil {
			return errors.Wrap(err, "updating student")
		}
		return saveLedger(ctx, tx, st)
	})
	if err != nil {
		return student.Student{}, err
	}
	return st, nil
}

// saveLedger upserts the ledger rows and appends their new transactions; logged transactions are never rewritten.
func saveLedger(ctx context.Context, tx *sqlx.Tx, st student.Student) error {
	recQ := `INSERT INTO fee_record (id, student_id, position, year, semester, fee_type, amount_due, amount_paid, status)
		VALUES (:id, :student_id, :position, :year, :semester, :fee_type, :amount_due, :amount_paid, :status)
		ON CONFLICT (id) DO UPDATE SET amount_due = EXCLUDED.amount_due, amount_paid = EXCLUDED.amount_paid,
		status = EXCLUDED.status`
	txnQ := `INSERT INTO fee_transaction (id, fee_record_id, position, amount, date, mode, reference)
		VALUES (:id, :fee_record_id, :position, :amount, :date, :mode, :reference)
		ON CONFLICT (id) DO NOTHING`

	for i, rec := range st.FeeRecords {
		row := feeRecordRow{
			ID:         rec.ID,
			StudentID:  st.ID,
			Position:   i,
			Year:       rec.Year,
			FeeType:    rec.FeeType,
			AmountDue:  rec.AmountDue,
			AmountPaid: rec.AmountPaid,
			Status:     rec.Status,
		}
		if rec.Semester != nil {
			row.Semester = null.IntFrom(*rec.Semester)
		}
		if _, err := tx.NamedExecContext(ctx, recQ, row); err != nil {
			return errors.Wrap(err, "saving fee record")
		}

		for j, t := range rec.Transactions {
			txnRow := transactionRow{
				ID:          t.ID,
				FeeRecordID: rec.ID,
				Position:    j,
				Amount:      t.Amount,
				Date:        t.Date.UTC(),
				Mode:        t.Mode,
				Reference:   t.Reference,
			}
			if _, err := tx.NamedExecContext(ctx, txnQ, txnRow); err != nil {
				return errors.Wrap(err, "saving fee transaction")
			}
		}
	}
	return nil
}

func loadLedger(ctx context.Context, q sqlx.QueryerContext, st *student.Student) error {
	var recs []feeRecordRow
	err := sqlx.SelectContext(ctx, q, &recs, `SELECT id, student_id, position, year, semester, fee_type, amount_due,
		amount_paid, status FROM fee_record WHERE student_id = $1 ORDER BY position`, st.ID)
	if err != nil {
		return errors.Wrap(err, "selecting fee records")
	}
	if len(recs) == 0 {
		return nil
	}

	var txns []transactionRow
	err = sqlx.SelectContext(ctx, q, &txns, `SELECT t.id, t.fee_record_id, t.position, t.amount, t.date, t.mode,
		t.reference FROM fee_transaction t JOIN fee_record r ON r.id = t.fee_record_id
		WHERE r.student_id = $1 ORDER BY t.fee_record_id, t.position`, st.ID)
	if err != nil {
		return errors.Wrap(err, "selecting fee transactions")
	}
	byRecord := make(map[string][]student.Transaction, len(recs))
	for _, t := range txns {
		byRecord[t.FeeRecordID] = append(byRecord[t.FeeRecordID], student.Transaction{
			ID:        t.ID,
			Amount:    t.Amount,
			Date:      t.Date.UTC(),
			Mode:      t.Mode,
			Reference: t.Reference,
		})
	}

	st.FeeRecords = make([]student.FeeRecord, 0, len(recs))
	for _, r := range recs {
		rec := student.FeeRecord{
			ID:           r.ID,
			Year:         r.Year,
			FeeType:      r.FeeType,
			AmountDue:    r.AmountDue,
			AmountPaid:   r.AmountPaid,
			Status:       r.Status,
			Transactions: byRecord[r.ID],
		}
		if r.Semester.Valid {
			sem := r.Semester.Int
			rec.Semester = &sem
		}
		if rec.Transactions == nil {
			rec.Transactions = []student.Transaction{}
		}
		st.FeeRecords = append(st.FeeRecords, rec)
	}
	return nil
}

func (repo *studentRepository) Stats(ctx context.Context) (student.Stats, error) {
	stats := student.Stats{}
	q := `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = $1) AS active FROM student`
	row := struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}{}
	if err := repo.db.GetContext(ctx, &row, q, student.StatusActive); err != nil {
		return stats, errors.Wrap(err, "counting students")
	}
	stats.TotalStudents, stats.ActiveStudents = row.Total, row.Active

	for _, g := range []struct {
		column string
		dest   *[]student.GroupCount
	}{
		{"department", &stats.ByDepartment},
		{"quota", &stats.ByQuota},
		{"entry", &stats.ByEntryType},
	} {
		counts := make([]student.GroupCount, 0)
		q := `SELECT ` + g.column + ` AS id, COUNT(*) AS count FROM student GROUP BY ` + g.column + ` ORDER BY ` + g.column
		if err := repo.db.SelectContext(ctx, &counts, q); err != nil {
			return stats, errors.Wrapf(err, "counting students by %s", g.column)
		}
		*g.dest = counts
	}
	return stats, nil
}
