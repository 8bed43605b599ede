package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

const maxUpdateAttempts = 5

var errStaleStudent = core.NewConflictError("student was modified concurrently, retry")

type (
	studentDoc struct {
		ID              string         `bson:"_id"`
		UserID          string         `bson:"user_id"`
		USN             string         `bson:"usn"`
		Name            string         `bson:"name"`
		Email           string         `bson:"email,omitempty"`
		Department      string         `bson:"department"`
		CurrentYear     int            `bson:"current_year"`
		Quota           string         `bson:"quota"`
		Entry           string         `bson:"entry"`
		Status          string         `bson:"status"`
		TransportOpted  bool           `bson:"transport_opted"`
		CollegeFeeDue   int64          `bson:"college_fee_due"`
		TransportFeeDue int64          `bson:"transport_fee_due"`
		LastSemDues     int64          `bson:"last_sem_dues"`
		FeeRecords      []feeRecordDoc `bson:"fee_records"`
		Version         int64          `bson:"version"`
		CreatedAt       time.Time      `bson:"created_at"`
		UpdatedAt       time.Time      `bson:"updated_at"`
	}

	feeRecordDoc struct {
		ID           string           `bson:"id"`
		Year         int              `bson:"year"`
		Semester     *int             `bson:"semester,omitempty"`
		FeeType      string           `bson:"fee_type"`
		AmountDue    int64            `bson:"amount_due"`
		AmountPaid   int64            `bson:"amount_paid"`
		Status       string           `bson:"status"`
		Transactions []transactionDoc `bson:"transactions"`
	}

	transactionDoc struct {
		ID        string    `bson:"id"`
		Amount    int64     `bson:"amount"`
		Date      time.Time `bson:"date"`
		Mode      string    `bson:"mode"`
		Reference string    `bson:"reference"`
	}
)

func toStudentDoc(st student.Student) studentDoc {
	doc := studentDoc{
		ID:              st.ID,
		UserID:          st.UserID,
		USN:             st.USN,
		Name:            st.Name,
		Email:           st.Email,
		Department:      st.Department,
		CurrentYear:     st.CurrentYear,
		Quota:           st.Quota,
		Entry:           st.Entry,
		Status:          st.Status,
		TransportOpted:  st.TransportOpted,
		CollegeFeeDue:   st.CollegeFeeDue,
		TransportFeeDue: st.TransportFeeDue,
		LastSemDues:     st.LastSemDues,
		FeeRecords:      make([]feeRecordDoc, 0, len(st.FeeRecords)),
		Version:         st.Version,
		CreatedAt:       st.CreatedAt.UTC(),
		UpdatedAt:       st.UpdatedAt.UTC(),
	}
	for _, rec := range st.FeeRecords {
		rd := feeRecordDoc{
			ID:           rec.ID,
			Year:         rec.Year,
			Semester:     rec.Semester,
			FeeType:      rec.FeeType,
			AmountDue:    rec.AmountDue,
			AmountPaid:   rec.AmountPaid,
			Status:       rec.Status,
			Transactions: make([]transactionDoc, 0, len(rec.Transactions)),
		}
		for _, t := range rec.Transactions {
			rd.Transactions = append(rd.Transactions, transactionDoc(t))
		}
		doc.FeeRecords = append(doc.FeeRecords, rd)
	}
	return doc
}

func (d studentDoc) toStudent() student.Student {
	st := student.Student{
		ID:              d.ID,
		UserID:          d.UserID,
		USN:             d.USN,
		Name:            d.Name,
		Email:           d.Email,
		Department:      d.Department,
		CurrentYear:     d.CurrentYear,
		Quota:           d.Quota,
		Entry:           d.Entry,
		Status:          d.Status,
		TransportOpted:  d.TransportOpted,
		CollegeFeeDue:   d.CollegeFeeDue,
		TransportFeeDue: d.TransportFeeDue,
		LastSemDues:     d.LastSemDues,
		FeeRecords:      make([]student.FeeRecord, 0, len(d.FeeRecords)),
		Version:         d.Version,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	for _, rd := range d.FeeRecords {
		rec := student.FeeRecord{
			ID:           rd.ID,
			Year:         rd.Year,
			Semester:     rd.Semester,
			FeeType:      rd.FeeType,
			AmountDue:    rd.AmountDue,
			AmountPaid:   rd.AmountPaid,
			Status:       rd.Status,
			Transactions: make([]student.Transaction, 0, len(rd.Transactions)),
		}
		for _, t := range rd.Transactions {
			t.Date = t.Date.UTC()
			rec.Transactions = append(rec.Transactions, student.Transaction(t))
		}
		st.FeeRecords = append(st.FeeRecords, rec)
	}
	return st
}

type studentRepository struct {
	users    *mongo.Collection
	students *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{
		users:    db.collection(colUsers),
		students: db.collection(colStudents),
	}
}

// CreateStudent inserts the account then the student; the account is removed if the student cannot be inserted.
func (repo *studentRepository) CreateStudent(ctx context.Context, usr user.User, st student.Student) (student.Student, error) {
	usr, err := insertUser(ctx, repo.users, usr)
	if err != nil {
		return student.Student{}, err
	}

	st.ID = uuid.NewString()
	st.UserID = usr.ID
	st.Name = usr.Name
	st.Email = usr.Email
	st.Version = 1
	if _, err = repo.students.InsertOne(ctx, toStudentDoc(st)); err != nil {
		_, _ = repo.users.DeleteOne(ctx, bson.M{"_id": usr.ID})
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, user.ErrUsernameExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo *studentRepository) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (student.Student, error) {
	var doc studentDoc
	if err := repo.students.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return doc.toStudent(), nil
}

func (repo *studentRepository) GetStudentByUSN(ctx context.Context, usn string) (student.Student, error) {
	return repo.findOne(ctx, bson.M{"usn": usn})
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string) (student.Student, error) {
	return repo.findOne(ctx, bson.M{"user_id": userID})
}

func (repo *studentRepository) SearchStudent(ctx context.Context, query string) (student.Student, error) {
	filter := bson.M{"usn": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	return repo.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "usn", Value: 1}}))
}

func (repo *studentRepository) QueryUSNs(ctx context.Context, quota string, year int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "usn", Value: 1}}).
		SetProjection(bson.M{"usn": 1})
	cursor, err := repo.students.Find(ctx, bson.M{"quota": quota, "current_year": year}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding USNs")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []struct {
		USN string `bson:"usn"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding USNs")
	}
	usns := make([]string, 0, len(docs))
	for _, d := range docs {
		usns = append(usns, d.USN)
	}
	return usns, nil
}

// UpdateStudent replaces the student only if nobody else did since it was read, retrying on collisions.
func (repo *studentRepository) UpdateStudent(
	ctx context.Context,
	usn string,
	fn func(*student.Student) error,
) (student.Student, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		st, err := repo.GetStudentByUSN(ctx, usn)
		if err != nil {
			return student.Student{}, err
		}
		if err = fn(&st); err != nil {
			return student.Student{}, err
		}

		read := st.Version
		st.Version++
		st.UpdatedAt = time.Now().UTC()
		res, err := repo.students.ReplaceOne(ctx, bson.M{"_id": st.ID, "version": read}, toStudentDoc(st))
		if err != nil {
			return student.Student{}, errors.Wrap(err, "replacing student")
		}
		if res.MatchedCount == 1 {
			return st, nil
		}
	}
	return student.Student{}, errStaleStudent
}

func (repo *studentRepository) Stats(ctx context.Context) (student.Stats, error) {
	stats := student.Stats{}
	total, err := repo.students.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, errors.Wrap(err, "counting students")
	}
	active, err := repo.students.CountDocuments(ctx, bson.M{"status": student.StatusActive})
	if err != nil {
		return stats, errors.Wrap(err, "counting active students")
	}
	stats.TotalStudents, stats.ActiveStudents = int(total), int(active)

	for _, g := range []struct {
		field string
		dest  *[]student.GroupCount
	}{
		{"department", &stats.ByDepartment},
		{"quota", &stats.ByQuota},
		{"entry", &stats.ByEntryType},
	} {
		if *g.dest, err = repo.groupCount(ctx, g.field); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (repo *studentRepository) groupCount(ctx context.Context, field string) ([]student.GroupCount, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"_id": 1}},
	}
	cursor, err := repo.students.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrapf(err, "grouping students by %s", field)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []struct {
		ID    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decoding %s counts", field)
	}
	counts := make([]student.GroupCount, 0, len(docs))
	for _, d := range docs {
		counts = append(counts, student.GroupCount{ID: d.ID, Count: d.Count})
	}
	return counts, nil
}
