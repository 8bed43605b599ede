package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// read returns a copy of st carrying its account's current name & email.
func (db *DB) read(st *student.Student) student.Student {
	c := st.Clone()
	if usr, ok := db.users[c.UserID]; ok {
		c.Name, c.Email = usr.Name, usr.Email
	}
	return c
}

func (repo *studentRepository) CreateStudent(_ context.Context, usr user.User, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[st.USN]; ok {
		return student.Student{}, user.ErrUsernameExists
	}
	usr, err := repo.db.createUser(usr)
	if err != nil {
		return student.Student{}, err
	}
	st.ID = uuid.NewString()
	st.UserID = usr.ID
	st.Version = 1
	stored := st.Clone()
	repo.db.students[st.USN] = &stored
	return repo.db.read(&stored), nil
}

func (repo *studentRepository) GetStudentByUSN(_ context.Context, usn string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.students[usn]; ok {
		return repo.db.read(st), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUserID(_ context.Context, userID string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if st.UserID == userID {
			return repo.db.read(st), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) sortedUSNs() []string {
	usns := make([]string, 0, len(repo.db.students))
	for usn := range repo.db.students {
		usns = append(usns, usn)
	}
	sort.Strings(usns)
	return usns
}

func (repo *studentRepository) SearchStudent(_ context.Context, query string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	query = strings.ToLower(query)
	for _, usn := range repo.sortedUSNs() {
		if strings.Contains(strings.ToLower(usn), query) {
			return repo.db.read(repo.db.students[usn]), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryUSNs(_ context.Context, quota string, year int) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	usns := make([]string, 0)
	for _, usn := range repo.sortedUSNs() {
		st := repo.db.students[usn]
		if st.Quota == quota && st.CurrentYear == year {
			usns = append(usns, usn)
		}
	}
	return usns, nil
}

func (repo *studentRepository) UpdateStudent(
	_ context.Context,
	usn string,
	fn func(*student.Student) error,
) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.students[usn]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	st := repo.db.read(stored)
	if err := fn(&st); err != nil {
		return student.Student{}, err
	}
	st.Version++
	st.UpdatedAt = time.Now().UTC()
	updated := st.Clone()
	repo.db.students[usn] = &updated
	return st, nil
}

func (repo *studentRepository) Stats(_ context.Context) (student.Stats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stats := student.Stats{}
	byDept, byQuota, byEntry := map[string]int{}, map[string]int{}, map[string]int{}
	for _, st := range repo.db.students {
		stats.TotalStudents++
		if st.Status == student.StatusActive {
			stats.ActiveStudents++
		}
		byDept[st.Department]++
		byQuota[st.Quota]++
		byEntry[st.Entry]++
	}
	stats.ByDepartment = groupCounts(byDept)
	stats.ByQuota = groupCounts(byQuota)
	stats.ByEntryType = groupCounts(byEntry)
	return stats, nil
}

func groupCounts(m map[string]int) []student.GroupCount {
	counts := make([]student.GroupCount, 0, len(m))
	for id, n := range m {
		counts = append(counts, student.GroupCount{ID: id, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ID < counts[j].ID })
	return counts
}
