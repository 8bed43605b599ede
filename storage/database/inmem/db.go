// Package inmemdb implements the repositories in memory. Used by tests & local runs.
package inmemdb

import (
	"sync"

	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

// DB guards every table with a single lock, so student enrollment (user + student) stays atomic.
type DB struct {
	mutex         sync.RWMutex
	users         map[string]*user.User
	students      map[string]*student.Student // by USN
	payments      []payment.Payment
	notifications map[string]*exam.Notification
	settings      map[string]int64
}

func Open() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		students:      make(map[string]*student.Student),
		notifications: make(map[string]*exam.Notification),
		settings:      make(map[string]int64),
	}
}
