// Package inmemdb provides map-backed repository implementations used in
// tests and local development. Each table carries its own lock; IDs are
// random UUIDs, matching the Postgres schema.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/billing"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}
	applicationTable struct {
		mutex sync.RWMutex
		table map[string]*registration.Application
	}
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student // keyed by UserID
	}
	teacherTable struct {
		mutex sync.RWMutex
		table map[string]*teacher.Teacher // keyed by UserID
	}
	programTable struct {
		mutex sync.RWMutex
		table map[string]*program.Program
	}
	announcementTable struct {
		mutex sync.RWMutex
		table map[string]*announcement.Announcement
	}
	invoiceTable struct {
		mutex sync.RWMutex
		table map[string]*billing.Invoice
	}

	DB struct {
		user         *userTable
		application  *applicationTable
		student      *studentTable
		teacher      *teacherTable
		program      *programTable
		announcement *announcementTable
		invoice      *invoiceTable
	}
)

func NewDB() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		application:  &applicationTable{table: make(map[string]*registration.Application)},
		student:      &studentTable{table: make(map[string]*student.Student)},
		teacher:      &teacherTable{table: make(map[string]*teacher.Teacher)},
		program:      &programTable{table: make(map[string]*program.Program)},
		announcement: &announcementTable{table: make(map[string]*announcement.Announcement)},
		invoice:      &invoiceTable{table: make(map[string]*billing.Invoice)},
	}
}
