package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
)

type teacherRepository struct {
	db *teacherTable
}

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tch.ID = uuid.NewString()
	repo.db.table[tch.UserID] = &tch
	return tch, nil
}

func (repo *teacherRepository) GetTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tch, ok := repo.db.table[userID]; ok {
		return *tch, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]teacher.Teacher, 0, len(repo.db.table))
	for _, tch := range repo.db.table {
		teachers = append(teachers, *tch)
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].CreatedAt.Equal(teachers[j].CreatedAt) {
			return teachers[i].ID < teachers[j].ID
		}
		return teachers[i].CreatedAt.Before(teachers[j].CreatedAt)
	})
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[tch.UserID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	repo.db.table[tch.UserID] = &tch
	return tch, nil
}

func (repo *teacherRepository) DeleteTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, userID)
	return nil
}
