package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
)

const teacherColumns = `id, user_id, specialization, qualifications, experience_years, employment_status, created_at, updated_at`

type dbTeacher struct {
	ID               string      `db:"id"`
	UserID           string      `db:"user_id"`
	Specialization   null.String `db:"specialization"`
	Qualifications   null.String `db:"qualifications"`
	ExperienceYears  int         `db:"experience_years"`
	EmploymentStatus string      `db:"employment_status"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (t dbTeacher) toCore() teacher.Teacher {
	return teacher.Teacher{
		ID:               t.ID,
		UserID:           t.UserID,
		Specialization:   t.Specialization.String,
		Qualifications:   t.Qualifications.String,
		ExperienceYears:  t.ExperienceYears,
		EmploymentStatus: teacher.EmploymentStatus(t.EmploymentStatus),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

type teacherRepository struct {
	exec core.DBExecutor
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{exec: db}
}

func (repo teacherRepository) getTeachers(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]teacher.Teacher, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbTeachers []dbTeacher
	if err = sqlx.StructScan(rows, &dbTeachers); err != nil {
		return nil, err
	}
	teachers := make([]teacher.Teacher, 0, len(dbTeachers))
	for _, t := range dbTeachers {
		teachers = append(teachers, t.toCore())
	}
	return teachers, nil
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	tch.ID = uuid.New().String()
	query := `INSERT INTO teacher (` + teacherColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		tch.ID, tch.UserID,
		null.NewString(tch.Specialization, tch.Specialization != ""),
		null.NewString(tch.Qualifications, tch.Qualifications != ""),
		tch.ExperienceYears,
		string(tch.EmploymentStatus),
		tch.CreatedAt.UTC(), tch.UpdatedAt.UTC(),
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tch, nil
}

func (repo teacherRepository) GetTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teacher WHERE user_id = $1`
	teachers, err := repo.getTeachers(ctx, getExec(repo.exec, exec), query, userID)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	if len(teachers) == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return teachers[0], nil
}

func (repo teacherRepository) QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teacher ORDER BY created_at ASC, id ASC`
	teachers, err := repo.getTeachers(ctx, getExec(repo.exec, exec), query)
	return teachers, errors.Wrap(err, "querying teachers")
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	query := `UPDATE teacher
SET specialization = $2, qualifications = $3, experience_years = $4, employment_status = $5, updated_at = $6
WHERE user_id = $1`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		tch.UserID,
		null.NewString(tch.Specialization, tch.Specialization != ""),
		null.NewString(tch.Qualifications, tch.Qualifications != ""),
		tch.ExperienceYears,
		string(tch.EmploymentStatus),
		tch.UpdatedAt.UTC(),
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return repo.GetTeacherByUserID(ctx, tch.UserID, exec...)
}

func (repo teacherRepository) DeleteTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM teacher WHERE user_id = $1`, userID)
	return errors.Wrap(err, "deleting teacher")
}
