package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
)

const studentColumns = `id, user_id, program_id, enrollment_status, date_of_birth, phone, gender,
address, city, country, emergency_contact_name, emergency_contact_phone, created_at, updated_at`

type dbStudent struct {
	ID                    string      `db:"id"`
	UserID                string      `db:"user_id"`
	ProgramID             null.String `db:"program_id"`
	EnrollmentStatus      string      `db:"enrollment_status"`
	DateOfBirth           null.Time   `db:"date_of_birth"`
	Phone                 null.String `db:"phone"`
	Gender                null.String `db:"gender"`
	Address               null.String `db:"address"`
	City                  null.String `db:"city"`
	Country               null.String `db:"country"`
	EmergencyContactName  null.String `db:"emergency_contact_name"`
	EmergencyContactPhone null.String `db:"emergency_contact_phone"`
	CreatedAt             time.Time   `db:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at"`
}

func (s dbStudent) toCore() student.Student {
	var dob string
	if s.DateOfBirth.Valid {
		dob = s.DateOfBirth.Time.Format(dateLayout)
	}
	return student.Student{
		ID:                    s.ID,
		UserID:                s.UserID,
		ProgramID:             s.ProgramID.String,
		EnrollmentStatus:      student.EnrollmentStatus(s.EnrollmentStatus),
		DateOfBirth:           dob,
		Phone:                 s.Phone.String,
		Gender:                s.Gender.String,
		Address:               s.Address.String,
		City:                  s.City.String,
		Country:               s.Country.String,
		EmergencyContactName:  s.EmergencyContactName.String,
		EmergencyContactPhone: s.EmergencyContactPhone.String,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{exec: db}
}

func (repo studentRepository) getStudents(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]student.Student, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbStudents []dbStudent
	if err = sqlx.StructScan(rows, &dbStudents); err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(dbStudents))
	for _, s := range dbStudents {
		students = append(students, s.toCore())
	}
	return students, nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	std.ID = uuid.New().String()
	var dob null.Time
	if std.DateOfBirth != "" {
		t, err := time.Parse(dateLayout, std.DateOfBirth)
		if err != nil {
			return student.Student{}, errors.Wrapf(err, "parsing date of birth %q", std.DateOfBirth)
		}
		dob = null.TimeFrom(t)
	}
	query := `INSERT INTO student (` + studentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		std.ID, std.UserID,
		null.NewString(std.ProgramID, std.ProgramID != ""),
		string(std.EnrollmentStatus),
		dob,
		null.NewString(std.Phone, std.Phone != ""),
		null.NewString(std.Gender, std.Gender != ""),
		null.NewString(std.Address, std.Address != ""),
		null.NewString(std.City, std.City != ""),
		null.NewString(std.Country, std.Country != ""),
		null.NewString(std.EmergencyContactName, std.EmergencyContactName != ""),
		null.NewString(std.EmergencyContactPhone, std.EmergencyContactPhone != ""),
		std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE user_id = $1`
	students, err := repo.getStudents(ctx, getExec(repo.exec, exec), query, userID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	if len(students) == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return students[0], nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, exec ...core.DBExecutor) ([]student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student`
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.ProgramID != "" {
			where = append(where, "program_id = "+arg(filter.ProgramID))
		}
		if filter.EnrollmentStatus != "" {
			where = append(where, "enrollment_status = "+arg(string(filter.EnrollmentStatus)))
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	students, err := repo.getStudents(ctx, getExec(repo.exec, exec), query, args...)
	return students, errors.Wrap(err, "querying students")
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	var dob null.Time
	if std.DateOfBirth != "" {
		t, err := time.Parse(dateLayout, std.DateOfBirth)
		if err != nil {
			return student.Student{}, errors.Wrapf(err, "parsing date of birth %q", std.DateOfBirth)
		}
		dob = null.TimeFrom(t)
	}
	query := `UPDATE student
SET program_id = $2, enrollment_status = $3, date_of_birth = $4, phone = $5, gender = $6, address = $7,
    city = $8, country = $9, emergency_contact_name = $10, emergency_contact_phone = $11, updated_at = $12
WHERE user_id = $1`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		std.UserID,
		null.NewString(std.ProgramID, std.ProgramID != ""),
		string(std.EnrollmentStatus),
		dob,
		null.NewString(std.Phone, std.Phone != ""),
		null.NewString(std.Gender, std.Gender != ""),
		null.NewString(std.Address, std.Address != ""),
		null.NewString(std.City, std.City != ""),
		null.NewString(std.Country, std.Country != ""),
		null.NewString(std.EmergencyContactName, std.EmergencyContactName != ""),
		null.NewString(std.EmergencyContactPhone, std.EmergencyContactPhone != ""),
		std.UpdatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByUserID(ctx, std.UserID, exec...)
}

func (repo studentRepository) DeleteStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM student WHERE user_id = $1`, userID)
	return errors.Wrap(err, "deleting student")
}
