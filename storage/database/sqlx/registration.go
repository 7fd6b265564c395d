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
	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/user"
)

const applicationColumns = `id, email, first_name, last_name, password_hash, role, program_id, phone,
date_of_birth, address, city, country, gender, emergency_contact_name, emergency_contact_phone,
specialization, qualifications, experience_years, status, notes, reviewed_by, reviewed_at, created_at`

type dbApplication struct {
	ID                    string      `db:"id"`
	Email                 string      `db:"email"`
	FirstName             string      `db:"first_name"`
	LastName              string      `db:"last_name"`
	PasswordHash          []byte      `db:"password_hash"`
	Role                  string      `db:"role"`
	ProgramID             null.String `db:"program_id"`
	Phone                 null.String `db:"phone"`
	DateOfBirth           null.Time   `db:"date_of_birth"`
	Address               null.String `db:"address"`
	City                  null.String `db:"city"`
	Country               null.String `db:"country"`
	Gender                null.String `db:"gender"`
	EmergencyContactName  null.String `db:"emergency_contact_name"`
	EmergencyContactPhone null.String `db:"emergency_contact_phone"`
	Specialization        null.String `db:"specialization"`
	Qualifications        null.String `db:"qualifications"`
	ExperienceYears       null.Int    `db:"experience_years"`
	Status                string      `db:"status"`
	Notes                 null.String `db:"notes"`
	ReviewedBy            null.String `db:"reviewed_by"`
	ReviewedAt            null.Time   `db:"reviewed_at"`
	CreatedAt             time.Time   `db:"created_at"`
}

const dateLayout = "2006-01-02"

func (a dbApplication) toCore() registration.Application {
	var dob string
	if a.DateOfBirth.Valid {
		dob = a.DateOfBirth.Time.Format(dateLayout)
	}
	return registration.Application{
		ID:                    a.ID,
		Email:                 a.Email,
		FirstName:             a.FirstName,
		LastName:              a.LastName,
		PasswordHash:          a.PasswordHash,
		Role:                  user.Role(a.Role),
		ProgramID:             a.ProgramID.String,
		Phone:                 a.Phone.String,
		DateOfBirth:           dob,
		Gender:                a.Gender.String,
		Address:               a.Address.String,
		City:                  a.City.String,
		Country:               a.Country.String,
		EmergencyContactName:  a.EmergencyContactName.String,
		EmergencyContactPhone: a.EmergencyContactPhone.String,
		Specialization:        a.Specialization.String,
		Qualifications:        a.Qualifications.String,
		ExperienceYears:       a.ExperienceYears.Int,
		Status:                registration.Status(a.Status),
		Notes:                 a.Notes.String,
		ReviewedBy:            a.ReviewedBy.String,
		ReviewedAt:            a.ReviewedAt.Time,
		CreatedAt:             a.CreatedAt,
	}
}

type applicationRepository struct {
	exec core.DBExecutor
}

var _ registration.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) *applicationRepository {
	return &applicationRepository{exec: db}
}

func (repo applicationRepository) getApplications(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]registration.Application, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbApps []dbApplication
	if err = sqlx.StructScan(rows, &dbApps); err != nil {
		return nil, err
	}
	apps := make([]registration.Application, 0, len(dbApps))
	for _, a := range dbApps {
		apps = append(apps, a.toCore())
	}
	return apps, nil
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app registration.Application, exec ...core.DBExecutor) (registration.Application, error) {
	app.ID = uuid.New().String()
	var dob null.Time
	if app.DateOfBirth != "" {
		t, err := time.Parse(dateLayout, app.DateOfBirth)
		if err != nil {
			return registration.Application{}, errors.Wrapf(err, "parsing date of birth %q", app.DateOfBirth)
		}
		dob = null.TimeFrom(t)
	}
	query := `INSERT INTO registration_application (` + applicationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		app.ID, app.Email, app.FirstName, app.LastName, app.PasswordHash, app.Role.String(),
		null.NewString(app.ProgramID, app.ProgramID != ""),
		null.NewString(app.Phone, app.Phone != ""),
		dob,
		null.NewString(app.Address, app.Address != ""),
		null.NewString(app.City, app.City != ""),
		null.NewString(app.Country, app.Country != ""),
		null.NewString(app.Gender, app.Gender != ""),
		null.NewString(app.EmergencyContactName, app.EmergencyContactName != ""),
		null.NewString(app.EmergencyContactPhone, app.EmergencyContactPhone != ""),
		null.NewString(app.Specialization, app.Specialization != ""),
		null.NewString(app.Qualifications, app.Qualifications != ""),
		null.IntFrom(app.ExperienceYears),
		app.Status.String(),
		null.NewString(app.Notes, app.Notes != ""),
		null.NewString(app.ReviewedBy, app.ReviewedBy != ""),
		null.NewTime(app.ReviewedAt.UTC(), !app.ReviewedAt.IsZero()),
		app.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// the partial unique index rejects a second live application
			return registration.Application{}, registration.ErrDuplicateEmail
		}
		return registration.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id string, exec ...core.DBExecutor) (registration.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM registration_application WHERE id = $1`
	apps, err := repo.getApplications(ctx, getExec(repo.exec, exec), query, id)
	if err != nil {
		return registration.Application{}, errors.Wrap(err, "getting application")
	}
	if len(apps) == 0 {
		return registration.Application{}, registration.ErrNotFound
	}
	return apps[0], nil
}

func (repo applicationRepository) QueryApplications(ctx context.Context, filter *registration.QueryFilter, exec ...core.DBExecutor) ([]registration.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM registration_application`
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Status != "" {
			where = append(where, "status = "+arg(filter.Status.String()))
		}
		if filter.Role != "" {
			where = append(where, "role = "+arg(filter.Role.String()))
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	apps, err := repo.getApplications(ctx, getExec(repo.exec, exec), query, args...)
	return apps, errors.Wrap(err, "querying applications")
}

func (repo applicationRepository) PendingApplicationExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	query := `SELECT COUNT(*) FROM registration_application WHERE lower(email) = lower($1) AND status = $2`
	var count int
	err := getExec(repo.exec, exec).QueryRowContext(ctx, query, email, registration.StatusPending.String()).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "checking pending applications")
	}
	return count > 0, nil
}

func (repo applicationRepository) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status registration.Status,
	reviewedBy string,
	reviewedAt time.Time,
	notes string,
	exec ...core.DBExecutor,
) (registration.Application, error) {
	// the WHERE clause makes the transition conditional: the first decision
	// wins, every later one affects zero rows
	query := `UPDATE registration_application
SET status = $2, reviewed_by = $3, reviewed_at = $4, notes = $5
WHERE id = $1 AND status = $6`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		id, status.String(),
		null.NewString(reviewedBy, reviewedBy != ""),
		reviewedAt.UTC(),
		null.NewString(notes, notes != ""),
		registration.StatusPending.String(),
	)
	if err != nil {
		return registration.Application{}, errors.Wrap(err, "updating application status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err = repo.GetApplicationByID(ctx, id, exec...); err != nil {
			return registration.Application{}, err
		}
		return registration.Application{}, registration.ErrInvalidTransition
	}
	return repo.GetApplicationByID(ctx, id, exec...)
}
