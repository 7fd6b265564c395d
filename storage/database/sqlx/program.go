package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
)

const programColumns = `id, name, description, duration_months, price_cents, capacity, enrolled, is_active, created_at, updated_at`

type dbProgram struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Description    null.String `db:"description"`
	DurationMonths int         `db:"duration_months"`
	PriceCents     int64       `db:"price_cents"`
	Capacity       int         `db:"capacity"`
	Enrolled       int         `db:"enrolled"`
	IsActive       bool        `db:"is_active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (p dbProgram) toCore() program.Program {
	return program.Program{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description.String,
		DurationMonths: p.DurationMonths,
		PriceCents:     p.PriceCents,
		Capacity:       p.Capacity,
		Enrolled:       p.Enrolled,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type programRepository struct {
	exec core.DBExecutor
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *sqlx.DB) *programRepository {
	return &programRepository{exec: db}
}

func (repo programRepository) getPrograms(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]program.Program, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbPrograms []dbProgram
	if err = sqlx.StructScan(rows, &dbPrograms); err != nil {
		return nil, err
	}
	programs := make([]program.Program, 0, len(dbPrograms))
	for _, p := range dbPrograms {
		programs = append(programs, p.toCore())
	}
	return programs, nil
}

func (repo programRepository) getProgram(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (program.Program, error) {
	programs, err := repo.getPrograms(ctx, exec, query, args...)
	if err != nil {
		return program.Program{}, err
	}
	if len(programs) == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return programs[0], nil
}

func (repo programRepository) CreateProgram(ctx context.Context, prg program.Program, exec ...core.DBExecutor) (program.Program, error) {
	prg.ID = uuid.New().String()
	query := `INSERT INTO program (` + programColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		prg.ID, prg.Name,
		null.NewString(prg.Description, prg.Description != ""),
		prg.DurationMonths, prg.PriceCents, prg.Capacity, prg.Enrolled, prg.IsActive,
		prg.CreatedAt.UTC(), prg.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return program.Program{}, program.ErrNameExists
		}
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return prg, nil
}

func (repo programRepository) GetProgramByID(ctx context.Context, id string, exec ...core.DBExecutor) (program.Program, error) {
	query := `SELECT ` + programColumns + ` FROM program WHERE id = $1`
	prg, err := repo.getProgram(ctx, getExec(repo.exec, exec), query, id)
	if err != nil && err != program.ErrNotFound {
		return program.Program{}, errors.Wrap(err, "getting program")
	}
	return prg, err
}

func (repo programRepository) GetProgramByName(ctx context.Context, name string, exec ...core.DBExecutor) (program.Program, error) {
	query := `SELECT ` + programColumns + ` FROM program WHERE lower(name) = lower($1)`
	prg, err := repo.getProgram(ctx, getExec(repo.exec, exec), query, name)
	if err != nil && err != program.ErrNotFound {
		return program.Program{}, errors.Wrap(err, "getting program by name")
	}
	return prg, err
}

func (repo programRepository) QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]program.Program, error) {
	query := `SELECT ` + programColumns + ` FROM program ORDER BY name ASC`
	programs, err := repo.getPrograms(ctx, getExec(repo.exec, exec), query)
	return programs, errors.Wrap(err, "querying programs")
}

func (repo programRepository) UpdateProgram(ctx context.Context, prg program.Program, exec ...core.DBExecutor) (program.Program, error) {
	query := `UPDATE program
SET name = $2, description = $3, duration_months = $4, price_cents = $5, capacity = $6, is_active = $7, updated_at = $8
WHERE id = $1`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		prg.ID, prg.Name,
		null.NewString(prg.Description, prg.Description != ""),
		prg.DurationMonths, prg.PriceCents, prg.Capacity, prg.IsActive,
		prg.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return program.Program{}, program.ErrNameExists
		}
		return program.Program{}, errors.Wrap(err, "updating program")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return repo.GetProgramByID(ctx, prg.ID, exec...)
}

func (repo programRepository) AdjustEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error {
	query := `UPDATE program SET enrolled = GREATEST(enrolled + $2, 0) WHERE id = $1`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query, id, delta)
	if err != nil {
		return errors.Wrap(err, "adjusting enrolled count")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.ErrNotFound
	}
	return nil
}
