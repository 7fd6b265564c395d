package program

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("program not found")
	ErrNameExists = errors.New("a program with this name already exists")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, prg Program, exec ...core.DBExecutor) (Program, error)
		GetProgramByID(ctx context.Context, id string, exec ...core.DBExecutor) (Program, error)
		GetProgramByName(ctx context.Context, name string, exec ...core.DBExecutor) (Program, error)
		QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]Program, error)
		UpdateProgram(ctx context.Context, prg Program, exec ...core.DBExecutor) (Program, error)
		// AdjustEnrolled adds delta to the program's enrolled count.
		AdjustEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkNameUniqueness(ctx context.Context, name string) error {
	_, err := svc.repo.GetProgramByName(ctx, name)
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	case ErrNotFound:
		return nil
	}
	return errors.Wrap(err, "checking program name uniqueness")
}

func (svc *Service) Create(ctx context.Context, np NewProgram) (Program, error) {
	now := time.Now().UTC()
	prg := Program{
		Name:           np.Name,
		Description:    np.Description,
		DurationMonths: np.DurationMonths,
		PriceCents:     np.PriceCents,
		Capacity:       np.Capacity,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateProgram(ctx, prg)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Program, error) {
	return svc.repo.GetProgramByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx)
}

func (svc *Service) Update(ctx context.Context, prg Program) (Program, error) {
	prg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProgram(ctx, prg)
}
