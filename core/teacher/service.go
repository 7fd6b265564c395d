package teacher

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("teacher not found")

type (
	Repository interface {
		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		GetTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeacherByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(ctx, userID)
}

func (svc *Service) Query(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *Service) SetEmploymentStatus(ctx context.Context, userID string, status EmploymentStatus) (Teacher, error) {
	if !status.IsValid() {
		return Teacher{}, core.NewValidationError(nil, core.FieldError{Field: "employment_status", Error: "invalid employment status"})
	}
	tch, err := svc.repo.GetTeacherByUserID(ctx, userID)
	if err != nil {
		return Teacher{}, err
	}
	tch.EmploymentStatus = status
	return svc.repo.UpdateTeacher(ctx, tch)
}
