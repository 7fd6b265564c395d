package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Student, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) SetEnrollmentStatus(ctx context.Context, userID string, status EnrollmentStatus) (Student, error) {
	if !status.IsValid() {
		return Student{}, core.NewValidationError(nil, core.FieldError{Field: "enrollment_status", Error: "invalid enrollment status"})
	}
	std, err := svc.repo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return Student{}, err
	}
	std.EnrollmentStatus = status
	return svc.repo.UpdateStudent(ctx, std)
}
