package teacher_test

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func TestServiceSetEmploymentStatus(t *testing.T) {
	repo := inmemdb.NewTeacherRepository(inmemdb.NewDB())
	svc := teacher.NewService(repo)
	ctx := context.Background()

	if _, err := repo.CreateTeacher(ctx, teacher.Teacher{
		UserID:           "usr-1",
		Specialization:   "Mathematics",
		ExperienceYears:  7,
		EmploymentStatus: teacher.EmploymentActive,
	}); err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}

	tch, err := svc.SetEmploymentStatus(ctx, "usr-1", teacher.EmploymentOnLeave)
	if err != nil {
		t.Fatalf("SetEmploymentStatus() error = %v", err)
	}
	if tch.EmploymentStatus != teacher.EmploymentOnLeave {
		t.Errorf("EmploymentStatus = %v, want %v", tch.EmploymentStatus, teacher.EmploymentOnLeave)
	}

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.SetEmploymentStatus(ctx, "usr-1", "fired")
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("SetEmploymentStatus() error = %v, want *core.ValidationError", err)
		}
	})
	t.Run("unknown teacher", func(t *testing.T) {
		if _, err := svc.SetEmploymentStatus(ctx, "ghost", teacher.EmploymentActive); err != teacher.ErrNotFound {
			t.Errorf("SetEmploymentStatus() error = %v, want %v", err, teacher.ErrNotFound)
		}
	})
}
