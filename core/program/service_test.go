package program_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func newTestEnv() (*program.Service, program.Repository, *validator.Validate) {
	repo := inmemdb.NewProgramRepository(inmemdb.NewDB())

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	return program.NewService(repo), repo, validate
}

func TestNewProgramValidate(t *testing.T) {
	svc, _, validate := newTestEnv()
	ctx := context.Background()

	np := program.NewProgram{Name: "  Informatique ", DurationMonths: 12, Capacity: 30}
	if err := np.Validate(ctx, validate, svc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if np.Name != "Informatique" {
		t.Errorf("Name = %q, want %q", np.Name, "Informatique")
	}

	if _, err := svc.Create(ctx, np); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("duplicate name", func(t *testing.T) {
		dup := program.NewProgram{Name: "Informatique", DurationMonths: 6}
		err := dup.Validate(ctx, validate, svc)
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "name" {
			t.Errorf("Fields = %+v, want a single error on name", vErr.Fields)
		}
	})
	t.Run("missing duration", func(t *testing.T) {
		bad := program.NewProgram{Name: "Droit"}
		if err := bad.Validate(ctx, validate, svc); err == nil {
			t.Error("Validate() expected an error")
		}
	})
}

func TestServiceEnrolledCount(t *testing.T) {
	svc, repo, _ := newTestEnv()
	ctx := context.Background()

	prg, err := svc.Create(ctx, program.NewProgram{Name: "Informatique", DurationMonths: 12, Capacity: 2})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if prg.IsFull() {
		t.Error("IsFull() = true on a fresh program")
	}

	for i := 0; i < 2; i++ {
		if err = repo.AdjustEnrolled(ctx, prg.ID, +1); err != nil {
			t.Fatalf("AdjustEnrolled() error = %v", err)
		}
	}
	prg, err = svc.GetByID(ctx, prg.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if prg.Enrolled != 2 {
		t.Errorf("Enrolled = %d, want 2", prg.Enrolled)
	}
	if !prg.IsFull() {
		t.Error("IsFull() = false at capacity")
	}

	t.Run("never drops below zero", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if err := repo.AdjustEnrolled(ctx, prg.ID, -1); err != nil {
				t.Fatalf("AdjustEnrolled() error = %v", err)
			}
		}
		prg, err := svc.GetByID(ctx, prg.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if prg.Enrolled != 0 {
			t.Errorf("Enrolled = %d, want 0", prg.Enrolled)
		}
	})
}
