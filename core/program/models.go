package program

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Program is a course of study students enroll in.
type Program struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	DurationMonths int       `json:"duration_months"`
	PriceCents     int64     `json:"price_cents"`
	Capacity       int       `json:"capacity"`
	Enrolled       int       `json:"enrolled"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

func (p Program) IsFull() bool {
	return p.Capacity > 0 && p.Enrolled >= p.Capacity
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	DurationMonths int    `json:"duration_months" validate:"required,min=1"`
	PriceCents     int64  `json:"price_cents" validate:"min=0"`
	Capacity       int    `json:"capacity" validate:"min=0"`
}

func (np *NewProgram) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.checkNameUniqueness(ctx, np.Name)
}
