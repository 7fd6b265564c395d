package announcement

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type (
	Priority string
	Audience string
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"

	AudienceAll             Audience = "all"
	AudienceStudents        Audience = "students"
	AudienceTeachers        Audience = "teachers"
	AudienceAdmins          Audience = "admins"
	AudienceProgramSpecific Audience = "program_specific"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (a Audience) IsValid() bool {
	switch a {
	case AudienceAll, AudienceStudents, AudienceTeachers, AudienceAdmins, AudienceProgramSpecific:
		return true
	}
	return false
}

// VisibleTo reports whether the audience includes the given role.
// Program-specific announcements target students of that program and are
// narrowed further by the repository.
func (a Audience) VisibleTo(role user.Role) bool {
	switch a {
	case AudienceAll:
		return true
	case AudienceStudents, AudienceProgramSpecific:
		return role == user.RoleStudent || role == user.RoleAdmin
	case AudienceTeachers:
		return role == user.RoleTeacher || role == user.RoleAdmin
	case AudienceAdmins:
		return role == user.RoleAdmin
	}
	return false
}

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  Priority  `json:"priority"`
	Audience  Audience  `json:"audience"`
	ProgramID string    `json:"program_id,omitempty"`
	AuthorID  string    `json:"author_id,omitempty"`
	StartsAt  time.Time `json:"starts_at,omitempty"`
	EndsAt    time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Live reports whether the announcement is within its publish window at t.
func (a Announcement) Live(t time.Time) bool {
	if !a.StartsAt.IsZero() && t.Before(a.StartsAt) {
		return false
	}
	if !a.EndsAt.IsZero() && t.After(a.EndsAt) {
		return false
	}
	return true
}

// NewAnnouncement contains information needed to publish a new Announcement.
type NewAnnouncement struct {
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content" validate:"required"`
	Priority  Priority  `json:"priority" validate:"omitempty,priority"`
	Audience  Audience  `json:"audience" validate:"omitempty,audience"`
	ProgramID string    `json:"program_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	if na.Priority == "" {
		na.Priority = PriorityLow
	}
	if na.Audience == "" {
		na.Audience = AudienceAll
	}

	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.Audience == AudienceProgramSpecific && na.ProgramID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "program_id", Error: "this field is required"})
	}
	if !na.EndsAt.IsZero() && !na.StartsAt.IsZero() && na.EndsAt.Before(na.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "must be after starts_at"})
	}
	return nil
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)

	_ = validate.RegisterValidation(audienceTag, audienceValidation)
	core.RegisterCustomTranslation(validate, translator, audienceTag, audienceText)
}

var (
	priorityTag  = "priority"
	priorityText = "invalid priority"

	audienceTag  = "audience"
	audienceText = "invalid audience"
)

func priorityValidation(fl validator.FieldLevel) bool {
	if p, ok := fl.Field().Interface().(Priority); ok {
		return p.IsValid()
	}
	return false
}

func audienceValidation(fl validator.FieldLevel) bool {
	if a, ok := fl.Field().Interface().(Audience); ok {
		return a.IsValid()
	}
	return false
}
