package registration

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// Status is the review state of an Application.
// pending is the only non-terminal state: once approved or rejected an
// application can never transition again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool { return s == StatusApproved || s == StatusRejected }

// Application is a request to become a teacher or student account holder.
// The intake fields are immutable after submission; only the review fields
// change, exactly once, when an admin decides. Applications are never
// deleted: decided ones remain as an audit trail.
type Application struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash []byte    `json:"-"`
	Role         user.Role `json:"role"` // teacher | student

	// student intake fields
	ProgramID             string `json:"program_id,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	DateOfBirth           string `json:"date_of_birth,omitempty"`
	Gender                string `json:"gender,omitempty"`
	Address               string `json:"address,omitempty"`
	City                  string `json:"city,omitempty"`
	Country               string `json:"country,omitempty"`
	EmergencyContactName  string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty"`

	// teacher intake fields
	Specialization  string `json:"specialization,omitempty"`
	Qualifications  string `json:"qualifications,omitempty"`
	ExperienceYears int    `json:"experience_years,omitempty"`

	// review fields; ReviewedBy/ReviewedAt are set together on the single
	// transition out of pending
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

func (a Application) IsPending() bool { return a.Status == StatusPending }

func (a *Application) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a Application) FullName() string {
	return core.CleanString(a.FirstName + " " + a.LastName)
}

// NewApplication contains information needed to submit a new Application.
// Role-conditional requirements (student: program; teacher: specialization)
// are enforced by struct-level validation.
type NewApplication struct {
	Email           string    `json:"email" validate:"required,email"`
	FirstName       string    `json:"first_name" validate:"required"`
	LastName        string    `json:"last_name" validate:"required"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            user.Role `json:"role" validate:"required,applicantrole"`

	// student fields
	ProgramID             string `json:"program_id"`
	Phone                 string `json:"phone"`
	DateOfBirth           string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender                string `json:"gender"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	Country               string `json:"country"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`

	// teacher fields
	Specialization  string `json:"specialization"`
	Qualifications  string `json:"qualifications"`
	ExperienceYears int    `json:"experience_years" validate:"min=0"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Specialization = core.CleanString(na.Specialization)
	return validate.Struct(na)
}

type QueryFilter struct {
	Status Status    `query:"status"`
	Role   user.Role `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.Role == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
	qf.Role = user.Role(core.CleanString(string(qf.Role), true /* lower */))
}

// Matches reports whether app satisfies every set field of the filter.
func (qf *QueryFilter) Matches(app Application) bool {
	if qf.Status != "" && app.Status != qf.Status {
		return false
	}
	if qf.Role != "" && app.Role != qf.Role {
		return false
	}
	return true
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(applicantRoleTag, applicantRoleValidation)
	core.RegisterCustomTranslation(validate, translator, applicantRoleTag, applicantRoleText)

	validate.RegisterStructValidation(applicationStructValidation, NewApplication{})
	core.RegisterCustomTranslation(validate, translator, requiredForRoleTag, requiredForRoleText)
}

var (
	applicantRoleTag  = "applicantrole"
	applicantRoleText = "applicants can only request the teacher or student role"

	requiredForRoleTag  = "requiredforrole"
	requiredForRoleText = "this field is required for the requested role"
)

// applicantRoleValidation checks the requested role; admin accounts are
// never provisioned through registration.
func applicantRoleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(user.Role); ok {
		return role == user.RoleTeacher || role == user.RoleStudent
	}
	return false
}

// applicationStructValidation enforces role-conditional required fields and
// the password policy.
func applicationStructValidation(sl validator.StructLevel) {
	na, ok := sl.Current().Interface().(NewApplication)
	if !ok {
		return
	}

	switch na.Role {
	case user.RoleStudent:
		if na.ProgramID == "" {
			sl.ReportError(na.ProgramID, "program_id", "ProgramID", requiredForRoleTag, "")
		}
	case user.RoleTeacher:
		if na.Specialization == "" {
			sl.ReportError(na.Specialization, "specialization", "Specialization", requiredForRoleTag, "")
		}
	}

	user.ValidatePassword(na.Password, sl, na.FirstName, na.LastName, na.Email)
}
