package teacher

import "time"

// EmploymentStatus tracks a teacher's standing with the school.
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "active"
	EmploymentOnLeave    EmploymentStatus = "on_leave"
	EmploymentTerminated EmploymentStatus = "terminated"
)

func (s EmploymentStatus) IsValid() bool {
	switch s {
	case EmploymentActive, EmploymentOnLeave, EmploymentTerminated:
		return true
	}
	return false
}

// Teacher is the role-specific extension attached to a User with the
// teacher role. Exactly one exists per teacher identity.
type Teacher struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Specialization   string           `json:"specialization,omitempty"`
	Qualifications   string           `json:"qualifications,omitempty"`
	ExperienceYears  int              `json:"experience_years"`
	EmploymentStatus EmploymentStatus `json:"employment_status"`
	CreatedAt        time.Time        `json:"created_at"` // UTC
	UpdatedAt        time.Time        `json:"updated_at"` // UTC
}
