package student

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// EnrollmentStatus tracks a student's standing in their program.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentSuspended EnrollmentStatus = "suspended"
	EnrollmentGraduated EnrollmentStatus = "graduated"
)

func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentActive, EnrollmentPending, EnrollmentSuspended, EnrollmentGraduated:
		return true
	}
	return false
}

// Student is the role-specific extension attached to a User with the
// student role. Exactly one exists per student identity.
type Student struct {
	ID                    string           `json:"id"`
	UserID                string           `json:"user_id"`
	ProgramID             string           `json:"program_id,omitempty"`
	EnrollmentStatus      EnrollmentStatus `json:"enrollment_status"`
	DateOfBirth           string           `json:"date_of_birth,omitempty"`
	Phone                 string           `json:"phone,omitempty"`
	Gender                string           `json:"gender,omitempty"`
	Address               string           `json:"address,omitempty"`
	City                  string           `json:"city,omitempty"`
	Country               string           `json:"country,omitempty"`
	EmergencyContactName  string           `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string           `json:"emergency_contact_phone,omitempty"`
	CreatedAt             time.Time        `json:"created_at"` // UTC
	UpdatedAt             time.Time        `json:"updated_at"` // UTC
}

type QueryFilter struct {
	ProgramID        string           `query:"program_id"`
	EnrollmentStatus EnrollmentStatus `query:"enrollment_status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ProgramID == "" && qf.EnrollmentStatus == ""
}

func (qf *QueryFilter) Clean() {
	qf.EnrollmentStatus = EnrollmentStatus(core.CleanString(string(qf.EnrollmentStatus), true /* lower */))
}

// Matches reports whether std satisfies every set field of the filter.
func (qf *QueryFilter) Matches(std Student) bool {
	if qf.ProgramID != "" && std.ProgramID != qf.ProgramID {
		return false
	}
	if qf.EnrollmentStatus != "" && std.EnrollmentStatus != qf.EnrollmentStatus {
		return false
	}
	return true
}
