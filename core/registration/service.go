package registration

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("application not found")
	ErrDuplicateEmail    = errors.New("an account or a pending application with this email already exists")
	ErrInvalidTransition = errors.New("application has already been decided")
)

// ProvisioningError reports a failed account provisioning during approval.
// It is never locally recoverable: the caller must surface it and the state
// left behind (detailed in Err) may require manual reconciliation.
type ProvisioningError struct {
	ApplicationID string
	Err           error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning application %s: %v", e.ApplicationID, e.Err)
}

func (e *ProvisioningError) Cause() error  { return e.Err }
func (e *ProvisioningError) Unwrap() error { return e.Err }

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application, exec ...core.DBExecutor) (Application, error)
		GetApplicationByID(ctx context.Context, id string, exec ...core.DBExecutor) (Application, error)
		// QueryApplications returns newest submissions first, descending id
		// breaking timestamp ties.
		QueryApplications(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Application, error)
		PendingApplicationExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error)
		// UpdateApplicationStatus conditionally transitions the application
		// out of pending, setting the review fields together. It fails with
		// ErrInvalidTransition if the application is no longer pending: this
		// conditional write is the serialization point between racing
		// reviewers.
		UpdateApplicationStatus(ctx context.Context, id string, status Status, reviewedBy string, reviewedAt time.Time, notes string, exec ...core.DBExecutor) (Application, error)
	}

	// Service mediates the application lifecycle: submission, review and the
	// provisioning of an identity plus its role extension on approval.
	Service struct {
		repo        Repository
		usrRepo     user.Repository
		studentRepo student.Repository
		teacherRepo teacher.Repository
		programRepo program.Repository
		mailSvc     core.EmailService
		conf        *core.Config
	}
)

func NewService(
	repo Repository,
	usrRepo user.Repository,
	studentRepo student.Repository,
	teacherRepo teacher.Repository,
	programRepo program.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:        repo,
		usrRepo:     usrRepo,
		studentRepo: studentRepo,
		teacherRepo: teacherRepo,
		programRepo: programRepo,
		mailSvc:     mailSvc,
		conf:        conf,
	}
}

// checkEmailAvailable fails with ErrDuplicateEmail if an identity or a
// pending application already owns the email. Decided applications do not
// block resubmission.
func (svc *Service) checkEmailAvailable(ctx context.Context, email string) error {
	_, err := svc.usrRepo.GetUserByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		return ErrDuplicateEmail
	case user.ErrNotFound:
	default:
		return errors.Wrap(err, "checking identity email")
	}

	exists, err := svc.repo.PendingApplicationExists(ctx, email)
	if err != nil {
		return errors.Wrap(err, "checking pending applications")
	}
	if exists {
		return ErrDuplicateEmail
	}
	return nil
}

// Submit validates and persists a new pending application.
// No identity is created at submission time: applicants wait for an admin
// decision.
func (svc *Service) Submit(ctx context.Context, na NewApplication) (Application, error) {
	if err := svc.checkEmailAvailable(ctx, na.Email); err != nil {
		return Application{}, err
	}
	if na.Role == user.RoleStudent {
		if _, err := svc.programRepo.GetProgramByID(ctx, na.ProgramID); err != nil {
			if errors.Cause(err) == program.ErrNotFound {
				return Application{}, core.NewValidationError(err, core.FieldError{Field: "program_id", Error: "unknown program"})
			}
			return Application{}, errors.Wrap(err, "checking program")
		}
	}

	app := Application{
		Email:                 na.Email,
		FirstName:             na.FirstName,
		LastName:              na.LastName,
		Role:                  na.Role,
		ProgramID:             na.ProgramID,
		Phone:                 na.Phone,
		DateOfBirth:           na.DateOfBirth,
		Gender:                na.Gender,
		Address:               na.Address,
		City:                  na.City,
		Country:               na.Country,
		EmergencyContactName:  na.EmergencyContactName,
		EmergencyContactPhone: na.EmergencyContactPhone,
		Specialization:        na.Specialization,
		Qualifications:        na.Qualifications,
		ExperienceYears:       na.ExperienceYears,
		Status:                StatusPending,
		CreatedAt:             time.Now().UTC(),
	}
	if err := app.SetPassword(na.Password); err != nil {
		return Application{}, errors.Wrap(err, "setting password")
	}

	app, err := svc.repo.CreateApplication(ctx, app)
	if err != nil {
		return Application{}, errors.Wrap(err, "creating application")
	}

	svc.sendApplicationMail(app, "application-received", "Application received")
	return app, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Application, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

// Query is always a fresh read; no application list is cached in-process.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Application, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryApplications(ctx, filter)
}

// Approve provisions exactly one identity and one role extension for a
// pending application, then flips it to approved. The three writes behave
// as a single unit: a failed extension triggers a compensating delete of the
// identity, and a lost conditional status update (another reviewer decided
// first) tears both down and reports ErrInvalidTransition.
func (svc *Service) Approve(ctx context.Context, id, reviewedBy string, notes ...string) (Application, error) {
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !app.IsPending() {
		return Application{}, ErrInvalidTransition
	}

	now := time.Now().UTC()
	active := true
	usr := user.User{
		Email:        app.Email,
		FirstName:    app.FirstName,
		LastName:     app.LastName,
		Role:         app.Role,
		IsActive:     &active,
		PasswordHash: app.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	usr, err = svc.usrRepo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			// a racing reviewer provisioned this application first
			return Application{}, ErrInvalidTransition
		}
		return Application{}, &ProvisioningError{ApplicationID: id, Err: errors.Wrap(err, "creating identity")}
	}

	if err = svc.createExtension(ctx, app, usr.ID, now); err != nil {
		if delErr := svc.usrRepo.DeleteUsersByID(ctx, []string{usr.ID}); delErr != nil {
			return Application{}, &ProvisioningError{
				ApplicationID: id,
				Err:           errors.Wrapf(err, "compensating identity delete also failed (%v)", delErr),
			}
		}
		return Application{}, &ProvisioningError{ApplicationID: id, Err: err}
	}

	var note string
	if len(notes) > 0 {
		note = notes[0]
	}
	approved, err := svc.repo.UpdateApplicationStatus(ctx, id, StatusApproved, reviewedBy, now, note)
	if err != nil {
		if errors.Cause(err) == ErrInvalidTransition {
			// lost the race after provisioning; tear it back down
			svc.teardownProvisioning(ctx, app.Role, app.ProgramID, usr.ID)
			return Application{}, ErrInvalidTransition
		}
		return Application{}, &ProvisioningError{ApplicationID: id, Err: errors.Wrap(err, "updating status")}
	}

	svc.sendApplicationMail(approved, "application-approved", "Application approved")
	return approved, nil
}

// Reject flips a pending application to rejected, recording the reviewer
// notes verbatim. No identity or extension is ever created.
func (svc *Service) Reject(ctx context.Context, id, reviewedBy string, notes ...string) (Application, error) {
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !app.IsPending() {
		return Application{}, ErrInvalidTransition
	}

	var note string
	if len(notes) > 0 {
		note = notes[0]
	}
	app, err = svc.repo.UpdateApplicationStatus(ctx, id, StatusRejected, reviewedBy, time.Now().UTC(), note)
	if err != nil {
		return Application{}, err
	}

	svc.sendApplicationMail(app, "application-rejected", "Application update")
	return app, nil
}

// createExtension creates the role-specific record linked to the identity,
// populated from the intake fields captured at submission.
func (svc *Service) createExtension(ctx context.Context, app Application, userID string, now time.Time) error {
	switch app.Role {
	case user.RoleStudent:
		std := student.Student{
			UserID:                userID,
			ProgramID:             app.ProgramID,
			EnrollmentStatus:      student.EnrollmentActive,
			DateOfBirth:           app.DateOfBirth,
			Phone:                 app.Phone,
			Gender:                app.Gender,
			Address:               app.Address,
			City:                  app.City,
			Country:               app.Country,
			EmergencyContactName:  app.EmergencyContactName,
			EmergencyContactPhone: app.EmergencyContactPhone,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if _, err := svc.studentRepo.CreateStudent(ctx, std); err != nil {
			return errors.Wrap(err, "creating student record")
		}
		if app.ProgramID != "" {
			if err := svc.programRepo.AdjustEnrolled(ctx, app.ProgramID, 1); err != nil {
				_ = svc.studentRepo.DeleteStudentByUserID(ctx, userID)
				return errors.Wrap(err, "enrolling in program")
			}
		}
		return nil
	case user.RoleTeacher:
		tch := teacher.Teacher{
			UserID:           userID,
			Specialization:   app.Specialization,
			Qualifications:   app.Qualifications,
			ExperienceYears:  app.ExperienceYears,
			EmploymentStatus: teacher.EmploymentActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		_, err := svc.teacherRepo.CreateTeacher(ctx, tch)
		return errors.Wrap(err, "creating teacher record")
	}
	return errors.Errorf("unsupported applicant role %q", app.Role)
}

// teardownProvisioning removes the identity and extension created by an
// approval that lost the status race. Best effort: residual records surface
// on the next reconciliation pass.
func (svc *Service) teardownProvisioning(ctx context.Context, role user.Role, programID, userID string) {
	switch role {
	case user.RoleStudent:
		_ = svc.studentRepo.DeleteStudentByUserID(ctx, userID)
		if programID != "" {
			_ = svc.programRepo.AdjustEnrolled(ctx, programID, -1)
		}
	case user.RoleTeacher:
		_ = svc.teacherRepo.DeleteTeacherByUserID(ctx, userID)
	}
	_ = svc.usrRepo.DeleteUsersByID(ctx, []string{userID})
}

func (svc *Service) sendApplicationMail(app Application, template, subject string) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: app.FullName(), Address: app.Email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: struct {
			FirstName string
			Role      string
			Notes     string
		}{app.FirstName, app.Role.String(), app.Notes},
	})
}
