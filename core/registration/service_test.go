package registration_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	svc         *registration.Service
	repo        registration.Repository
	usrRepo     user.Repository
	studentRepo student.Repository
	teacherRepo teacher.Repository
	programRepo program.Repository
	conf        *core.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		Debug:           true,
		TestMode:        true,
		AppName:         "Darasa",
		SecretKey:       []byte("poq5-wer)#@dvd"),
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromName: "Darasa",
		DefaultFromAddr: "noreply@darasa.cd",
	}
	core.ParseEmailTemplates(conf, nopLogger{})
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	env := &testEnv{
		repo:        inmemdb.NewApplicationRepository(db),
		usrRepo:     inmemdb.NewUserRepository(db),
		studentRepo: inmemdb.NewStudentRepository(db),
		teacherRepo: inmemdb.NewTeacherRepository(db),
		programRepo: inmemdb.NewProgramRepository(db),
		conf:        conf,
	}
	env.svc = registration.NewService(
		env.repo, env.usrRepo, env.studentRepo, env.teacherRepo, env.programRepo,
		emailsvc.NewConsoleServiceMock(conf), conf,
	)
	return env
}

func (env *testEnv) createProgram(t *testing.T, name string) program.Program {
	t.Helper()
	prog, err := env.programRepo.CreateProgram(context.Background(), program.Program{
		Name:           name,
		DurationMonths: 6,
		Capacity:       30,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createProgram() failed: %v", err)
	}
	return prog
}

func (env *testEnv) submitStudent(t *testing.T, email, programID string) registration.Application {
	t.Helper()
	app, err := env.svc.Submit(context.Background(), registration.NewApplication{
		Email:           email,
		FirstName:       "Amina",
		LastName:        "Kimathi",
		Password:        "[a4FKkfPNN3",
		PasswordConfirm: "[a4FKkfPNN3",
		Role:            user.RoleStudent,
		ProgramID:       programID,
		Phone:           "+254700111222",
		DateOfBirth:     "2002-05-14",
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return app
}

func (env *testEnv) submitTeacher(t *testing.T, email string) registration.Application {
	t.Helper()
	app, err := env.svc.Submit(context.Background(), registration.NewApplication{
		Email:           email,
		FirstName:       "Joseph",
		LastName:        "Mutombo",
		Password:        "[a4FKkfPNN3",
		PasswordConfirm: "[a4FKkfPNN3",
		Role:            user.RoleTeacher,
		Specialization:  "Mathematics",
		ExperienceYears: 7,
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return app
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Web Development")

	app := env.submitStudent(t, "amina@test.cd", prog.ID)
	if app.ID == "" {
		t.Error("Submit() returned an Application without an ID")
	}
	if app.Status != registration.StatusPending {
		t.Errorf("Submit() Status = %q; expected %q", app.Status, registration.StatusPending)
	}
	if app.ReviewedBy != "" || !app.ReviewedAt.IsZero() {
		t.Error("Submit() must leave review fields unset")
	}
	if app.PasswordHash == nil {
		t.Error("Submit() must hash the applicant password")
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("Submit() sent %d emails; expected 1", len(emailsvc.SentMessages))
	}

	// no identity exists until an admin approves
	if _, err := env.usrRepo.GetUserByEmail(ctx, "amina@test.cd"); err != user.ErrNotFound {
		t.Errorf("GetUserByEmail() err = %v; expected ErrNotFound", err)
	}

	t.Run("duplicate pending application", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, registration.NewApplication{
			Email:           "amina@test.cd",
			FirstName:       "Amina",
			LastName:        "Kimathi",
			Password:        "[a4FKkfPNN3",
			PasswordConfirm: "[a4FKkfPNN3",
			Role:            user.RoleStudent,
			ProgramID:       prog.ID,
		})
		if err != registration.ErrDuplicateEmail {
			t.Errorf("Submit() err = %v; expected ErrDuplicateEmail", err)
		}
	})

	t.Run("email taken by an existing account", func(t *testing.T) {
		usr := user.User{Email: "taken@test.cd", FirstName: "Jean", LastName: "Kala", Role: user.RoleAdmin}
		if _, err := env.usrRepo.CreateUser(ctx, usr); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
		_, err := env.svc.Submit(ctx, registration.NewApplication{
			Email:           "taken@test.cd",
			FirstName:       "Jean",
			LastName:        "Kala",
			Password:        "[a4FKkfPNN3",
			PasswordConfirm: "[a4FKkfPNN3",
			Role:            user.RoleTeacher,
			Specialization:  "Physics",
		})
		if err != registration.ErrDuplicateEmail {
			t.Errorf("Submit() err = %v; expected ErrDuplicateEmail", err)
		}
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, registration.NewApplication{
			Email:           "other@test.cd",
			FirstName:       "Grace",
			LastName:        "Ilunga",
			Password:        "[a4FKkfPNN3",
			PasswordConfirm: "[a4FKkfPNN3",
			Role:            user.RoleStudent,
			ProgramID:       "deadbeef",
		})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Submit() err = %v; expected a ValidationError", err)
		}
	})

	t.Run("resubmission after rejection", func(t *testing.T) {
		app := env.submitStudent(t, "retry@test.cd", prog.ID)
		if _, err := env.svc.Reject(ctx, app.ID, "admin-1", "incomplete documents"); err != nil {
			t.Fatalf("Reject() failed: %v", err)
		}
		if _, err := env.svc.Submit(ctx, registration.NewApplication{
			Email:           "retry@test.cd",
			FirstName:       "Amina",
			LastName:        "Kimathi",
			Password:        "[a4FKkfPNN3",
			PasswordConfirm: "[a4FKkfPNN3",
			Role:            user.RoleStudent,
			ProgramID:       prog.ID,
		}); err != nil {
			t.Errorf("Submit() after rejection failed: %v", err)
		}
	})
}

func TestServiceApproveStudent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Web Development")
	app := env.submitStudent(t, "amina@test.cd", prog.ID)

	approved, err := env.svc.Approve(ctx, app.ID, "admin-1", "welcome aboard")
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if approved.Status != registration.StatusApproved {
		t.Errorf("Approve() Status = %q; expected %q", approved.Status, registration.StatusApproved)
	}
	if approved.ReviewedBy != "admin-1" {
		t.Errorf("Approve() ReviewedBy = %q; expected admin-1", approved.ReviewedBy)
	}
	if approved.ReviewedAt.IsZero() {
		t.Error("Approve() must set ReviewedAt together with ReviewedBy")
	}
	if approved.Notes != "welcome aboard" {
		t.Errorf("Approve() Notes = %q", approved.Notes)
	}

	// exactly one identity, logging in with the submitted password
	usr, err := env.usrRepo.GetUserByEmail(ctx, "amina@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if usr.Role != user.RoleStudent {
		t.Errorf("identity Role = %q; expected student", usr.Role)
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Error("identity must be active")
	}
	if err = usr.CheckPassword("[a4FKkfPNN3"); err != nil {
		t.Error("identity must keep the password submitted with the application")
	}

	// one linked student record, enrolled in the applied program
	std, err := env.studentRepo.GetStudentByUserID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetStudentByUserID() failed: %v", err)
	}
	if std.ProgramID != prog.ID {
		t.Errorf("student ProgramID = %q; expected %q", std.ProgramID, prog.ID)
	}
	if std.EnrollmentStatus != student.EnrollmentActive {
		t.Errorf("student EnrollmentStatus = %q; expected active", std.EnrollmentStatus)
	}
	if prog, _ = env.programRepo.GetProgramByID(ctx, prog.ID); prog.Enrolled != 1 {
		t.Errorf("program Enrolled = %d; expected 1", prog.Enrolled)
	}

	t.Run("second decision fails", func(t *testing.T) {
		if _, err := env.svc.Approve(ctx, app.ID, "admin-2"); err != registration.ErrInvalidTransition {
			t.Errorf("Approve() err = %v; expected ErrInvalidTransition", err)
		}
		if _, err := env.svc.Reject(ctx, app.ID, "admin-2", "nope"); err != registration.ErrInvalidTransition {
			t.Errorf("Reject() err = %v; expected ErrInvalidTransition", err)
		}
		// re-deciding must not touch the stored review fields
		stored, err := env.svc.GetByID(ctx, app.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if stored.ReviewedBy != "admin-1" || stored.Notes != "welcome aboard" {
			t.Error("a decided application must be immutable")
		}
	})
}

func TestServiceApproveTeacher(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	app := env.submitTeacher(t, "joseph@test.cd")

	if _, err := env.svc.Approve(ctx, app.ID, "admin-1"); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	usr, err := env.usrRepo.GetUserByEmail(ctx, "joseph@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	tch, err := env.teacherRepo.GetTeacherByUserID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetTeacherByUserID() failed: %v", err)
	}
	if tch.Specialization != "Mathematics" || tch.ExperienceYears != 7 {
		t.Errorf("teacher record = %+v; intake fields must carry over", tch)
	}
	if tch.EmploymentStatus != teacher.EmploymentActive {
		t.Errorf("teacher EmploymentStatus = %q; expected active", tch.EmploymentStatus)
	}
}

func TestServiceReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Data Science")
	app := env.submitStudent(t, "amina@test.cd", prog.ID)

	rejected, err := env.svc.Reject(ctx, app.ID, "admin-1", "missing transcripts")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if rejected.Status != registration.StatusRejected {
		t.Errorf("Reject() Status = %q; expected %q", rejected.Status, registration.StatusRejected)
	}
	if rejected.Notes != "missing transcripts" {
		t.Errorf("Reject() Notes = %q; notes must be recorded verbatim", rejected.Notes)
	}

	// rejection provisions nothing
	if _, err = env.usrRepo.GetUserByEmail(ctx, "amina@test.cd"); err != user.ErrNotFound {
		t.Errorf("GetUserByEmail() err = %v; expected ErrNotFound", err)
	}
	if prog, _ = env.programRepo.GetProgramByID(ctx, prog.ID); prog.Enrolled != 0 {
		t.Errorf("program Enrolled = %d; expected 0", prog.Enrolled)
	}

	if _, err = env.svc.Approve(ctx, app.ID, "admin-2"); err != registration.ErrInvalidTransition {
		t.Errorf("Approve() after rejection err = %v; expected ErrInvalidTransition", err)
	}
}

func TestServiceQuery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Web Development")

	first := env.submitStudent(t, "first@test.cd", prog.ID)
	second := env.submitTeacher(t, "second@test.cd")
	if _, err := env.svc.Reject(ctx, first.ID, "admin-1", ""); err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}

	apps, err := env.svc.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("Query() returned %d applications; expected 2", len(apps))
	}

	pending, err := env.svc.Query(ctx, &registration.QueryFilter{Status: registration.StatusPending})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("Query(pending) = %+v; expected only the teacher application", pending)
	}

	students, err := env.svc.Query(ctx, &registration.QueryFilter{Role: user.RoleStudent})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(students) != 1 || students[0].ID != first.ID {
		t.Errorf("Query(student) = %+v; expected only the student application", students)
	}
}

// flaky repository wrappers for exercising the approval compensation paths.
type (
	flakyStudentRepo struct {
		student.Repository
		createErr error
	}
	flakyTeacherRepo struct {
		teacher.Repository
		createErr error
	}
	flakyUserRepo struct {
		user.Repository
		deleteErr error
	}
	// rivalDecisionRepo lets another reviewer reject the application right
	// before the conditional status update runs, so the caller always loses
	// the decision race after provisioning.
	rivalDecisionRepo struct {
		registration.Repository
		rival string
	}
)

func (repo flakyStudentRepo) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	return student.Student{}, repo.createErr
}

func (repo flakyTeacherRepo) CreateTeacher(ctx context.Context, tch teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	return teacher.Teacher{}, repo.createErr
}

func (repo flakyUserRepo) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return repo.deleteErr
}

func (repo rivalDecisionRepo) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status registration.Status,
	reviewedBy string,
	reviewedAt time.Time,
	notes string,
	exec ...core.DBExecutor,
) (registration.Application, error) {
	if _, err := repo.Repository.UpdateApplicationStatus(ctx, id, registration.StatusRejected, repo.rival, reviewedAt, "not a fit", exec...); err != nil {
		return registration.Application{}, err
	}
	return repo.Repository.UpdateApplicationStatus(ctx, id, status, reviewedBy, reviewedAt, notes, exec...)
}

func (env *testEnv) newService(
	repo registration.Repository,
	usrRepo user.Repository,
	studentRepo student.Repository,
	teacherRepo teacher.Repository,
) *registration.Service {
	return registration.NewService(
		repo, usrRepo, studentRepo, teacherRepo, env.programRepo,
		emailsvc.NewConsoleServiceMock(env.conf), env.conf,
	)
}

func TestServiceApproveCompensation(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("storage offline")

	t.Run("student record failure deletes the identity", func(t *testing.T) {
		env := newTestEnv(t)
		prog := env.createProgram(t, "Web Development")
		app := env.submitStudent(t, "amina@test.cd", prog.ID)

		svc := env.newService(env.repo, env.usrRepo, flakyStudentRepo{env.studentRepo, errDown}, env.teacherRepo)
		_, err := svc.Approve(ctx, app.ID, "admin-1")
		pErr, ok := err.(*registration.ProvisioningError)
		if !ok {
			t.Fatalf("Approve() err = %v; expected *ProvisioningError", err)
		}
		if pErr.ApplicationID != app.ID {
			t.Errorf("ProvisioningError.ApplicationID = %q; expected %q", pErr.ApplicationID, app.ID)
		}
		if errors.Cause(pErr.Err) != errDown {
			t.Errorf("ProvisioningError cause = %v; expected the student record failure", errors.Cause(pErr.Err))
		}

		if _, err = env.usrRepo.GetUserByEmail(ctx, "amina@test.cd"); errors.Cause(err) != user.ErrNotFound {
			t.Errorf("GetUserByEmail() err = %v; the identity must be compensated away", err)
		}
		if stored, _ := env.svc.GetByID(ctx, app.ID); stored.Status != registration.StatusPending {
			t.Errorf("application Status = %q; a failed approval must leave it pending", stored.Status)
		}
		if prog, _ = env.programRepo.GetProgramByID(ctx, prog.ID); prog.Enrolled != 0 {
			t.Errorf("program Enrolled = %d; expected 0", prog.Enrolled)
		}

		// still approvable once storage recovers
		if _, err = env.svc.Approve(ctx, app.ID, "admin-1"); err != nil {
			t.Errorf("Approve() retry failed: %v", err)
		}
	})

	t.Run("teacher record failure deletes the identity", func(t *testing.T) {
		env := newTestEnv(t)
		app := env.submitTeacher(t, "joseph@test.cd")

		svc := env.newService(env.repo, env.usrRepo, env.studentRepo, flakyTeacherRepo{env.teacherRepo, errDown})
		if _, err := svc.Approve(ctx, app.ID, "admin-1"); err == nil {
			t.Fatal("Approve() must fail when the teacher record cannot be created")
		} else if _, ok := err.(*registration.ProvisioningError); !ok {
			t.Fatalf("Approve() err = %v; expected *ProvisioningError", err)
		}

		if _, err := env.usrRepo.GetUserByEmail(ctx, "joseph@test.cd"); errors.Cause(err) != user.ErrNotFound {
			t.Errorf("GetUserByEmail() err = %v; the identity must be compensated away", err)
		}
		if stored, _ := env.svc.GetByID(ctx, app.ID); stored.Status != registration.StatusPending {
			t.Errorf("application Status = %q; expected pending", stored.Status)
		}
	})

	t.Run("failed compensation reports the residual identity", func(t *testing.T) {
		env := newTestEnv(t)
		prog := env.createProgram(t, "Web Development")
		app := env.submitStudent(t, "amina@test.cd", prog.ID)

		svc := env.newService(
			env.repo,
			flakyUserRepo{env.usrRepo, errors.New("delete timed out")},
			flakyStudentRepo{env.studentRepo, errDown},
			env.teacherRepo,
		)
		_, err := svc.Approve(ctx, app.ID, "admin-1")
		pErr, ok := err.(*registration.ProvisioningError)
		if !ok {
			t.Fatalf("Approve() err = %v; expected *ProvisioningError", err)
		}
		if errors.Cause(pErr.Err) != errDown {
			t.Errorf("ProvisioningError cause = %v; expected the student record failure", errors.Cause(pErr.Err))
		}
		if !strings.Contains(pErr.Error(), "compensating identity delete also failed") {
			t.Errorf("ProvisioningError = %q; must report the residual identity", pErr.Error())
		}

		// the identity stays behind for reconciliation; the application stays pending
		if _, err = env.usrRepo.GetUserByEmail(ctx, "amina@test.cd"); err != nil {
			t.Errorf("GetUserByEmail() failed: %v", err)
		}
		if stored, _ := env.svc.GetByID(ctx, app.ID); stored.Status != registration.StatusPending {
			t.Errorf("application Status = %q; expected pending", stored.Status)
		}
	})
}

func TestServiceApproveLostRace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Web Development")
	app := env.submitStudent(t, "amina@test.cd", prog.ID)

	svc := env.newService(rivalDecisionRepo{env.repo, "admin-2"}, env.usrRepo, env.studentRepo, env.teacherRepo)
	if _, err := svc.Approve(ctx, app.ID, "admin-1"); err != registration.ErrInvalidTransition {
		t.Fatalf("Approve() err = %v; expected ErrInvalidTransition", err)
	}

	// the rival decision stands
	stored, err := env.svc.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if stored.Status != registration.StatusRejected || stored.ReviewedBy != "admin-2" {
		t.Errorf("application = %q by %q; the rival rejection must stand", stored.Status, stored.ReviewedBy)
	}

	// everything provisioned before the lost update is torn back down
	if _, err = env.usrRepo.GetUserByEmail(ctx, "amina@test.cd"); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("GetUserByEmail() err = %v; the identity must be torn down", err)
	}
	if students, _ := env.studentRepo.QueryStudents(ctx, nil); len(students) != 0 {
		t.Errorf("QueryStudents() returned %d records; expected none", len(students))
	}
	if prog, _ = env.programRepo.GetProgramByID(ctx, prog.ID); prog.Enrolled != 0 {
		t.Errorf("program Enrolled = %d; expected 0", prog.Enrolled)
	}
}

func TestServiceApproveConcurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	prog := env.createProgram(t, "Web Development")
	app := env.submitStudent(t, "amina@test.cd", prog.ID)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, reviewer := range []string{"admin-1", "admin-2"} {
		wg.Add(1)
		go func(reviewer string) {
			defer wg.Done()
			_, err := env.svc.Approve(ctx, app.ID, reviewer)
			errs <- err
		}(reviewer)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch err {
		case nil:
			won++
		case registration.ErrInvalidTransition:
			lost++
		default:
			t.Fatalf("Approve() err = %v; expected nil or ErrInvalidTransition", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("concurrent Approve(): %d succeeded, %d lost; exactly one reviewer must win", won, lost)
	}

	users, err := env.usrRepo.QueryUsers(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryUsers() failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("QueryUsers() returned %d identities; expected exactly 1", len(users))
	}
	if _, err = env.studentRepo.GetStudentByUserID(ctx, users[0].ID); err != nil {
		t.Errorf("GetStudentByUserID() failed: %v", err)
	}
	if prog, _ = env.programRepo.GetProgramByID(ctx, prog.ID); prog.Enrolled != 1 {
		t.Errorf("program Enrolled = %d; expected 1", prog.Enrolled)
	}
}
