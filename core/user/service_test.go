package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
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

func newTestService(t *testing.T) (*user.Service, *core.Config) {
	t.Helper()

	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "Darasa",
		SecretKey:                 []byte("poq5-wer)#@dvd"),
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromName:           "Darasa",
		DefaultFromAddr:           "noreply@darasa.cd",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	core.ParseEmailTemplates(conf, nopLogger{})
	emailsvc.ClearSentMessages()

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf), conf
}

func TestServiceCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Email:     "kali@darasa.cd",
		FirstName: "Kali",
		LastName:  "Mutombo",
		Role:      user.RoleStudent,
		Password:  "LePassword243",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if usr.ID == "" {
		t.Error("expected an ID to be set")
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Error("expected an active account")
	}
	if err = usr.CheckPassword("LePassword243"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{
			Email:     "kali@darasa.cd",
			FirstName: "Other",
			LastName:  "Kali",
			Role:      user.RoleTeacher,
			Password:  "LePassword243",
		})
		if err != user.ErrEmailExists {
			t.Errorf("Create() error = %v, want %v", err, user.ErrEmailExists)
		}
	})
	t.Run("uniqueness check reports the field", func(t *testing.T) {
		err := svc.CheckUniqueness(ctx, "kali@darasa.cd")
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("CheckUniqueness() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
			t.Errorf("Fields = %+v, want a single error on email", vErr.Fields)
		}
		if err = svc.CheckUniqueness(ctx, "kali@darasa.cd", usr); err != nil {
			t.Errorf("CheckUniqueness() with self excluded error = %v", err)
		}
	})
}

func TestServicePasswordReset(t *testing.T) {
	svc, conf := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Email:     "kali@darasa.cd",
		FirstName: "Kali",
		LastName:  "Mutombo",
		Role:      user.RoleStudent,
		Password:  "LePassword243",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err = svc.RequestPasswordReset(ctx, "Kali@Darasa.CD"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", n)
	}

	t.Run("unknown email", func(t *testing.T) {
		if err := svc.RequestPasswordReset(ctx, "ghost@darasa.cd"); err != user.ErrNotFound {
			t.Errorf("RequestPasswordReset() error = %v, want %v", err, user.ErrNotFound)
		}
	})

	token, err := user.MakeToken(conf, usr)
	if err != nil {
		t.Fatalf("MakeToken() error = %v", err)
	}
	if err = svc.ResetPassword(ctx, user.ResetUserPassword{
		Token:    token,
		UID:      user.EncodeUID(usr),
		Password: "UnAutrePass243",
	}); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	usr, err = svc.GetByEmail(ctx, "kali@darasa.cd")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if err = usr.CheckPassword("UnAutrePass243"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	t.Run("token is single use", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{
			Token:    token,
			UID:      user.EncodeUID(usr),
			Password: "EncoreUnAutre243",
		})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("ResetPassword() error = %v, want *core.ValidationError", err)
		}
	})
	t.Run("garbage uid", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{Token: token, UID: "!!!", Password: "x"})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("ResetPassword() error = %v, want *core.ValidationError", err)
		}
	})
}
