package main

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func setup(t *testing.T) (*commandLine, user.Repository) {
	t.Helper()

	usrRepo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return &commandLine{usrRepo: usrRepo}, usrRepo
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()

	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_run_help(t *testing.T) {
	cli, _ := setup(t)
	mockPassword(t, "")

	tests := []struct {
		name string
		args []string // without program name
	}{
		{name: "no command"},
		{name: "unknown command", args: []string{"lol"}},
		{name: "addadmin: no email", args: []string{"addadmin"}},
		{name: "addadmin: empty password", args: []string{"addadmin", "-email", "a@test.cd"}},
		{name: "resetpassword: no email", args: []string{"resetpassword"}},
		{name: "migrate: no subcommand", args: []string{"migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			if err := cli.run(args); err != errHelp {
				t.Errorf("cli.run() error = %v, want %v", err, errHelp)
			}
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli, usrRepo := setup(t)
	mockPassword(t, "s3cr3t!pass")
	ctx := context.Background()

	if err := cli.run([]string{"admin", "addadmin", "-email", "Boss@Darasa.CD", "-first-name", "Jay", "-last-name", "Mukendi"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}

	usr, err := usrRepo.GetUserByEmail(ctx, "boss@darasa.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if usr.Role != user.RoleAdmin {
		t.Errorf("Role = %v, want %v", usr.Role, user.RoleAdmin)
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Error("expected an active account")
	}
	if err = usr.CheckPassword("s3cr3t!pass"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	t.Run("existing account is promoted", func(t *testing.T) {
		active := false
		tchr := user.User{Email: "prof@darasa.cd", FirstName: "Alpha", Role: user.RoleTeacher, IsActive: &active}
		if err := tchr.SetPassword("old!pass"); err != nil {
			t.Fatalf("SetPassword() error = %v", err)
		}
		if _, err := usrRepo.CreateUser(ctx, tchr); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}

		if err := cli.run([]string{"admin", "addadmin", "-email", "prof@darasa.cd"}); err != nil {
			t.Fatalf("cli.run() error = %v", err)
		}

		usr, err := usrRepo.GetUserByEmail(ctx, "prof@darasa.cd")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if usr.Role != user.RoleAdmin {
			t.Errorf("Role = %v, want %v", usr.Role, user.RoleAdmin)
		}
		if usr.IsActive == nil || !*usr.IsActive {
			t.Error("expected a reactivated account")
		}
		if err = usr.CheckPassword("s3cr3t!pass"); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)
	mockPassword(t, "n3w!pass")
	ctx := context.Background()

	active := true
	usr := user.User{Email: "awe@darasa.cd", FirstName: "Awe", Role: user.RoleStudent, IsActive: &active}
	if err := usr.SetPassword("mdr"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err := usrRepo.CreateUser(ctx, usr); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := cli.run([]string{"admin", "resetpassword", "-email", "awe@darasa.cd"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}

	usr, err := usrRepo.GetUserByEmail(ctx, "awe@darasa.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if err = usr.CheckPassword("n3w!pass"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	t.Run("unknown email", func(t *testing.T) {
		if err := cli.run([]string{"admin", "resetpassword", "-email", "ghost@darasa.cd"}); err != user.ErrNotFound {
			t.Errorf("cli.run() error = %v, want %v", err, user.ErrNotFound)
		}
	})
}
