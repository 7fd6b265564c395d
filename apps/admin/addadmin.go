package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addAdmin creates an admin identity, or promotes and reactivates an
// existing one.
func (cli *commandLine) addAdmin(email, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	active := true
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		usr.Role = user.RoleAdmin
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.UpdatedAt = now
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
		return err
	case user.ErrNotFound:
		usr = user.User{
			Email:     email,
			FirstName: core.CleanString(firstName),
			LastName:  core.CleanString(lastName),
			Role:      user.RoleAdmin,
			IsActive:  &active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	return err
}
