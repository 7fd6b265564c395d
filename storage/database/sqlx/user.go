package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const userColumns = `id, email, first_name, last_name, role, avatar, is_active, password_hash, created_at, updated_at, last_login`

type dbUser struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	FirstName    null.String `db:"first_name"`
	LastName     null.String `db:"last_name"`
	Role         string      `db:"role"`
	Avatar       null.String `db:"avatar"`
	IsActive     null.Bool   `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (u dbUser) toCore() user.User {
	return user.User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName.String,
		LastName:     u.LastName.String,
		Role:         user.Role(u.Role),
		Avatar:       u.Avatar.String,
		IsActive:     u.IsActive.Ptr(),
		PasswordHash: u.PasswordHash.Bytes,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    u.LastLogin.Time,
	}
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{exec: db}
}

func (repo userRepository) getUsers(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]user.User, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbUsers []dbUser
	if err = sqlx.StructScan(rows, &dbUsers); err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, u.toCore())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (user.User, error) {
	users, err := repo.getUsers(ctx, exec, query, args...)
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := `SELECT COUNT(*) FROM "user" WHERE lower(email) = lower(?)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, email, ids); err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var count int
	if err := getExec(repo.exec, exec).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	isActive := usr.IsActive == nil || *usr.IsActive
	query := `INSERT INTO "user" (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		usr.ID, usr.Email,
		null.NewString(usr.FirstName, usr.FirstName != ""),
		null.NewString(usr.LastName, usr.LastName != ""),
		usr.Role.String(),
		null.NewString(usr.Avatar, usr.Avatar != ""),
		isActive,
		null.BytesFrom(usr.PasswordHash),
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.IsActive = &isActive
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
	usr, err := repo.getUser(ctx, getExec(repo.exec, exec), query, id)
	if err != nil && err != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "getting user by id")
	}
	return usr, err
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE lower(email) = lower($1)`
	usr, err := repo.getUser(ctx, getExec(repo.exec, exec), query, email)
	if err != nil && err != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return usr, err
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user"`
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, fmt.Sprintf(
				"(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)",
				arg(val), arg(val), arg(val)))
		}
		if filter.Role != "" {
			where = append(where, "role = "+arg(filter.Role.String()))
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	orderBy := "created_at ASC, id ASC"
	if len(ordering) > 0 {
		parts := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			parts = append(parts, ord.String())
		}
		orderBy = strings.Join(parts, ", ")
	}
	query += " ORDER BY " + orderBy

	users, err := repo.getUsers(ctx, getExec(repo.exec, exec), query, args...)
	return users, errors.Wrap(err, "querying users")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	var (
		sets []string
		args []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if usr.Email != "" {
		sets = append(sets, "email = "+arg(usr.Email))
	}
	if usr.FirstName != "" {
		sets = append(sets, "first_name = "+arg(usr.FirstName))
	}
	if usr.LastName != "" {
		sets = append(sets, "last_name = "+arg(usr.LastName))
	}
	if usr.Avatar != "" {
		sets = append(sets, "avatar = "+arg(usr.Avatar))
	}
	if usr.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(usr.PasswordHash))
	}
	if isActive != nil {
		sets = append(sets, "is_active = "+arg(*isActive))
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = "+arg(usr.LastLogin.UTC()))
	}
	sets = append(sets, "updated_at = "+arg(usr.UpdatedAt.UTC()))

	query := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + arg(usr.ID)
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = getExec(repo.exec, exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...)
	return errors.Wrap(err, "deleting users")
}
