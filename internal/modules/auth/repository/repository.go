package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"humidity-server/internal/modules/auth/types"
)

//go:embed sql/get-user-by-username.sql
var getUserByUsernameSQL string

//go:embed sql/get-user.sql
var getUserSQL string

//go:embed sql/list-users.sql
var listUsersSQL string

//go:embed sql/insert-user.sql
var insertUserSQL string

//go:embed sql/update-user.sql
var updateUserSQL string

//go:embed sql/delete-user.sql
var deleteUserSQL string

var ErrNotFound = errors.New("user not found")

var ErrAlreadyExists = errors.New("user already exists")

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Get(ctx context.Context, userID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, u types.User) error
	Update(ctx context.Context, userID string, in types.UserInput, passwordHash *string) error
	Delete(ctx context.Context, userID string) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) UserRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

func (r *repositoryImpl) Get(ctx context.Context, userID string) (types.User, error) {
	return r.getOne(ctx, getUserSQL, userID)
}

func (r *repositoryImpl) getOne(ctx context.Context, query, key string) (types.User, error) {
	var u types.User
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&u.UserID, &u.Username, &u.Role, &u.EmailID, &u.PhoneNo, &u.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, ErrNotFound
	}
	if err != nil {
		return types.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close users rows", "error", err)
		}
	}()

	out := []types.User{}
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.UserID, &u.Username, &u.Role, &u.EmailID, &u.PhoneNo, &u.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Create(ctx context.Context, u types.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		u.UserID, u.Username, u.Role, u.EmailID, u.PhoneNo, u.PasswordHash,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *repositoryImpl) Update(ctx context.Context, userID string, in types.UserInput, passwordHash *string) error {
	res, err := r.db.ExecContext(ctx, updateUserSQL,
		in.Username, in.Role, in.EmailID, in.PhoneNo, passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %s: rows affected: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, deleteUserSQL, userID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user %s: rows affected: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
