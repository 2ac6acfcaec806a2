package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-users-api/logger"
	"go-users-api/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUserNotFound is returned when no user has the requested identifier.
var ErrUserNotFound = errors.New("user not found")

// IUserRepository defines the contract for user storage.
//
// Implementations must be safe for concurrent use. Each method is atomic on
// its own; in particular Upsert decides between insert and replace in a
// single step, so concurrent upserts of the same id report created exactly once.
type IUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Insert stores a new user, assigning an id when user.ID is nil.
	Insert(ctx context.Context, user *model.User) error
	// Update overwrites an existing user or returns ErrUserNotFound.
	Update(ctx context.Context, user *model.User) error
	// Upsert inserts or replaces user and reports whether it was created.
	Upsert(ctx context.Context, user *model.User) (created bool, err error)
	// Delete removes a user or returns ErrUserNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns one page of users in a stable order.
	List(ctx context.Context, page model.PageRequest) (*model.PagedUsers, error)
}

// UserRepository implements IUserRepository on PostgreSQL.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, login, first_name, last_name, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	log := logger.Log.WithField("user_id", id)
	log.Debug("Executing query to get user by ID")

	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Login, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.WithError(err).Error("Failed to execute get user by ID query")
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"login":   user.Login,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (id, login, first_name, last_name) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, user.ID, user.Login, user.FirstName, user.LastName).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to update user")

	query := `UPDATE users SET login = $2, first_name = $3, last_name = $4, updated_at = now() WHERE id = $1 RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, user.ID, user.Login, user.FirstName, user.LastName).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		log.WithError(err).Error("Failed to execute update user query")
		return err
	}
	return nil
}

// Upsert relies on xmax being zero only for freshly inserted rows.
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) (bool, error) {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to upsert user")

	query := `
		INSERT INTO users (id, login, first_name, last_name) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET login = EXCLUDED.login, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, updated_at = now()
		RETURNING created_at, updated_at, (xmax = 0) AS inserted`

	var created bool
	err := r.DB.QueryRowContext(ctx, query, user.ID, user.Login, user.FirstName, user.LastName).
		Scan(&user.CreatedAt, &user.UpdatedAt, &created)
	if err != nil {
		log.WithError(err).Error("Failed to execute upsert user query")
		return false, err
	}
	return created, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to delete user")

	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete user query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, page model.PageRequest) (*model.PagedUsers, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"page_number": page.PageNumber,
		"page_size":   page.PageSize,
	})
	log.Debug("Executing query to list users")

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		log.WithError(err).Error("Failed to count users")
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, page.PageSize, page.Offset())
	if err != nil {
		log.WithError(err).Error("Failed to execute list users query")
		return nil, err
	}
	defer rows.Close()

	users := make([]*model.User, 0, page.PageSize)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Login, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.WithError(err).Error("Failed to scan user row")
			return nil, err
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.PagedUsers{
		Items:       users,
		TotalCount:  total,
		PageSize:    page.PageSize,
		CurrentPage: page.PageNumber,
	}, nil
}
