package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/userprov/userprov/internal/model"
)

const userEntity = "user"

// FindBySubjectID returns the user with the given external id.
// A missing row yields (nil, nil).
func (r *Repository) FindBySubjectID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT external_user_id, created_at
		FROM users
		WHERE external_user_id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ExternalUserID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapError("find", userEntity, err)
	}

	return &user, nil
}

// ListAll returns every local user, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT external_user_id, created_at
		FROM users
		ORDER BY created_at ASC, external_user_id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapError("list", userEntity, err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ExternalUserID, &user.CreatedAt); err != nil {
			return nil, wrapError("list", userEntity, err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("list", userEntity, err)
	}

	return users, nil
}

// Insert persists a new user and returns the stored row.
func (r *Repository) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, ErrInvalidArgument
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (external_user_id, created_at)
		VALUES ($1, $2)
		RETURNING external_user_id, created_at
	`

	var stored model.User
	err := r.pool.QueryRow(ctx, query, user.ExternalUserID, user.CreatedAt).
		Scan(&stored.ExternalUserID, &stored.CreatedAt)
	if err != nil {
		return nil, wrapError("insert", userEntity, err)
	}

	return &stored, nil
}

// Update rewrites the mutable columns of an existing user.
// created_at is never touched; a User currently has no other mutable
// column, so this only confirms the row still exists.
func (r *Repository) Update(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, ErrInvalidArgument
	}
	if user.ExternalUserID == uuid.Nil {
		return nil, &model.ValidationError{Field: "externalUserId", Message: "must not be empty"}
	}

	query := `
		UPDATE users
		SET external_user_id = external_user_id
		WHERE external_user_id = $1
		RETURNING external_user_id, created_at
	`

	var stored model.User
	err := r.pool.QueryRow(ctx, query, user.ExternalUserID).
		Scan(&stored.ExternalUserID, &stored.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &StorageError{Op: "update", Entity: userEntity, Kind: KindNotFound}
		}
		return nil, wrapError("update", userEntity, err)
	}

	return &stored, nil
}

// Delete removes one user. It reports false when no row matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE external_user_id = $1`, id)
	if err != nil {
		return false, wrapError("delete", userEntity, err)
	}
	return tag.RowsAffected() > 0, nil
}

// WipeAll removes every user row and returns how many were deleted.
// Callers gate this by environment; the repository does not.
func (r *Repository) WipeAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, wrapError("wipe", userEntity, err)
	}
	return tag.RowsAffected(), nil
}
