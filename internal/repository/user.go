package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, display_name, avatar, partner_id, push_token, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.Avatar, &user.PartnerID, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a user and fills in its ID and creation time
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, user.DisplayName).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, notFound(err))
	}
	return user, nil
}

// GetByLogin retrieves a user whose username or email equals login
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`
	user, err := scanUser(r.db.QueryRow(ctx, query, login))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", notFound(err))
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", notFound(err))
	}
	return user, nil
}

// Exists checks whether the username or the email is already registered
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// EmailTaken checks whether another user already uses email
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, query, email, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// PartnerID returns the partner of a user, nil when unlinked
func (r *UserRepository) PartnerID(ctx context.Context, id int64) (*int64, error) {
	var partnerID *int64
	err := r.db.QueryRow(ctx, `SELECT partner_id FROM users WHERE id = $1`, id).Scan(&partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner of user %d: %w", id, notFound(err))
	}
	return partnerID, nil
}

// UpdateProfile applies the non-nil fields of patch
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) error {
	update := psql.Update("users").Where("id = ?", id)
	if patch.DisplayName != nil {
		update = update.Set("display_name", *patch.DisplayName)
	}
	if patch.Email != nil {
		update = update.Set("email", *patch.Email)
	}
	if patch.Avatar != nil {
		update = update.Set("avatar", *patch.Avatar)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile update: %w", err)
	}
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, id int64, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, id)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// LinkPartners links a and b to each other in one transaction. Any previous
// partner of either side is unlinked first so the relation stays symmetric.
func (r *UserRepository) LinkPartners(ctx context.Context, a, b int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET partner_id = NULL WHERE partner_id IN ($1, $2) AND id NOT IN ($1, $2)`,
			a, b,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET partner_id = $1 WHERE id = $2`, b, a); err != nil {
			return err
		}
		result, err := tx.Exec(ctx, `UPDATE users SET partner_id = $1 WHERE id = $2`, a, b)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to link partners %d and %d: %w", a, b, err)
	}
	return nil
}
