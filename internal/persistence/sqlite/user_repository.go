package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/labor-tracker/internal/persistence"
)

// UserRepository implements persistence.UserDirectory on SQLite. The core
// only reads the directory; PutProfile exists for seeding by the surrounding
// system.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a SQLite user directory.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// PutProfile stores or replaces a directory entry.
func (r *UserRepository) PutProfile(ctx context.Context, profile persistence.UserProfile) error {
	var image any
	if profile.ProfileImage != nil {
		image = *profile.ProfileImage
	}
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, monthly_salary, profile_image)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			monthly_salary = excluded.monthly_salary,
			profile_image = excluded.profile_image`,
		profile.ID, profile.DisplayName, profile.Email, profile.MonthlySalary, image)
	return err
}

// GetProfile resolves a single user by ID.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (persistence.UserProfile, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, display_name, email, monthly_salary, profile_image FROM users WHERE id = ?`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.UserProfile{}, persistence.ErrNotFound
		}
		return persistence.UserProfile{}, err
	}
	return profile, nil
}

// ListProfiles resolves the given users; unknown IDs are omitted.
func (r *UserRepository) ListProfiles(ctx context.Context, userIDs []string) (map[string]persistence.UserProfile, error) {
	out := make(map[string]persistence.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, display_name, email, monthly_salary, profile_image FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[profile.ID] = profile
	}
	return out, rows.Err()
}

func scanProfile(row rowScanner) (persistence.UserProfile, error) {
	var (
		profile persistence.UserProfile
		image   sql.NullString
	)
	if err := row.Scan(&profile.ID, &profile.DisplayName, &profile.Email, &profile.MonthlySalary, &image); err != nil {
		return persistence.UserProfile{}, err
	}
	if image.Valid {
		value := image.String
		profile.ProfileImage = &value
	}
	return profile, nil
}
