package repository

import (
	"context"
	"errors"

	"gamenight/database"
	"gamenight/models"
	"gamenight/service"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, external_subject_id, email, name, avatar, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by primary key
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "failed to get user %s", id)
	}

	return user, nil
}

// GetBySubject retrieves the user for an external subject id
func (r *UserRepository) GetBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 OR external_subject_id = $1
		ORDER BY (id = $1) DESC, created_at
		LIMIT 1
	`

	user, err := scanUser(r.q.QueryRow(ctx, query, subjectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "failed to get user by subject %s", subjectID)
	}

	return user, nil
}

// CreatePlaceholder inserts a minimal record keyed by the subject id.
// Any uniqueness collision (primary key or external_subject_id) yields service.ErrConflict.
func (r *UserRepository) CreatePlaceholder(ctx context.Context, subjectID string) (*models.User, error) {
	query := `
		INSERT INTO users (id, external_subject_id, email, name)
		VALUES ($1, $1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, subjectID, models.PlaceholderEmail(subjectID), models.DefaultUserName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrConflict
	}
	if err != nil {
		return nil, storeError(err, "failed to create placeholder user %s", subjectID)
	}

	return user, nil
}

// UpsertFromProvider applies authoritative provider fields to the subject's row.
// An existing row matched by id or external_subject_id is updated in place; otherwise a
// row keyed by the subject id is inserted. An empty email or name keeps the stored value.
func (r *UserRepository) UpsertFromProvider(ctx context.Context, profile models.ProviderProfile) (*models.User, bool, error) {
	updateQuery := `
		UPDATE users
		SET email = COALESCE(NULLIF($2, ''), email),
		    name = COALESCE(NULLIF($3, ''), name),
		    avatar = $4,
		    external_subject_id = COALESCE(external_subject_id, $1),
		    updated_at = NOW()
		WHERE id = (
			SELECT id FROM users
			WHERE id = $1 OR external_subject_id = $1
			ORDER BY (id = $1) DESC, created_at
			LIMIT 1
		)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, updateQuery, profile.SubjectID, profile.Email, profile.Name, profile.Avatar))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, storeError(err, "failed to update user %s from provider", profile.SubjectID)
	}

	email := profile.Email
	if email == "" {
		email = models.PlaceholderEmail(profile.SubjectID)
	}
	name := profile.Name
	if name == "" {
		name = models.DefaultUserName
	}

	// A concurrent insert for the same id turns into an update here; xmax = 0 only for a fresh row
	insertQuery := `
		INSERT INTO users (id, external_subject_id, email, name, avatar)
		VALUES ($1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    avatar = EXCLUDED.avatar,
		    updated_at = NOW()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	user = &models.User{}
	err = r.q.QueryRow(ctx, insertQuery, profile.SubjectID, email, name, profile.Avatar).Scan(
		&user.ID,
		&user.ExternalSubjectID,
		&user.Email,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, storeError(err, "failed to upsert user %s from provider", profile.SubjectID)
	}

	return user, inserted, nil
}

// ClaimSubject records the subject id on a row that has none. It is a no-op while another
// row is still keyed by the subject.
func (r *UserRepository) ClaimSubject(ctx context.Context, userID, subjectID string) error {
	query := `
		UPDATE users
		SET external_subject_id = $2, updated_at = NOW()
		WHERE id = $1 AND external_subject_id IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM users other
			WHERE other.id <> $1 AND (other.id = $2 OR other.external_subject_id = $2)
		  )
	`

	if _, err := r.q.Exec(ctx, query, userID, subjectID); err != nil {
		return storeError(err, "failed to claim subject %s for user %s", subjectID, userID)
	}
	return nil
}

// GetAll returns all users ordered by creation time
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, storeError(err, "failed to get all users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storeError(err, "failed to scan user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate users")
	}

	return users, nil
}

// Delete removes a user row
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, storeError(err, "failed to delete user %s", id)
	}
	return result.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.ExternalSubjectID,
		&user.Email,
		&user.Name,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
