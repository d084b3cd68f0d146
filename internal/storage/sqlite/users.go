package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// userColumns selects a user plus its is_subscribed flag; the first query
// argument must be the viewer ID.
const userColumns = `
	u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar, u.created_at,
	EXISTS(SELECT 1 FROM subscriptions s WHERE s.user_id = ? AND s.author_id = u.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
		&user.IsSubscribed,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, first_name, last_name, password_hash, avatar, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Avatar,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "u.email = ?", 0, email)
}

// GetUserByUsername retrieves a user by their username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "u.username = ?", 0, username)
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id, viewerID int64) (*models.User, error) {
	return s.getUser(ctx, "u.id = ?", viewerID, id)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, viewerID int64, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + where

	user, err := scanUser(s.db.QueryRowContext(ctx, query, viewerID, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of users ordered by email and the total count.
func (s *SQLiteStore) ListUsers(ctx context.Context, viewerID int64, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.email LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, viewerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	return s.updateUserColumn(ctx, "password_hash", userID, hash)
}

// SetAvatar replaces the avatar; an empty string removes it.
func (s *SQLiteStore) SetAvatar(ctx context.Context, userID int64, avatar string) error {
	return s.updateUserColumn(ctx, "avatar", userID, avatar)
}

func (s *SQLiteStore) updateUserColumn(ctx context.Context, column string, userID int64, value string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET "+column+" = ? WHERE id = ?", value, userID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return requireAffected(res, "user")
}

// Subscribe records that userID follows authorID.
func (s *SQLiteStore) Subscribe(ctx context.Context, userID, authorID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)",
		userID, authorID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("subscription: %w", storage.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("author: %w", storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the subscription.
func (s *SQLiteStore) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?",
		userID, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return requireAffected(res, "subscription")
}

// ListSubscriptions returns the authors userID follows, ordered by username.
func (s *SQLiteStore) ListSubscriptions(ctx context.Context, userID int64, recipesLimit, limit, offset int) ([]*models.Author, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE user_id = ?", userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query := `SELECT ` + userColumns + `
		FROM users u
		JOIN subscriptions sub ON sub.author_id = u.id
		WHERE sub.user_id = ?
		ORDER BY u.username
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		users = append(users, user)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	authors := make([]*models.Author, 0, len(users))
	for _, user := range users {
		author, err := s.withRecipes(ctx, user, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		authors = append(authors, author)
	}

	return authors, total, nil
}

// GetAuthor returns a user together with their recipe preview.
func (s *SQLiteStore) GetAuthor(ctx context.Context, authorID, viewerID int64, recipesLimit int) (*models.Author, error) {
	user, err := s.GetUserByID(ctx, authorID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.withRecipes(ctx, user, recipesLimit)
}

func (s *SQLiteStore) withRecipes(ctx context.Context, user *models.User, recipesLimit int) (*models.Author, error) {
	author := &models.Author{User: *user}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM recipes WHERE author_id = ?", user.ID,
	).Scan(&author.RecipesCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	// SQLite treats a negative LIMIT as "no limit".
	limit := recipesLimit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, image, cooking_time
		FROM recipes
		WHERE author_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		user.ID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get author recipes: %w", err)
	}
	defer rows.Close()

	author.Recipes = []models.RecipeSummary{}
	for rows.Next() {
		var r models.RecipeSummary
		if err := rows.Scan(&r.ID, &r.Name, &r.Image, &r.CookingTime); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		author.Recipes = append(author.Recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating author recipes: %w", err)
	}

	return author, nil
}

// requireAffected maps a no-op UPDATE/DELETE to storage.ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
