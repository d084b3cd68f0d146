package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

type memoryUsers struct {
	byEmail map[string]*models.User
	nextID  int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return storage.ErrAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, userID int64, hash string) error {
	for _, u := range m.byEmail {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return storage.ErrNotFound
}

func newTestAuthenticator() *PasswordAuthenticator {
	return NewPasswordAuthenticator(newMemoryUsers(), WithCost(bcrypt.MinCost))
}

func registration(email, username string) Registration {
	return Registration{
		Email:     email,
		Username:  username,
		FirstName: "Ann",
		LastName:  "Smith",
		Password:  "correct-horse",
	}
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	user, err := a.Register(ctx, registration("ann@example.com", "ann"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("password is hashed", func(t *testing.T) {
		if user.PasswordHash == "correct-horse" || user.PasswordHash == "" {
			t.Errorf("Expected bcrypt hash, got %q", user.PasswordHash)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := a.Register(ctx, registration("ann@example.com", "other"))
		if !errors.Is(err, ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := a.Register(ctx, registration("other@example.com", "ann"))
		if !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Expected ErrUsernameExists, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		reg := registration("weak@example.com", "weak")
		reg.Password = "short"
		if _, err := a.Register(ctx, reg); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "ann@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID mismatch: got %d, want %d", got.ID, user.ID)
		}
		if _, err := a.Authenticate(ctx, "ann@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := a.Authenticate(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
		}
	})

	t.Run("change credential", func(t *testing.T) {
		if err := a.ChangeCredential(ctx, user, "wrong-password", "new-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
		if err := a.ChangeCredential(ctx, user, "correct-horse", "tiny"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
		if err := a.ChangeCredential(ctx, user, "correct-horse", "new-password"); err != nil {
			t.Fatalf("ChangeCredential failed: %v", err)
		}
		if _, err := a.Authenticate(ctx, "ann@example.com", "new-password"); err != nil {
			t.Errorf("Expected new password to work, got %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Email: "ann@example.com"}

	t.Run("round trip", func(t *testing.T) {
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != 42 || claims.Email != "ann@example.com" {
			t.Errorf("Unexpected claims: %+v", claims)
		}
		if claims.ID == "" {
			t.Error("Expected a token ID")
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, _ := m.Generate(user)
		b, _ := m.Generate(user)
		if a == b {
			t.Error("Expected distinct tokens for the same user")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewJWTManager("other-secret", time.Hour).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, _ := NewJWTManager("test-secret", -time.Minute).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"Token abc", "abc", nil},
		{"token abc", "abc", nil},
		{"", "", ErrMissingToken},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		name := tt.header
		if name == "" {
			name = "empty"
		}
		t.Run(strings.ReplaceAll(name, " ", "_"), func(t *testing.T) {
			got, err := TokenFromHeader(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TokenFromHeader(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TokenFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
