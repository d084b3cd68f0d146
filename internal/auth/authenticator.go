package auth

import (
	"context"

	"github.com/mmynk/foodgram/internal/models"
)

// Registration carries the fields needed to open an account.
type Registration struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account.
	// Returns ErrEmailExists or ErrUsernameExists when the identity is taken.
	Register(ctx context.Context, reg Registration) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ChangeCredential replaces the credential after verifying the current one.
	ChangeCredential(ctx context.Context, user *models.User, current, next string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
