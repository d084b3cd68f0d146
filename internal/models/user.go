package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is the database-assigned identifier.
	ID int64

	// Email is the login identifier (unique).
	Email string

	// Username is the public handle (unique).
	Username string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to clients.
	PasswordHash string

	// Avatar is a data URL, empty when the user has not uploaded one.
	Avatar string

	// IsSubscribed reports whether the requesting user follows this user.
	IsSubscribed bool

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser creates a new User with the given details and password hash.
// The ID is assigned by the store.
func NewUser(email, username, firstName, lastName, passwordHash string) *User {
	return &User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}

// Author is a followed user together with a preview of their recipes.
type Author struct {
	User

	// Recipes holds the newest recipes, possibly truncated by recipes_limit.
	Recipes []RecipeSummary

	// RecipesCount is the total number of recipes by this author.
	RecipesCount int
}
