// Package auth signs users in through a local or Firebase identity provider
// and resolves bearer tokens to sessions.
package auth

import (
	"context"
)

// Identity is a verified account of the identity provider
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Credentials are returned by a successful sign-in or sign-up
type Credentials struct {
	Identity
	Token     string
	ExpiresIn int64
	// NewUser is set when the provider created the account during this call
	NewUser bool
}

// Provider is an identity provider. Failures are reported as *model.AuthError.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	// SignInWithIDToken exchanges a Google ID token obtained by the client
	SignInWithIDToken(ctx context.Context, idToken string) (*Credentials, error)
	Verify(ctx context.Context, token string) (*Identity, error)
	SignOut(ctx context.Context, uid string) error
}
