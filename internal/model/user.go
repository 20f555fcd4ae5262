package model

import "time"

// Role controls which parts of the marketplace a user may use
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleBoth   Role = "both"
)

// CanSell reports whether the role may create listings
func (r Role) CanSell() bool {
	return r == RoleSeller || r == RoleBoth
}

// User is the profile stored at users/{uid}
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Favorites []string  `json:"favorites"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignUpRequest creates an account and its profile
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     Role   `json:"role" binding:"omitempty,oneof=buyer seller both"`
}

// SignInRequest signs in with email and password
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// FederatedSignInRequest signs in with a Google ID token obtained by the client
type FederatedSignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
	Name    string `json:"name,omitempty"`
}

// AuthResponse is returned after a successful sign-in or sign-up
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
	User      *User  `json:"user"`
}
