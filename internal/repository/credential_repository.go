package repository

import (
	"context"
	"strings"
	"time"
)

// Credential is a locally managed email/password account
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CredentialRepository stores local sign-in credentials
type CredentialRepository struct {
	store DocumentStore
}

// NewCredentialRepository creates a credential repository over a document store
func NewCredentialRepository(store DocumentStore) *CredentialRepository {
	return &CredentialRepository{store: store}
}

// FindByEmail returns the credential for a normalized email, or nil
func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	docs, err := r.store.FetchWhere(ctx, CollectionCredentials,
		Equality{Field: "email", Value: normalizeEmail(email)})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	var c Credential
	if err := decodeDocument(docs[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores a credential under its own id
func (r *CredentialRepository) Create(ctx context.Context, c *Credential) error {
	c.Email = normalizeEmail(c.Email)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	data, err := encodeDocument(c)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, CollectionCredentials, c.ID, data)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
