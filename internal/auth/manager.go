package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
)

// Session is a verified bearer token together with the caller's profile
type Session struct {
	Identity Identity
	User     *model.User
}

// EventKind tells subscribers whether a user signed in or out
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// Event is published to subscribers on every sign-in and sign-out
type Event struct {
	Kind EventKind
	UID  string
}

// Manager keeps user profiles in step with the identity provider
type Manager struct {
	provider Provider
	users    *repository.UserRepository
	logger   *slog.Logger

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Event)
}

// NewManager creates an auth manager
func NewManager(provider Provider, users *repository.UserRepository, logger *slog.Logger) *Manager {
	return &Manager{
		provider:    provider,
		users:       users,
		logger:      logger,
		subscribers: make(map[int]func(Event)),
	}
}

// SignUp creates an account and its profile. The role defaults to buyer.
func (m *Manager) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	creds, err := m.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleBuyer
	}
	user := &model.User{
		ID:    creds.UID,
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
		Role:  role,
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	m.logger.Info("User signed up", "uid", user.ID, "role", user.Role)
	m.publish(Event{Kind: EventSignedIn, UID: user.ID})
	return &model.AuthResponse{Token: creds.Token, ExpiresIn: creds.ExpiresIn, User: user}, nil
}

// SignIn signs in with email and password
func (m *Manager) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	creds, err := m.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return m.signedIn(ctx, creds, "")
}

// SignInWithGoogle signs in with a Google ID token. The first sign-in
// creates a buyer profile.
func (m *Manager) SignInWithGoogle(ctx context.Context, req model.FederatedSignInRequest) (*model.AuthResponse, error) {
	creds, err := m.provider.SignInWithIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	return m.signedIn(ctx, creds, req.Name)
}

func (m *Manager) signedIn(ctx context.Context, creds *Credentials, name string) (*model.AuthResponse, error) {
	user, err := m.ensureProfile(ctx, creds.Identity, name)
	if err != nil {
		return nil, err
	}
	m.publish(Event{Kind: EventSignedIn, UID: user.ID})
	return &model.AuthResponse{Token: creds.Token, ExpiresIn: creds.ExpiresIn, User: user}, nil
}

// ensureProfile returns the profile of id, creating it when missing
func (m *Manager) ensureProfile(ctx context.Context, id Identity, name string) (*model.User, error) {
	user, err := m.users.Get(ctx, id.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if name == "" {
		name = id.Name
	}
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	user = &model.User{ID: id.UID, Email: id.Email, Name: name, Role: model.RoleBuyer}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	m.logger.Info("Created missing user profile", "uid", user.ID)
	return user, nil
}

// Authenticate verifies a bearer token and loads the caller's profile
func (m *Manager) Authenticate(ctx context.Context, token string) (*Session, error) {
	id, err := m.provider.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := m.ensureProfile(ctx, *id, "")
	if err != nil {
		return nil, err
	}
	return &Session{Identity: *id, User: user}, nil
}

// SignOut revokes the tokens of uid
func (m *Manager) SignOut(ctx context.Context, uid string) error {
	if err := m.provider.SignOut(ctx, uid); err != nil {
		return err
	}
	m.publish(Event{Kind: EventSignedOut, UID: uid})
	return nil
}

// Subscribe registers fn for auth events and returns a function that
// removes it. fn runs synchronously on the signing-in goroutine.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
