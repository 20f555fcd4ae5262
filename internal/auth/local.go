package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
)

// LocalConfig configures the local provider
type LocalConfig struct {
	Secret          string
	TokenTTL        time.Duration
	MaxFailedLogins int
	Lockout         time.Duration
}

type localClaims struct {
	Email      string `json:"email"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

type loginAttempts struct {
	failures    int
	lockedUntil time.Time
}

// LocalProvider keeps bcrypt password hashes in the document store and
// issues HS256 tokens. Repeated failed sign-ins lock the email for a while.
type LocalProvider struct {
	credentials *repository.CredentialRepository
	cfg         LocalConfig
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string]*loginAttempts
	// tokens of an older generation are rejected; SignOut bumps it
	generations map[string]int
}

// NewLocalProvider creates a local provider
func NewLocalProvider(credentials *repository.CredentialRepository, cfg LocalConfig) (*LocalProvider, error) {
	if cfg.Secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	return &LocalProvider{
		credentials: credentials,
		cfg:         cfg,
		now:         time.Now,
		attempts:    make(map[string]*loginAttempts),
		generations: make(map[string]int),
	}, nil
}

// SignUp creates a credential for a new email
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	existing, err := p.credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}
	if existing != nil {
		return nil, model.MapAuthError(model.AuthCodeEmailInUse, "The email address is already in use by another account.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	c := &repository.Credential{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := p.credentials.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	creds, err := p.issue(Identity{UID: c.ID, Email: c.Email})
	if err != nil {
		return nil, err
	}
	creds.NewUser = true
	return creds, nil
}

// SignIn checks the password of an existing credential
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if p.locked(key) {
		return nil, model.MapAuthError(model.AuthCodeTooManyRequests, "")
	}

	c, err := p.credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}
	if c == nil {
		p.fail(key)
		return nil, model.MapAuthError(model.AuthCodeUserNotFound, "")
	}
	if c.Disabled {
		return nil, model.MapAuthError(model.AuthCodeUserDisabled, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		p.fail(key)
		return nil, model.MapAuthError(model.AuthCodeWrongPassword, "")
	}

	p.mu.Lock()
	delete(p.attempts, key)
	p.mu.Unlock()
	return p.issue(Identity{UID: c.ID, Email: c.Email})
}

// SignInWithIDToken is not available without a federated identity provider
func (p *LocalProvider) SignInWithIDToken(ctx context.Context, idToken string) (*Credentials, error) {
	return nil, model.MapAuthError(model.AuthCodeOperationNotAllowed, "Google sign-in is not enabled on this server.")
}

// Verify parses and checks a token issued by this provider
func (p *LocalProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.cfg.Secret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return nil, model.MapAuthError(model.AuthCodeInvalidToken, "Your session has expired. Please sign in again.")
	}

	p.mu.Lock()
	current := p.generations[claims.Subject]
	p.mu.Unlock()
	if claims.Generation < current {
		return nil, model.MapAuthError(model.AuthCodeInvalidToken, "Your session has expired. Please sign in again.")
	}
	return &Identity{UID: claims.Subject, Email: claims.Email}, nil
}

// SignOut rejects every token issued to uid so far
func (p *LocalProvider) SignOut(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generations[uid]++
	return nil
}

func (p *LocalProvider) issue(id Identity) (*Credentials, error) {
	p.mu.Lock()
	generation := p.generations[id.UID]
	p.mu.Unlock()

	now := p.now()
	claims := &localClaims{
		Email:      id.Email,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Credentials{
		Identity:  id,
		Token:     signed,
		ExpiresIn: int64(p.cfg.TokenTTL.Seconds()),
	}, nil
}

func (p *LocalProvider) locked(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.attempts[key]
	return ok && p.now().Before(a.lockedUntil)
}

func (p *LocalProvider) fail(key string) {
	if p.cfg.MaxFailedLogins <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.attempts[key]
	if !ok {
		a = &loginAttempts{}
		p.attempts[key] = a
	}
	a.failures++
	if a.failures >= p.cfg.MaxFailedLogins {
		a.failures = 0
		a.lockedUntil = p.now().Add(p.cfg.Lockout)
	}
}

var _ Provider = (*LocalProvider)(nil)
