package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	fbauth "firebase.google.com/go/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacemarket/internal/logger"
	"spacemarket/internal/model"
	"spacemarket/internal/repository"
)

func newLocal(t *testing.T, cfg LocalConfig) (*LocalProvider, *repository.CredentialRepository, *time.Time) {
	t.Helper()
	creds := repository.NewCredentialRepository(repository.NewMemoryStore())
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	p, err := NewLocalProvider(creds, cfg)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	return p, creds, &now
}

func authCode(t *testing.T, err error) string {
	t.Helper()
	var aerr *model.AuthError
	require.ErrorAs(t, err, &aerr)
	return aerr.Code
}

func TestLocalProviderSignUpAndSignIn(t *testing.T) {
	p, _, _ := newLocal(t, LocalConfig{})
	ctx := context.Background()

	up, err := p.SignUp(ctx, "Ana@Example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, up.NewUser)
	assert.Equal(t, "ana@example.com", up.Email)
	assert.Equal(t, int64(72*3600), up.ExpiresIn)

	_, err = p.SignUp(ctx, "ana@example.com", "other12")
	assert.Equal(t, model.AuthCodeEmailInUse, authCode(t, err))

	in, err := p.SignIn(ctx, " ana@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, in.NewUser)
	assert.Equal(t, up.UID, in.UID)

	id, err := p.Verify(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, up.UID, id.UID)
	assert.Equal(t, "ana@example.com", id.Email)
}

func TestLocalProviderSignInFailures(t *testing.T) {
	p, creds, _ := newLocal(t, LocalConfig{})
	ctx := context.Background()
	_, err := p.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, creds.Create(ctx, &repository.Credential{ID: "off", Email: "off@example.com", PasswordHash: "x", Disabled: true}))

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"unknown email", "bob@example.com", "secret1", model.AuthCodeUserNotFound},
		{"wrong password", "ana@example.com", "nope", model.AuthCodeWrongPassword},
		{"disabled", "off@example.com", "secret1", model.AuthCodeUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.SignIn(ctx, tt.email, tt.password)
			assert.Equal(t, tt.code, authCode(t, err))
		})
	}
}

func TestLocalProviderLockout(t *testing.T) {
	p, _, now := newLocal(t, LocalConfig{MaxFailedLogins: 3, Lockout: time.Minute})
	ctx := context.Background()
	_, err := p.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := p.SignIn(ctx, "ana@example.com", "wrong")
		assert.Equal(t, model.AuthCodeWrongPassword, authCode(t, err))
	}

	_, err = p.SignIn(ctx, "ana@example.com", "secret1")
	code := authCode(t, err)
	assert.Equal(t, model.AuthCodeTooManyRequests, code)
	assert.Equal(t, "Too many unsuccessful login attempts. Please try again later.", err.Error())

	*now = now.Add(2 * time.Minute)
	_, err = p.SignIn(ctx, "ana@example.com", "secret1")
	assert.NoError(t, err)
}

func TestLocalProviderVerifyRejects(t *testing.T) {
	p, _, now := newLocal(t, LocalConfig{TokenTTL: time.Hour})
	ctx := context.Background()
	creds, err := p.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	other, _, _ := newLocal(t, LocalConfig{Secret: "another-secret"})
	_, err = other.Verify(ctx, creds.Token)
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))

	_, err = p.Verify(ctx, "not-a-token")
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))

	*now = now.Add(2 * time.Hour)
	_, err = p.Verify(ctx, creds.Token)
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))
}

func TestLocalProviderSignOutRevokes(t *testing.T) {
	p, _, _ := newLocal(t, LocalConfig{})
	ctx := context.Background()
	first, err := p.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, first.UID))
	_, err = p.Verify(ctx, first.Token)
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))

	second, err := p.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	_, err = p.Verify(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLocalProviderRejectsGoogle(t *testing.T) {
	p, _, _ := newLocal(t, LocalConfig{})
	_, err := p.SignInWithIDToken(context.Background(), "google-token")
	assert.Equal(t, model.AuthCodeOperationNotAllowed, authCode(t, err))
}

func TestNewLocalProviderRequiresSecret(t *testing.T) {
	_, err := NewLocalProvider(repository.NewCredentialRepository(repository.NewMemoryStore()), LocalConfig{})
	assert.Error(t, err)
}

type fakeVerifier struct {
	tokens  map[string]*fbauth.Token
	revoked []string
}

func (v *fakeVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if t, ok := v.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

func (v *fakeVerifier) RevokeRefreshTokens(ctx context.Context, uid string) error {
	v.revoked = append(v.revoked, uid)
	return nil
}

// toolkitServer answers Identity Toolkit calls; a non-empty message makes
// every call fail with that REST error.
func toolkitServer(t *testing.T, message string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["_path"] = r.URL.Path
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		if message != "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 400, "message": message},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":     "uid-1",
			"email":       "ana@example.com",
			"displayName": "Ana",
			"idToken":     "id-token-1",
			"expiresIn":   "3600",
			"isNewUser":   r.URL.Path == "/accounts:signUp",
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newFirebase(t *testing.T, srv *httptest.Server, v *fakeVerifier) *FirebaseProvider {
	t.Helper()
	p, err := newFirebaseProvider(v, FirebaseConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return p
}

func TestFirebaseProviderPasswordFlow(t *testing.T) {
	srv, requests := toolkitServer(t, "")
	p := newFirebase(t, srv, &fakeVerifier{})
	ctx := context.Background()

	up, err := p.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, up.NewUser)
	assert.Equal(t, "uid-1", up.UID)
	assert.Equal(t, "id-token-1", up.Token)
	assert.Equal(t, int64(3600), up.ExpiresIn)

	in, err := p.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, in.NewUser)

	require.Len(t, *requests, 2)
	assert.Equal(t, "/accounts:signUp", (*requests)[0]["_path"])
	assert.Equal(t, "/accounts:signInWithPassword", (*requests)[1]["_path"])
	assert.Equal(t, true, (*requests)[1]["returnSecureToken"])
}

func TestFirebaseProviderGoogleSignIn(t *testing.T) {
	srv, requests := toolkitServer(t, "")
	p := newFirebase(t, srv, &fakeVerifier{})

	creds, err := p.SignInWithIDToken(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "Ana", creds.Name)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/accounts:signInWithIdp", req["_path"])
	postBody, err := url.ParseQuery(req["postBody"].(string))
	require.NoError(t, err)
	assert.Equal(t, "google-id-token", postBody.Get("id_token"))
	assert.Equal(t, "google.com", postBody.Get("providerId"))
}

func TestFirebaseProviderErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		code    string
		text    string
	}{
		{"EMAIL_NOT_FOUND", model.AuthCodeUserNotFound, "Invalid email or password. Please try again."},
		{"INVALID_PASSWORD", model.AuthCodeWrongPassword, "Invalid email or password. Please try again."},
		{"INVALID_LOGIN_CREDENTIALS", model.AuthCodeInvalidCredential, "Invalid email or password. Please try again."},
		{"USER_DISABLED : The user account has been disabled by an administrator.", model.AuthCodeUserDisabled, "This account has been disabled. Please contact support."},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled", model.AuthCodeTooManyRequests, "Too many unsuccessful login attempts. Please try again later."},
		{"FEDERATED_USER_ID_ALREADY_LINKED", model.AuthCodeAccountExists, "An account already exists with the same email address but different sign-in credentials."},
		{"WEAK_PASSWORD : Password should be at least 6 characters", "auth/weak-password", "WEAK_PASSWORD : Password should be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv, _ := toolkitServer(t, tt.message)
			p := newFirebase(t, srv, &fakeVerifier{})

			_, err := p.SignIn(context.Background(), "ana@example.com", "secret1")
			var aerr *model.AuthError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.code, aerr.Code)
			assert.Equal(t, tt.text, aerr.Message)
		})
	}
}

func TestFirebaseProviderVerifyAndSignOut(t *testing.T) {
	srv, _ := toolkitServer(t, "")
	v := &fakeVerifier{tokens: map[string]*fbauth.Token{
		"good": {UID: "uid-1", Claims: map[string]interface{}{"email": "ana@example.com", "name": "Ana"}},
	}}
	p := newFirebase(t, srv, v)
	ctx := context.Background()

	id, err := p.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "uid-1", Email: "ana@example.com", Name: "Ana"}, *id)

	_, err = p.Verify(ctx, "bad")
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))

	require.NoError(t, p.SignOut(ctx, "uid-1"))
	assert.Equal(t, []string{"uid-1"}, v.revoked)
}

func TestMapAuthError(t *testing.T) {
	assert.Equal(t, "The sign-in popup was closed before completing the sign-in.",
		model.MapAuthError(model.AuthCodePopupClosed, "raw").Message)
	assert.Equal(t, "raw provider text", model.MapAuthError("auth/internal-error", "raw provider text").Message)
	assert.Equal(t, "Authentication failed", model.MapAuthError("auth/internal-error", "").Message)
}

func newManager(t *testing.T) (*Manager, *repository.UserRepository) {
	t.Helper()
	store := repository.NewMemoryStore()
	p, err := NewLocalProvider(repository.NewCredentialRepository(store), LocalConfig{Secret: "test-secret"})
	require.NoError(t, err)
	users := repository.NewUserRepository(store)
	return NewManager(p, users, logger.Discard()), users
}

func TestManagerSignUpCreatesProfile(t *testing.T) {
	m, users := newManager(t)
	ctx := context.Background()

	resp, err := m.SignUp(ctx, model.SignUpRequest{Email: "ana@example.com", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RoleBuyer, resp.User.Role)

	stored, err := users.Get(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Ana", stored.Name)
	assert.Equal(t, []string{}, stored.Favorites)

	seller, err := m.SignUp(ctx, model.SignUpRequest{Email: "sam@example.com", Password: "secret1", Name: "Sam", Role: model.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, seller.User.Role)
}

func TestManagerAuthenticateAndEvents(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	var events []Event
	unsubscribe := m.Subscribe(func(e Event) { events = append(events, e) })

	resp, err := m.SignUp(ctx, model.SignUpRequest{Email: "ana@example.com", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)

	sess, err := m.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, sess.User.ID)
	assert.Equal(t, "ana@example.com", sess.Identity.Email)

	require.NoError(t, m.SignOut(ctx, resp.User.ID))
	_, err = m.Authenticate(ctx, resp.Token)
	assert.Equal(t, model.AuthCodeInvalidToken, authCode(t, err))

	unsubscribe()
	_, err = m.SignIn(ctx, model.SignInRequest{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Kind: EventSignedIn, UID: resp.User.ID},
		{Kind: EventSignedOut, UID: resp.User.ID},
	}, events)
}

func TestManagerCreatesMissingProfileOnSignIn(t *testing.T) {
	store := repository.NewMemoryStore()
	creds := repository.NewCredentialRepository(store)
	p, err := NewLocalProvider(creds, LocalConfig{Secret: "test-secret"})
	require.NoError(t, err)
	users := repository.NewUserRepository(store)
	m := NewManager(p, users, logger.Discard())
	ctx := context.Background()

	// an account without a profile, e.g. created before profiles existed
	_, err = p.SignUp(ctx, "old@example.com", "secret1")
	require.NoError(t, err)

	resp, err := m.SignIn(ctx, model.SignInRequest{Email: "old@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "old", resp.User.Name)
	assert.Equal(t, model.RoleBuyer, resp.User.Role)
}
