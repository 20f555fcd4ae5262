package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	fbauth "firebase.google.com/go/auth"

	"spacemarket/internal/model"
)

// DefaultIdentityToolkitURL is the Identity Toolkit REST endpoint used for
// password and federated sign-in
const DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// tokenVerifier is the part of the Firebase admin client the provider needs
type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseConfig configures the Firebase provider
type FirebaseConfig struct {
	APIKey  string
	BaseURL string
	// RequestURI is echoed to signInWithIdp; any authorized domain works
	RequestURI string
	Timeout    time.Duration
}

// FirebaseProvider signs users in through Firebase Authentication. Password
// and Google sign-in go through the Identity Toolkit REST API; ID tokens are
// verified and revoked with the admin SDK.
type FirebaseProvider struct {
	verifier   tokenVerifier
	cfg        FirebaseConfig
	httpClient *http.Client
}

// NewFirebaseProvider creates a provider around an admin auth client
func NewFirebaseProvider(client *fbauth.Client, cfg FirebaseConfig) (*FirebaseProvider, error) {
	return newFirebaseProvider(client, cfg)
}

func newFirebaseProvider(verifier tokenVerifier, cfg FirebaseConfig) (*FirebaseProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("firebase API key cannot be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultIdentityToolkitURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestURI == "" {
		cfg.RequestURI = "http://localhost"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FirebaseProvider{
		verifier:   verifier,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type toolkitResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
	IsNewUser   bool   `json:"isNewUser"`
	// set by signInWithIdp when the email is linked to another provider
	NeedConfirmation bool `json:"needConfirmation"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates an email/password account
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := p.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	creds := resp.credentials()
	creds.NewUser = true
	return creds, nil
}

// SignIn checks an email/password pair
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := p.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	return resp.credentials(), nil
}

// SignInWithIDToken exchanges a Google ID token for a Firebase session
func (p *FirebaseProvider) SignInWithIDToken(ctx context.Context, idToken string) (*Credentials, error) {
	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", "google.com")

	resp, err := p.call(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          p.cfg.RequestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
	if err != nil {
		return nil, err
	}
	if resp.NeedConfirmation {
		return nil, model.MapAuthError(model.AuthCodeAccountExists, "")
	}
	return resp.credentials(), nil
}

// Verify checks a Firebase ID token, rejecting revoked sessions
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	t, err := p.verifier.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, model.MapAuthError(model.AuthCodeInvalidToken, "Your session has expired. Please sign in again.")
	}
	id := &Identity{UID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := t.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// SignOut revokes the refresh tokens of uid
func (p *FirebaseProvider) SignOut(ctx context.Context, uid string) error {
	if err := p.verifier.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func (p *FirebaseProvider) call(ctx context.Context, method string, body map[string]any) (*toolkitResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", p.cfg.BaseURL, method, url.QueryEscape(p.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr toolkitError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Error.Message == "" {
			return nil, fmt.Errorf("identity toolkit request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, toolkitAuthError(apiErr.Error.Message)
	}

	var out toolkitResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}

func (r *toolkitResponse) credentials() *Credentials {
	expires, _ := strconv.ParseInt(r.ExpiresIn, 10, 64)
	return &Credentials{
		Identity:  Identity{UID: r.LocalID, Email: r.Email, Name: r.DisplayName},
		Token:     r.IDToken,
		ExpiresIn: expires,
		NewUser:   r.IsNewUser,
	}
}

var toolkitCodes = map[string]string{
	"EMAIL_NOT_FOUND":                  model.AuthCodeUserNotFound,
	"INVALID_PASSWORD":                 model.AuthCodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":        model.AuthCodeInvalidCredential,
	"USER_DISABLED":                    model.AuthCodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER":      model.AuthCodeTooManyRequests,
	"EMAIL_EXISTS":                     model.AuthCodeEmailInUse,
	"NEED_CONFIRMATION":                model.AuthCodeAccountExists,
	"FEDERATED_USER_ID_ALREADY_LINKED": model.AuthCodeAccountExists,
	"OPERATION_NOT_ALLOWED":            model.AuthCodeOperationNotAllowed,
	"INVALID_IDP_RESPONSE":             model.AuthCodeInvalidToken,
}

// toolkitAuthError maps a REST error message such as
// "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled"
func toolkitAuthError(message string) *model.AuthError {
	reason, detail, _ := strings.Cut(message, " : ")
	reason = strings.TrimSpace(reason)
	if code, ok := toolkitCodes[reason]; ok {
		return model.MapAuthError(code, detail)
	}
	return model.MapAuthError("auth/"+strings.ToLower(strings.ReplaceAll(reason, "_", "-")), message)
}

var _ Provider = (*FirebaseProvider)(nil)
