package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"spacemarket/internal/auth"
	"spacemarket/internal/config"
	"spacemarket/internal/logger"
	"spacemarket/internal/model"
	"spacemarket/internal/repository"
	"spacemarket/internal/service"
	"spacemarket/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPriceModel struct {
	body string
}

func (m fixedPriceModel) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return []byte(m.body), nil
}

type testServer struct {
	engine *gin.Engine
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T, priceBody string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	store := repository.NewMemoryStore()
	props := repository.NewPropertyRepository(store)
	users := repository.NewUserRepository(store)
	messages := repository.NewMessageRepository(store)

	provider, err := auth.NewLocalProvider(repository.NewCredentialRepository(store), auth.LocalConfig{Secret: "test-secret"})
	require.NoError(t, err)
	manager := auth.NewManager(provider, users, log)

	predictions := service.NewPredictionService(fixedPriceModel{body: priceBody}, config.DefaultPredictionProfiles(), log)
	planner := service.NewPlanner(props, service.PushdownConditional, log)
	propertySvc := service.NewPropertyService(props, planner, nil, log)
	userSvc := service.NewUserService(users, propertySvc, log)
	messageSvc := service.NewMessageService(messages, propertySvc, log)

	engine := gin.New()
	engine.Use(RequestLogger(log))
	RegisterRoutes(engine, Handlers{
		Auth:      NewAuthHandler(manager),
		Property:  NewPropertyHandler(propertySvc),
		Listing:   NewListingHandler(service.NewListingService(session.NewMemoryStore(0), predictions, props, users, nil, log), 1<<20),
		User:      NewUserHandler(userSvc),
		Message:   NewMessageHandler(messageSvc),
		Dashboard: NewDashboardHandler(service.NewDashboardService(userSvc, propertySvc, messageSvc, log)),
	}, manager)

	return &testServer{engine: engine, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) signUp(t *testing.T, email string, role model.Role) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", model.SignUpRequest{
		Email: email, Password: "secret1", Name: "Test", Role: role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)

	w := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, KindAuth, decode(t, w)["kind"])

	w = s.do(t, http.MethodGet, "/api/v1/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Your session has expired. Please sign in again.", decode(t, w)["error"])

	token := s.signUp(t, "ana@example.com", "")
	w = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buyer", decode(t, w)["role"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)

	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{"email": "not-an-email", "password": "secret1", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindValidation, decode(t, w)["kind"])

	s.signUp(t, "ana@example.com", "")
	w = s.do(t, http.MethodPost, "/api/v1/auth/signin", "", model.SignInRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password. Please try again.", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/google", "", model.FederatedSignInRequest{IDToken: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListingFlow(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 55000}`)
	seller := s.signUp(t, "sam@example.com", model.RoleSeller)
	buyer := s.signUp(t, "ana@example.com", model.RoleBuyer)

	w := s.do(t, http.MethodPost, "/api/v1/listings/forms", buyer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, KindForbidden, decode(t, w)["kind"])

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms", seller, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	formID := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/submit", seller, model.SubmitListingRequest{Title: "Office"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please get a price prediction first", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/predict", seller, map[string]any{
		"propertyType": "office_rent",
		"city":         "mumbai",
		"floor_size":   "5000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 55000.0, decode(t, w)["predicted_price"])

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/submit", seller, model.SubmitListingRequest{
		Title:    "Sea view office",
		Location: "Mumbai",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	propertyID := decode(t, w)["property_id"].(string)

	w = s.do(t, http.MethodGet, "/api/v1/properties/"+propertyID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sea view office", decode(t, w)["title"])

	w = s.do(t, http.MethodGet, "/api/v1/properties?location=Mumbai&sort=price-asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total"])

	w = s.do(t, http.MethodPut, "/api/v1/properties/"+propertyID, buyer, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/submit", seller, model.SubmitListingRequest{Title: "Again"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindNotFound, decode(t, w)["kind"])
}

func TestPredictUnavailable(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 0}`)
	seller := s.signUp(t, "sam@example.com", model.RoleSeller)

	w := s.do(t, http.MethodPost, "/api/v1/listings/forms", seller, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	formID := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/predict", seller, map[string]any{
		"propertyType": "office_rent",
		"city":         "mumbai",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, KindPredictionUnavailable, decode(t, w)["kind"])

	w = s.do(t, http.MethodPost, "/api/v1/listings/forms/"+formID+"/predict", seller, map[string]any{"city": "mumbai"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Please select property type and city", body["error"])
	assert.Equal(t, "propertyType", body["field"])
}

func TestUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)
	seller := s.signUp(t, "sam@example.com", model.RoleSeller)
	w := s.do(t, http.MethodPost, "/api/v1/listings/forms", seller, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	formID := decode(t, w)["id"].(string)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "front.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/forms/"+formID+"/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+seller)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, KindStorageDisabled, decode(t, rec)["kind"])
}

func TestFavoritesMessagesAndDashboard(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)
	buyer := s.signUp(t, "ana@example.com", "")
	ctx := context.Background()
	props := repository.NewPropertyRepository(s.store)

	w := s.do(t, http.MethodGet, "/api/v1/me", buyer, nil)
	buyerID := decode(t, w)["id"].(string)
	pid, err := props.Create(ctx, &model.Property{Title: "Desk", UserID: "owner-1", Location: "Pune"})
	require.NoError(t, err)

	w = s.do(t, http.MethodPut, "/api/v1/me/favorites/"+pid, buyer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPut, "/api/v1/me/favorites/missing", buyer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/messages", buyer, model.SendMessageRequest{PropertyID: pid, Content: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/messages", buyer, model.SendMessageRequest{PropertyID: pid, Content: "Is the desk still available?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "owner-1", decode(t, w)["receiverId"])

	w = s.do(t, http.MethodGet, "/api/v1/messages/with/owner-1", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 1)

	s.store.FailOn(repository.CollectionMessages, repository.OpFetchWhere, errors.New("permission denied"))
	w = s.do(t, http.MethodGet, "/api/v1/dashboard", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode(t, w)
	assert.Equal(t, buyerID, d["user"].(map[string]any)["id"])
	assert.NotEmpty(t, d["messages"].(map[string]any)["error"])
	assert.Len(t, d["favorites"].(map[string]any)["items"], 1)
}

func TestComparablesUnsupported(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)
	pid, err := repository.NewPropertyRepository(s.store).Create(context.Background(), &model.Property{Title: "Desk"})
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/v1/properties/"+pid+"/comparables", "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, KindUnsupported, decode(t, w)["kind"])

	w = s.do(t, http.MethodGet, "/api/v1/properties/"+pid+"/comparables?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestLoggerEchoesTraceID(t *testing.T) {
	s := newTestServer(t, `{"predicted_price": 1}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/featured", nil)
	req.Header.Set(traceHeader, "trace-123")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", w.Header().Get(traceHeader))

	w = s.do(t, http.MethodGet, "/api/v1/properties/featured", "", nil)
	assert.NotEmpty(t, w.Header().Get(traceHeader))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &model.ValidationError{Field: "city", Message: "unknown"}, http.StatusBadRequest, KindValidation},
		{"query failed", &model.QueryFailed{Op: "fetch_all", Err: errors.New("down")}, http.StatusBadGateway, KindQueryFailed},
		{"prediction", &model.PredictionUnavailable{Reason: "no price"}, http.StatusBadGateway, KindPredictionUnavailable},
		{"auth", model.MapAuthError(model.AuthCodeWrongPassword, ""), http.StatusUnauthorized, KindAuth},
		{"forbidden", fmt.Errorf("form x: %w", model.ErrForbidden), http.StatusForbidden, KindForbidden},
		{"not found", fmt.Errorf("property x: %w", model.ErrNotFound), http.StatusNotFound, KindNotFound},
		{"not found inside query failed", &model.QueryFailed{Op: "get", Err: model.ErrNotFound}, http.StatusNotFound, KindNotFound},
		{"vectors", repository.ErrVectorsUnsupported, http.StatusNotImplemented, KindUnsupported},
		{"storage", service.ErrStorageDisabled, http.StatusServiceUnavailable, KindStorageDisabled},
		{"other", errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
