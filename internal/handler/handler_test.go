package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/character-api/internal/middleware"
	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/repository"
	"github.com/iliyamo/character-api/internal/utils"
)

type testEnv struct {
	e       *echo.Echo
	users   *repository.UserRepo
	chars   *repository.CharacterRepo
	issuer  *utils.TokenIssuer
	revoked *repository.RevocationRegistry
}

// newTestEnv wires the handlers onto a bare echo instance with the same
// gates the production router uses.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	issuer, err := utils.NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	env := &testEnv{
		e:       echo.New(),
		users:   repository.NewUserRepo(repository.NewMemoryStore[string, model.User](), bcrypt.MinCost),
		chars:   repository.NewCharacterRepo(repository.NewMemoryStore[uint64, model.Character]()),
		issuer:  issuer,
		revoked: repository.NewRevocationRegistry(),
	}
	env.e.HTTPErrorHandler = ErrorHandler
	env.e.Validator = NewValidator()

	gate := middleware.AuthConfig{Verifier: issuer, Revoked: env.revoked}
	auth := NewAuthHandler(env.users, issuer, env.revoked, nil)
	ch := NewCharacterHandler(env.chars, nil)

	env.e.POST("/auth/register", auth.Register)
	env.e.POST("/auth/login", auth.Login)
	env.e.POST("/auth/logout", auth.Logout, middleware.OptionalAuth(gate))
	env.e.GET("/characters", ch.List, middleware.JWTAuth(gate))
	env.e.GET("/characters/:id", ch.Get, middleware.JWTAuth(gate))
	env.e.POST("/characters", ch.Create, middleware.JWTAuth(gate))
	env.e.PUT("/characters/:id", ch.Replace, middleware.JWTAuth(gate))
	env.e.DELETE("/characters/:id", ch.Delete, middleware.JWTAuth(gate))
	return env
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// login registers email and returns the access token from /auth/login.
func (env *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	if rec := env.do(t, http.MethodPost, "/auth/register", "", `{"email":"`+email+`","password":"secret1"}`); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	rec := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	var pair tokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return pair.AccessToken
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Message
}
