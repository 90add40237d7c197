package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskMateAPI/handlers"
	"taskMateAPI/internal/account"
	"taskMateAPI/middleware"
	"taskMateAPI/services"
	"taskMateAPI/tests/helpers"
)

func TestSignUpAndSignInFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	authHandler := handlers.NewAuthHandler(authService)

	email := fmt.Sprintf("test-signup-%d@example.com", time.Now().UnixNano())

	// Step 1: Sign up
	body := fmt.Sprintf(`{"email": "%s", "password": "secret123"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	rr := httptest.NewRecorder()

	authHandler.SignUp(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var signUpResp account.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &signUpResp))
	assert.NotEmpty(t, signUpResp.Token)
	require.NotNil(t, signUpResp.Account)
	assert.Equal(t, email, signUpResp.Account.Email)

	// Step 2: Duplicate sign up is rejected
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	rr2 := httptest.NewRecorder()

	authHandler.SignUp(rr2, req2)
	assert.Equal(t, http.StatusConflict, rr2.Code)

	// Step 3: Sign in with correct credentials
	req3 := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", strings.NewReader(body))
	rr3 := httptest.NewRecorder()

	authHandler.SignIn(rr3, req3)
	require.Equal(t, http.StatusOK, rr3.Code)

	var signInResp account.AuthResponse
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &signInResp))
	assert.NotEmpty(t, signInResp.Token)

	// Step 4: Sign in with a wrong password
	wrongBody := fmt.Sprintf(`{"email": "%s", "password": "wrong-password"}`, email)
	req4 := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", strings.NewReader(wrongBody))
	rr4 := httptest.NewRecorder()

	authHandler.SignIn(rr4, req4)
	assert.Equal(t, http.StatusUnauthorized, rr4.Code)

	// Step 5: Fetch current account
	req5 := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	ctx := context.WithValue(req5.Context(), middleware.AccountIDKey, signUpResp.Account.ID.String())
	req5 = req5.WithContext(ctx)
	rr5 := httptest.NewRecorder()

	authHandler.Me(rr5, req5)
	require.Equal(t, http.StatusOK, rr5.Code)

	var me account.Account
	require.NoError(t, json.Unmarshal(rr5.Body.Bytes(), &me))
	assert.Equal(t, signUpResp.Account.ID, me.ID)
	assert.Equal(t, email, me.Email)
}

func TestSignUp_Validation(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	authHandler := handlers.NewAuthHandler(authService)

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"email": "", "password": "secret123"}`},
		{"malformed email", `{"email": "not-an-email", "password": "secret123"}`},
		{"short password", `{"email": "test-short@example.com", "password": "abc"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			authHandler.SignUp(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	authService := services.NewAuthService(pool)
	authHandler := handlers.NewAuthHandler(authService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rr := httptest.NewRecorder()

	authHandler.Me(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
