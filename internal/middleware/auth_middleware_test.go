package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/models"
)

type stubFirebase struct {
	uid string
	err error
}

func (s stubFirebase) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.Token{UID: s.uid}, nil
}

func newTestRouter(t *testing.T, fb FirebaseTokenVerifier) (*gin.Engine, core.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := core.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	authMW := NewAuthMiddleware(tokens, fb)

	echo := func(c *gin.Context) {
		firebaseUID, _ := FirebaseUIDFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": IdentityFrom(c).UID, "firebaseUid": firebaseUID})
	}

	router := gin.New()
	router.Use(RequestID(), RecoveryMiddleware(zap.NewNop()))
	router.GET("/private", authMW.VerifyToken(), echo)
	router.GET("/optional", authMW.OptionalToken(), echo)
	router.PUT("/signin", authMW.VerifyFirebaseSignIn(), echo)
	router.GET("/panic", func(*gin.Context) { panic("boom") })
	return router, tokens
}

func do(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVerifyToken(t *testing.T) {
	router, tokens := newTestRouter(t, nil)
	token, err := tokens.Issue(models.Identity{Email: "a@x.io", UID: "u1"})
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized access"}`, w.Body.String())

	w = do(router, http.MethodGet, "/private", map[string]string{"Authorization": "Bearer nonsense"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Forbidden access"}`, w.Body.String())

	w = do(router, http.MethodGet, "/private", map[string]string{"Authorization": token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, "/private", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","firebaseUid":""}`, w.Body.String())
}

func TestOptionalToken(t *testing.T) {
	router, tokens := newTestRouter(t, nil)
	token, err := tokens.Issue(models.Identity{Email: "a@x.io", UID: "u1"})
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/optional", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"","firebaseUid":""}`, w.Body.String())

	w = do(router, http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"","firebaseUid":""}`, w.Body.String())

	w = do(router, http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer " + token})
	assert.JSONEq(t, `{"uid":"u1","firebaseUid":""}`, w.Body.String())
}

func TestVerifyFirebaseSignIn(t *testing.T) {
	t.Run("disabled without a client", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)
		w := do(router, http.MethodPut, "/signin", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		router, _ := newTestRouter(t, stubFirebase{uid: "fb1"})
		w := do(router, http.MethodPut, "/signin", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		router, _ := newTestRouter(t, stubFirebase{err: errors.New("expired")})
		w := do(router, http.MethodPut, "/signin", map[string]string{"X-Firebase-Token": "t"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("verified", func(t *testing.T) {
		router, _ := newTestRouter(t, stubFirebase{uid: "fb1"})
		w := do(router, http.MethodPut, "/signin", map[string]string{"X-Firebase-Token": "t"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"","firebaseUid":"fb1"}`, w.Body.String())
	})
}

func TestRequestIDAndRecovery(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"success":false,"message":"Internal Server Error"}`, w.Body.String())

	w = do(router, http.MethodGet, "/optional", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
