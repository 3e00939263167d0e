package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/models"
)

// Context keys set by the middleware in this package.
const (
	identityKey    = "identity"
	firebaseUIDKey = "firebaseUID"
	requestIDKey   = "requestID"
)

// ErrorResponse mirrors api.ErrorResponse; it is redeclared here to avoid an
// import cycle.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FirebaseTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware authenticates requests with access tokens issued by
// core.TokenService, and optionally with Firebase ID tokens at sign-in.
type AuthMiddleware struct {
	tokens       core.TokenService
	firebaseAuth FirebaseTokenVerifier
}

// NewAuthMiddleware creates an AuthMiddleware. firebaseAuth may be nil when
// sign-in proof is not required.
func NewAuthMiddleware(tokens core.TokenService, firebaseAuth FirebaseTokenVerifier) *AuthMiddleware {
	if tokens == nil {
		// A nil token service is a setup error. No protected route can work without it.
		panic("AuthMiddleware requires a non-nil TokenService")
	}
	return &AuthMiddleware{tokens: tokens, firebaseAuth: firebaseAuth}
}

// VerifyToken rejects requests without a valid bearer access token. A missing
// header is 401; anything present but unusable is 403.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized access"})
			return
		}
		// The header is present, so a bad scheme or a bad token is a 403 rather than a 401.
		// The verification error itself is not echoed to the client.
		identity, ok := m.verify(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden access"})
			return
		}
		// Token is valid. Handlers read the identity back with IdentityFrom.
		c.Set(identityKey, *identity)
		c.Next()
	}
}

// OptionalToken records the caller's identity when a valid bearer token is
// present and lets every request through. Authorization is left to the policy.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		// An unusable token is ignored here. The request continues as anonymous and
		// the policy decides whether the action needs an identity.
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if identity, ok := m.verify(authHeader); ok {
				c.Set(identityKey, *identity)
			}
		}
		c.Next()
	}
}

// VerifyFirebaseSignIn requires a Firebase ID token in X-Firebase-Token and
// stores its uid for the sign-in handler to compare with the submitted profile.
func (m *AuthMiddleware) VerifyFirebaseSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Without a Firebase client the route behaves as it did before sign-in proof existed.
		if m.firebaseAuth == nil {
			c.Next()
			return
		}
		idToken := c.GetHeader("X-Firebase-Token")
		if idToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized access"})
			return
		}
		// Verification is request-scoped, so it uses the request context.
		token, err := m.firebaseAuth.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden access"})
			return
		}
		c.Set(firebaseUIDKey, token.UID)
		c.Next()
	}
}

// verify parses "Bearer <token>" (scheme is case-insensitive) and checks the token.
func (m *AuthMiddleware) verify(authHeader string) (*models.Identity, bool) {
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, false
	}
	identity, err := m.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, false
	}
	return identity, true
}

// IdentityFrom returns the identity established by VerifyToken or
// OptionalToken, or the zero Identity.
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

// FirebaseUIDFrom returns the uid proven by VerifyFirebaseSignIn, if any.
func FirebaseUIDFrom(c *gin.Context) (string, bool) {
	uid := c.GetString(firebaseUIDKey)
	return uid, uid != ""
}
