package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/unimart-backend/internal/model"
)

const (
	identityKey = "identity"

	HeaderDevUser     = "X-Unimart-User"
	HeaderDevCampus   = "X-Unimart-Campus"
	HeaderDevVerified = "X-Unimart-Verified"
)

// Authenticator resolves the caller and stores a model.Identity on the echo context.
type Authenticator interface {
	RequireAuth(next echo.HandlerFunc) echo.HandlerFunc
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseAuth struct {
	client tokenVerifier
}

func NewFirebaseAuth(ctx context.Context, projectID string) (*FirebaseAuth, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseAuth{client: client}, nil
}

func (m *FirebaseAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return unauthorized(c, "missing bearer token")
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.client.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return unauthorized(c, "invalid token")
		}
		c.Set(identityKey, identityFromToken(token))
		return next(c)
	}
}

// identityFromToken prefers the custom username claim and falls back to the uid.
func identityFromToken(token *auth.Token) model.Identity {
	id := model.Identity{Username: token.UID}
	if v, ok := token.Claims["username"].(string); ok && v != "" {
		id.Username = v
	}
	if v, ok := token.Claims["campus"].(string); ok {
		id.Campus = v
	}
	if v, ok := token.Claims["email_verified"].(bool); ok {
		id.Verified = v
	}
	return id
}

// DevAuth trusts identity headers. It is only wired when no Firebase project is configured.
type DevAuth struct{}

func (DevAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header
		user := strings.TrimSpace(h.Get(HeaderDevUser))
		if user == "" {
			return unauthorized(c, "missing "+HeaderDevUser+" header")
		}
		verified := true
		if v := h.Get(HeaderDevVerified); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				verified = b
			}
		}
		c.Set(identityKey, model.Identity{
			Username: user,
			Campus:   strings.TrimSpace(h.Get(HeaderDevCampus)),
			Verified: verified,
		})
		return next(c)
	}
}

func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok && id.Username != ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
		"error": {"code": "unauthorized", "message": msg},
	})
}
