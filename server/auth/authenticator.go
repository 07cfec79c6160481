// Package auth verifies access tokens and resolves them to store users.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lmangall/jot/store"
)

const (
	// AccessTokenAudience marks tokens minted for API access.
	AccessTokenAudience = "user.access-token"
	// CookieName is the cookie fallback when no Authorization header is set.
	CookieName = "jot.access-token"

	issuer = "jot"
)

// Authenticator resolves a bearer token or cookie to the user it was
// minted for.
type Authenticator struct {
	store  *store.Store
	secret string
}

func NewAuthenticator(st *store.Store, secret string) *Authenticator {
	return &Authenticator{store: st, secret: secret}
}

// AuthenticateToUser extracts a token from the Authorization or Cookie
// header, verifies it and loads the user. Returns an error for missing,
// malformed, expired or orphaned tokens.
func (a *Authenticator) AuthenticateToUser(ctx context.Context, authHeader, cookieHeader string) (*store.User, error) {
	token := extractToken(authHeader, cookieHeader)
	if token == "" {
		return nil, errors.New("no access token")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	}, jwt.WithAudience(AccessTokenAudience), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if !parsed.Valid {
		return nil, errors.New("invalid access token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, "invalid token subject")
	}
	id := int32(userID)
	user, err := a.store.GetUser(ctx, &store.FindUser{ID: &id})
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if user == nil {
		return nil, errors.Errorf("user %d not found", id)
	}
	return user, nil
}

// GenerateAccessToken mints a signed token for a user. Used by provisioning
// tooling and tests.
func GenerateAccessToken(userID int32, secret string, expiresAt time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   strconv.FormatInt(int64(userID), 10),
		Audience:  jwt.ClaimStrings{AccessTokenAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractToken(authHeader, cookieHeader string) string {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	header := http.Header{}
	header.Add("Cookie", cookieHeader)
	request := http.Request{Header: header}
	if cookie, err := request.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
