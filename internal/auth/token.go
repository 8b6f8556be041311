package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expense-api/internal/models"
)

// ErrInvalidToken covers any token that fails signature, claim, or expiry
// checks. Callers treat it as "unauthenticated" without distinguishing why.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of a bearer token. TokenID is the jti the
// token was issued under; the token is live only while that ID is still
// present in the token store.
type Claims struct {
	TokenID string
	UserID  int64
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate issues a signed JWT string for the provided user under the given
// token ID. Issuing a fresh token never touches previously issued ones.
func (t *TokenManager) Generate(user models.User, tokenID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": t.issuer,
		"sub": fmt.Sprintf("%d", user.ID),
		"jti": tokenID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks the signature and registered claims of a raw token string
// and returns the embedded claims.
func (t *TokenManager) Verify(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw,
		func(token *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	tokenID, _ := mapClaims["jti"].(string)
	subject, _ := mapClaims["sub"].(string)
	userID, err := strconv.ParseInt(subject, 10, 64)
	if tokenID == "" || err != nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{TokenID: tokenID, UserID: userID}, nil
}
