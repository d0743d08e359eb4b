package auth

import (
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/ezza-forms/backend/model"
)

func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueToken signs a session token carrying the claims the frontend and the
// role middleware rely on.
func IssueToken(ja *jwtauth.JWTAuth, user model.User, ttl time.Duration) (string, error) {
	claims := map[string]any{
		"id":       user.ID,
		"role":     string(user.Role),
		"fullName": user.FullName,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)

	_, token, err := ja.Encode(claims)
	return token, err
}
