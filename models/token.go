package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a parsed JWT together with its compact form and the owner id
// taken from the subject claim.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	SignedString string `json:"-"`
	UserID       string `json:"-"`
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
