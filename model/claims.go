package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims are the claims accepted on bearer tokens. The subject identifies the caller.
type AppClaims struct {
	jwt.RegisteredClaims
}
