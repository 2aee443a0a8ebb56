package types

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT claims shape the surrounding auth layer decodes a
// caller's bearer token into. The gateway that issues and verifies these
// tokens sits in front of this service; this type only documents the shape
// the handlers expect to find on gin.Context once that layer has run.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	UserLevel int    `json:"user_level"`
}
