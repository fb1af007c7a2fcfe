package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of a session token. It only identifies the signed-in
// user; credentials are checked once, at login, against the stored record.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the id of the signed-in user record.
	UserID string `json:"uid"`

	// Nickname is the display name at the time the token was issued.
	Nickname string `json:"nickname"`
}
