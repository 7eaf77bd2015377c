package auth

// Identity is the caller as seen by the storefront. Token is forwarded
// verbatim to the upstream API.
type Identity struct {
	Token   string
	UserID  uint
	Email   string
	IsAdmin bool
}

// IdentityFromClaims pairs a validated token with its claims
func IdentityFromClaims(token string, claims *Claims) Identity {
	return Identity{
		Token:   token,
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}
}

// Authenticated reports whether the identity carries a token
func (i Identity) Authenticated() bool {
	return i.Token != ""
}
