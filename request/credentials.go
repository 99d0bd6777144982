package request

import "strings"

// Credentials is the session token attached to authorised requests. Callers
// own its lifecycle and pass it per request; nothing here is global.
type Credentials struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   string `json:"expiresAt"`
}

// Token renders the Authorization header value.
func (c Credentials) Token() string {
	if c.AccessToken == "" {
		return ""
	}
	if strings.EqualFold(c.TokenType, "bearer") {
		return "Bearer " + c.AccessToken
	}
	return c.AccessToken
}
