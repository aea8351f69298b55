package indieauth

import "github.com/golang-jwt/jwt/v5"

// Claims is the self-contained payload of a minted access token: subject
// identity, audience client, granted scope and expiry. Nothing is looked up
// server-side on verification; integrity rests on the shared signing secret.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Me returns the resource-owner identity the token was minted for.
func (c *Claims) Me() string {
	return c.Subject
}

// ClientID returns the audience client of the token, or the empty string
// when the audience claim is missing.
func (c *Claims) ClientID() string {
	if len(c.Audience) == 0 {
		return ""
	}
	return c.Audience[0]
}
