package domain

import (
	"strings"
	"time"
)

// AuthCode represents an issued IndieAuth authorization grant, keyed by the
// opaque code value. Fields are immutable after creation; the record only
// ever gets created, read during exchange, and dropped by TTL or eviction.
type AuthCode struct {
	Code        string    `json:"code"`         // Opaque, unguessable code value
	ClientID    string    `json:"client_id"`    // Client application ID
	RedirectURI string    `json:"redirect_uri"` // Client's callback URL, matched exactly at exchange
	Me          string    `json:"me"`           // Canonical identity of the resource owner
	Scope       string    `json:"scope"`        // Space-delimited requested scopes, may be empty
	CreatedAt   time.Time `json:"created_at"`   // Creation timestamp
}

// ResponseType is the authorization response type requested by the client.
type ResponseType string

const (
	// ResponseTypeID requests a plain identity assertion.
	ResponseTypeID ResponseType = "id"
	// ResponseTypeCode requests an authorization code for a later token exchange.
	ResponseTypeCode ResponseType = "code"
)

// ParseResponseType maps a wire value onto the closed response-type set.
// Unknown or absent values fall back to "id", which is what existing clients
// rely on.
func ParseResponseType(s string) ResponseType {
	if strings.EqualFold(strings.TrimSpace(s), string(ResponseTypeCode)) {
		return ResponseTypeCode
	}
	return ResponseTypeID
}
