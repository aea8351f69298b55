package indieauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cellardoor/indieauth/cache"
	"github.com/cellardoor/indieauth/domain"
)

// ErrUnauthenticated signals that an authorization request arrived without a
// valid session. Handlers redirect to the login flow; this never becomes an
// error response body.
var ErrUnauthenticated = errors.New("no authenticated session")

// AuthorizeRequest carries the already-parsed parameters of an authorization
// request.
type AuthorizeRequest struct {
	Me           string
	ClientID     string
	RedirectURI  string
	State        string
	ResponseType domain.ResponseType
	Scope        string
}

// IssuedCode is the outcome of an approved authorization request: the fresh
// code plus the client's state parameter, echoed byte-for-byte for its own
// CSRF protection. State is never interpreted or stored server-side.
type IssuedCode struct {
	Code  string
	State string
}

// AuthorizeService turns approved authorization requests into opaque codes
// bound to the requesting client and redirect target.
type AuthorizeService struct {
	codes cache.CodeStore
}

// NewAuthorizeService creates a new AuthorizeService instance.
func NewAuthorizeService(codes cache.CodeStore) *AuthorizeService {
	return &AuthorizeService{codes: codes}
}

// Issue mints a fresh code for an approved authorization request and records
// the grant. sessionIdentity is the subject of the caller's authenticated
// session; callers must redirect to login instead of invoking Issue when it
// is empty.
func (s *AuthorizeService) Issue(ctx context.Context, sessionIdentity string, req AuthorizeRequest) (*IssuedCode, error) {
	if sessionIdentity == "" {
		return nil, ErrUnauthenticated
	}

	// A v4 UUID carries 122 bits of randomness, enough for the code to be
	// unguessable and collision-free at any realistic issuance rate.
	code := uuid.NewString()

	rec := &domain.AuthCode{
		Code:        code,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Me:          req.Me,
		Scope:       req.Scope,
		CreatedAt:   time.Now(),
	}

	if err := s.codes.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store authorization code: %w", err)
	}

	log.Info().
		Str("client_id", req.ClientID).
		Str("redirect_uri", req.RedirectURI).
		Str("response_type", string(req.ResponseType)).
		Msg("Authorization code issued")

	return &IssuedCode{Code: code, State: req.State}, nil
}
