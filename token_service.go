package indieauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/cellardoor/indieauth/cache"
	serrors "github.com/cellardoor/indieauth/errors"
)

// TokenResponse is the body returned by a successful token exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	Me          string `json:"me"`
}

// TokenService exchanges authorization codes for signed bearer tokens and
// verifies tokens presented by resource servers.
type TokenService struct {
	codes     cache.CodeStore
	signer    *TokenSigner
	tokenTTL  time.Duration
	singleUse bool
}

// NewTokenService creates a new TokenService instance. When singleUse is
// set, a successfully exchanged code is invalidated so replays fail.
func NewTokenService(codes cache.CodeStore, signer *TokenSigner, tokenTTL time.Duration, singleUse bool) *TokenService {
	return &TokenService{
		codes:     codes,
		signer:    signer,
		tokenTTL:  tokenTTL,
		singleUse: singleUse,
	}
}

// Exchange validates a presented code against the stored grant and mints a
// signed access token. An unknown code and a client_id/redirect_uri mismatch
// are deliberately indistinguishable to the caller.
func (s *TokenService) Exchange(ctx context.Context, code, clientID, redirectURI string) (*TokenResponse, error) {
	rec, err := s.codes.Get(ctx, code)
	if err != nil {
		if errors.Is(err, cache.ErrCodeNotFound) {
			return nil, serrors.NewInvalidGrant("code is no longer valid")
		}

		log.Error().Err(err).Msg("Code store lookup failed")

		return nil, serrors.NewServerError("code store unavailable")
	}

	if rec.ClientID != clientID || rec.RedirectURI != redirectURI {
		return nil, serrors.NewInvalidGrant("invalid code, redirect_uri, or client_id supplied")
	}

	claims := &Claims{
		Scope: rec.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.Me,
			Audience:  jwt.ClaimStrings{rec.ClientID},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}

	token, err := s.signer.Sign(claims)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign access token")

		return nil, serrors.NewServerError("could not sign token")
	}

	if s.singleUse {
		// Invalidate before the response leaves the server so the same code
		// can never be exchanged twice.
		if err := s.codes.Delete(ctx, code); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate exchanged code")
		}
	}

	log.Info().
		Str("client_id", clientID).
		Str("me", rec.Me).
		Str("scope", rec.Scope).
		Msg("Access token minted")

	return &TokenResponse{
		AccessToken: token,
		Scope:       rec.Scope,
		Me:          rec.Me,
	}, nil
}

// Verify checks a raw Authorization header value and returns the token's
// claims when the signature and expiry are valid.
func (s *TokenService) Verify(authHeader string) (*Claims, error) {
	if authHeader == "" {
		return nil, serrors.NewInvalidRequest("authorization header not provided")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, serrors.NewInvalidRequest("expected Bearer token in authorization header")
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(parts[1], claims, s.signer.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	); err != nil {
		return nil, serrors.NewInvalidToken("invalid token")
	}

	return claims, nil
}
