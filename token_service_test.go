package indieauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellardoor/indieauth/cache"
	serrors "github.com/cellardoor/indieauth/errors"
)

const testSecret = "test-signing-secret"

func newTestServices(singleUse bool) (*AuthorizeService, *TokenService) {
	store := cache.NewMemoryCodeStore(100, time.Hour)
	signer := NewTokenSigner(testSecret)

	return NewAuthorizeService(store), NewTokenService(store, signer, 10000*time.Second, singleUse)
}

func issueTestCode(t *testing.T, svc *AuthorizeService) string {
	t.Helper()

	issued, err := svc.Issue(context.Background(), "myuser", testAuthorizeRequest())
	require.NoError(t, err)

	return issued.Code
}

func assertOAuthError(t *testing.T, err error, code string) {
	t.Helper()

	var oerr *serrors.OAuth2Error
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, code, oerr.Code)
}

func TestExchangeReturnsSignedToken(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	resp, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	assert.Equal(t, "https://user.example/", resp.Me)
	assert.Equal(t, "profile", resp.Scope)
	assert.Len(t, strings.Split(resp.AccessToken, "."), 3)
}

func TestExchangeVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	resp, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	claims, err := tokenSvc.Verify("Bearer " + resp.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, "https://user.example/", claims.Me())
	assert.Equal(t, "app1", claims.ClientID())
	assert.Equal(t, "profile", claims.Scope)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestExchangeUnknownCode(t *testing.T) {
	_, tokenSvc := newTestServices(true)

	_, err := tokenSvc.Exchange(context.Background(), "never-issued", "app1", "https://app1/cb")
	assertOAuthError(t, err, serrors.InvalidGrant)
}

func TestExchangeRedirectURIMismatch(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	_, err := tokenSvc.Exchange(ctx, code, "app1", "https://evil/cb")
	assertOAuthError(t, err, serrors.InvalidGrant)
}

func TestExchangeClientIDMismatch(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	_, err := tokenSvc.Exchange(ctx, code, "app2", "https://app1/cb")
	assertOAuthError(t, err, serrors.InvalidGrant)
}

func TestExchangeSingleUseInvalidatesCode(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	_, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	_, err = tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	assertOAuthError(t, err, serrors.InvalidGrant)
}

func TestExchangeReplayAllowedWhenNotSingleUse(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(false)
	code := issueTestCode(t, authSvc)

	_, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	resp, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)
	assert.Equal(t, "https://user.example/", resp.Me)
}

func TestVerifyMalformedHeader(t *testing.T) {
	_, tokenSvc := newTestServices(true)

	for _, header := range []string{
		"",
		"Basic xyz",
		"Bearer",
		"Bearer ",
	} {
		_, err := tokenSvc.Verify(header)
		assertOAuthError(t, err, serrors.InvalidRequest)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCodeStore(100, time.Hour)
	signer := NewTokenSigner(testSecret)
	authSvc := NewAuthorizeService(store)
	// Negative TTL mints tokens that are already expired.
	tokenSvc := NewTokenService(store, signer, -time.Minute, true)

	code := issueTestCode(t, authSvc)
	resp, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	_, err = tokenSvc.Verify("Bearer " + resp.AccessToken)
	assertOAuthError(t, err, serrors.InvalidToken)
}

func TestVerifyTamperedSignature(t *testing.T) {
	ctx := context.Background()
	authSvc, tokenSvc := newTestServices(true)
	code := issueTestCode(t, authSvc)

	resp, err := tokenSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	parts := strings.Split(resp.AccessToken, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	_, err = tokenSvc.Verify("Bearer " + tampered)
	assertOAuthError(t, err, serrors.InvalidToken)
}

func TestVerifyTokenSignedWithOtherSecret(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCodeStore(100, time.Hour)
	authSvc := NewAuthorizeService(store)
	otherSvc := NewTokenService(store, NewTokenSigner("some-other-secret"), 10000*time.Second, true)
	_, tokenSvc := newTestServices(true)

	code := issueTestCode(t, authSvc)
	resp, err := otherSvc.Exchange(ctx, code, "app1", "https://app1/cb")
	require.NoError(t, err)

	_, err = tokenSvc.Verify("Bearer " + resp.AccessToken)
	assertOAuthError(t, err, serrors.InvalidToken)
}
