package indieauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellardoor/indieauth/cache"
	"github.com/cellardoor/indieauth/domain"
)

func testAuthorizeRequest() AuthorizeRequest {
	return AuthorizeRequest{
		Me:           "https://user.example/",
		ClientID:     "app1",
		RedirectURI:  "https://app1/cb",
		State:        "xyzzy",
		ResponseType: domain.ResponseTypeID,
		Scope:        "profile",
	}
}

func TestIssueRequiresAuthenticatedSession(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCodeStore(10, time.Hour)
	svc := NewAuthorizeService(store)

	_, err := svc.Issue(ctx, "", testAuthorizeRequest())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, store.Count(ctx))
}

func TestIssueStoresGrant(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCodeStore(10, time.Hour)
	svc := NewAuthorizeService(store)

	issued, err := svc.Issue(ctx, "myuser", testAuthorizeRequest())
	require.NoError(t, err)
	require.NotEmpty(t, issued.Code)
	assert.Equal(t, "xyzzy", issued.State)

	rec, err := store.Get(ctx, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, "app1", rec.ClientID)
	assert.Equal(t, "https://app1/cb", rec.RedirectURI)
	assert.Equal(t, "https://user.example/", rec.Me)
	assert.Equal(t, "profile", rec.Scope)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestIssueEchoesStateByteForByte(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthorizeService(cache.NewMemoryCodeStore(10, time.Hour))

	req := testAuthorizeRequest()
	req.State = "a b&c=%2F?#"

	issued, err := svc.Issue(ctx, "myuser", req)
	require.NoError(t, err)
	assert.Equal(t, "a b&c=%2F?#", issued.State)
}

func TestIssueCodesAreUnique(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthorizeService(cache.NewMemoryCodeStore(2000, time.Hour))

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		issued, err := svc.Issue(ctx, "myuser", testAuthorizeRequest())
		require.NoError(t, err)

		_, dup := seen[issued.Code]
		require.False(t, dup, "duplicate code issued: %s", issued.Code)
		seen[issued.Code] = struct{}{}
	}
}
