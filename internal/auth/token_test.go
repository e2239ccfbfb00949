package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "vending-test", time.Hour)
	token, err := tm.Generate(model.Account{ID: 42, Username: "bob", Role: model.RoleBuyer})
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Role: model.RoleBuyer}, p)
}

func TestParseRejects(t *testing.T) {
	tm := NewTokenManager("secret", "vending-test", time.Hour)
	account := model.Account{ID: 7, Username: "sally", Role: model.RoleSeller}

	other := NewTokenManager("other-secret", "vending-test", time.Hour)
	forged, err := other.Generate(account)
	require.NoError(t, err)

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	foreign, err := wrongIssuer.Generate(account)
	require.NoError(t, err)

	expiredTM := NewTokenManager("secret", "vending-test", time.Minute)
	expiredTM.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredTM.Generate(account)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: model.RoleBuyer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             model.RoleBuyer,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "vending-test", Subject: "7"},
	})
	noExpiry, err := noExp.SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": forged,
		"wrong issuer": foreign,
		"expired":      expired,
		"alg none":     unsigned,
		"no expiry":    noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Parse(token)
			assert.True(t, errors.Is(err, ledger.ErrUnauthenticated), "got %v", err)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestTokensCarryDistinctIDs(t *testing.T) {
	tm := NewTokenManager("secret", "vending-test", time.Hour)
	account := model.Account{ID: 42, Username: "bob", Role: model.RoleBuyer}

	first, err := tm.Generate(account)
	require.NoError(t, err)
	second, err := tm.Generate(account)
	require.NoError(t, err)

	a, err := tm.Parse(first)
	require.NoError(t, err)
	b, err := tm.Parse(second)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "bob", a.Username)
}

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := NewMemoryDenylist()
	d.now = func() time.Time { return now }

	require.NoError(t, d.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "stale", now.Add(-time.Second)))

	revoked, err := d.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = d.IsRevoked(ctx, "stale")
	assert.False(t, revoked)
	revoked, _ = d.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = d.IsRevoked(ctx, "live")
	assert.False(t, revoked, "entries lapse with the token")
}

func TestClaimsPrincipalRejectsBadSubject(t *testing.T) {
	_, err := (&Claims{Role: model.RoleBuyer, RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).Principal()
	assert.True(t, errors.Is(err, ledger.ErrUnauthenticated))

	_, err = (&Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}).Principal()
	assert.True(t, errors.Is(err, ledger.ErrUnauthenticated))
}
