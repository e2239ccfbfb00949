package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"vendingmachine/internal/ledger"
	"vendingmachine/internal/model"
)

// Principal is the authenticated caller handed to every core operation.
type Principal struct {
	UserID int64
	Role   model.Role
}

// Claims is the JWT payload.
type Claims struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed JWTs.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues an access token for the account.
func (t *TokenManager) Generate(account model.Account) (string, error) {
	now := t.now()
	claims := Claims{
		Username: account.Username,
		Role:     account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(account.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse checks the signature, issuer and expiry of tokenString and returns
// its claims. Any failure is reported as ledger.ErrUnauthenticated.
func (t *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, errors.Wrap(ledger.ErrUnauthenticated, err.Error())
	}
	return claims, nil
}

// Principal extracts the caller from verified claims.
func (c *Claims) Principal() (Principal, error) {
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Principal{}, errors.Wrap(ledger.ErrUnauthenticated, "invalid subject")
	}
	if !c.Role.Valid() {
		return Principal{}, errors.Wrap(ledger.ErrUnauthenticated, "invalid role")
	}
	return Principal{UserID: userID, Role: c.Role}, nil
}
