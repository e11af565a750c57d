package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Owner is the authenticated user all book data is scoped to.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (c *Claims) Owner() Owner {
	return Owner{ID: c.Subject, Email: c.Email, Name: c.Name}
}

var ErrNoOwner = errors.New("owner is not set")

type ownerKey struct{}

func SetOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

func GetOwner(ctx context.Context) (Owner, error) {
	owner, ok := ctx.Value(ownerKey{}).(Owner)
	if !ok || owner.ID == "" {
		return Owner{}, ErrNoOwner
	}
	return owner, nil
}

// NewToken signs an HS256 token for owner. Token issuance belongs to the
// identity provider; this is here for local tooling and tests.
func NewToken(secret []byte, owner Owner, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: owner.Email,
		Name:  owner.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
