package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- Error Definitions ---
var (
	ErrTokenExpired  = errors.New("token has expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingClaims = errors.New("token is missing the subject or email claim")
)

// Identity is a verified caller as asserted by the identity provider.
type Identity struct {
	Subject string
	Email   string
}

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// identityClaims is the token payload: the stable subject plus the account email.
type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier verifies HS256 tokens signed with secret. A non-empty issuer is enforced.
func NewJWTVerifier(secret, issuer string) (Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret cannot be empty")
	}
	return &jwtVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *jwtVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrMissingClaims
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email}, nil
}

// MintToken signs an identity token. It backs local development and tests,
// where no external identity provider is available.
func MintToken(secret, issuer string, identity Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret cannot be empty")
	}
	now := time.Now()
	claims := identityClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
