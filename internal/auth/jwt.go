// Package auth provides JWT issuing/validation, bcrypt password hashing,
// the Kakao OAuth provider, and the request middleware that turns a Bearer
// header into an Identity in the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "gamebible"

	// accessTokenTTL is the lifetime of a login token.
	accessTokenTTL = 5 * time.Hour

	// resetTokenTTL is the lifetime of a password-reset token. It only has
	// to survive the click on the emailed link.
	resetTokenTTL = 3 * time.Minute
)

// Identity is the decoded token payload attached to authenticated requests:
// the user's numeric index, the admin flag, and, for Kakao logins, the
// Kakao user id (zero otherwise).
type Identity struct {
	Idx     int64
	KakaoID int64
	IsAdmin bool
}

// TokenService signs and verifies the process-wide HS256 tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. Idx and IsAdmin ride alongside the registered
// claims; KakaoID is only present on tokens issued by the Kakao callback.
type claims struct {
	Idx     int64 `json:"idx"`
	IsAdmin bool  `json:"isAdmin"`
	KakaoID int64 `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccess issues a 5-hour login token for the given identity.
func (s *TokenService) GenerateAccess(id Identity) (string, error) {
	return s.generate(id, accessTokenTTL)
}

// GenerateReset issues a 3-minute token for the password-reset link. It
// carries only the user index; a reset token holder can change the
// password and nothing else that checks the admin flag.
func (s *TokenService) GenerateReset(userIdx int64) (string, error) {
	return s.generate(Identity{Idx: userIdx}, resetTokenTTL)
}

func (s *TokenService) generate(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Idx:     id.Idx,
		IsAdmin: id.IsAdmin,
		KakaoID: id.KakaoID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the Identity it
// encodes.
//
// The jwt library checks the signature, the expiry, and the issuer; passing
// WithValidMethods pins the algorithm to HS256 so a token claiming another
// algorithm is rejected outright.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return Identity{}, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Idx == 0 {
		return Identity{}, fmt.Errorf("auth: token has no user index")
	}

	return Identity{Idx: c.Idx, KakaoID: c.KakaoID, IsAdmin: c.IsAdmin}, nil
}
