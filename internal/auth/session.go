package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

var (
	ErrTokenExpired = errors.New("session expired")
	ErrTokenInvalid = errors.New("session invalid")
)

const (
	issuer        = "chorely"
	minSecretLen  = 16
	keySize       = 32
	argonTime     = 3
	argonMem      = 64 * 1024
	argonPar      = 4
	keyDerivSalt  = "chorely/session-signing-key/v1"
	defaultMaxAge = 30 * 24 * time.Hour
)

// Claims is the typed session payload. UserID is mandatory; a token without
// one is rejected.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// DeriveKey stretches the configured secret into a signing key with Argon2id.
// The salt is fixed so tokens survive restarts.
func DeriveKey(secret string) []byte {
	return argon2.IDKey([]byte(secret), []byte(keyDerivSalt), argonTime, argonMem, argonPar, keySize)
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSecretLen)
	}
	if ttl <= 0 {
		ttl = defaultMaxAge
	}
	return &Issuer{key: DeriveKey(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID int64, email string) (string, *Claims, error) {
	if userID <= 0 {
		return "", nil, fmt.Errorf("issue session: invalid user id %d", userID)
	}
	now := i.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, claims, nil
}

// Parse verifies a token and returns its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}
	return claims, nil
}
