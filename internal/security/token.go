package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// AccessClaims identify the user an access token was issued to.
type AccessClaims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user id.
type RefreshClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing secrets and lifetimes of both token classes.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 access and refresh tokens. The two
// token classes use distinct secrets, so one can never pass as the other.
type TokenIssuer struct {
	accessKey  []byte
	accessTTL  time.Duration
	refreshKey []byte
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{
		accessKey:  []byte(cfg.AccessSecret),
		accessTTL:  cfg.AccessTTL,
		refreshKey: []byte(cfg.RefreshSecret),
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssueAccessToken signs an access token for the given identity.
func (i *TokenIssuer) IssueAccessToken(claims AccessClaims) (string, error) {
	claims.RegisteredClaims = i.registered(claims.ID, i.accessTTL)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessKey)
}

// IssueRefreshToken signs a refresh token for userID.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	claims := RefreshClaims{
		ID:               userID,
		RegisteredClaims: i.registered(userID, i.refreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshKey)
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessKey); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(token, claims, i.refreshKey); err != nil {
		return nil, err
	}
	return claims, nil
}

// registered fills the standard claims. The random jti keeps two tokens
// issued within the same second distinct.
func (i *TokenIssuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return key, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
