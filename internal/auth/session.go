// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the access level a token grants within one campaign.
type Role string

const (
	RoleDM     Role = "dm"
	RolePlayer Role = "player"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Claims are the JWT claims of a campaign access token. Subject holds the
// player id for player tokens and is empty for DM tokens.
type Claims struct {
	Campaign string `json:"campaign"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// PlayerID returns the player the token was issued to.
func (c *Claims) PlayerID() string {
	if c.Role != RolePlayer {
		return ""
	}
	return c.Subject
}

// Allows reports whether the token grants at least role on campaignID.
// A DM token satisfies any role.
func (c *Claims) Allows(campaignID string, role Role) error {
	if c.Campaign != campaignID {
		return fmt.Errorf("%w: token is for another campaign", ErrForbidden)
	}
	if role == RoleDM && c.Role != RoleDM {
		return fmt.Errorf("%w: dm role required", ErrForbidden)
	}
	return nil
}

// ParseExpireTime parses a TOKEN_EXPIRE_TIME value. "never", "0" and the
// empty string mean tokens do not expire.
func ParseExpireTime(s string) (time.Duration, error) {
	if s == "never" || s == "0" || s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// Keys signs and verifies campaign access tokens.
type Keys struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expire     time.Duration
	now        func() time.Time
}

// NewKeys generates a fresh ed25519 key pair. Tokens signed with it do not
// survive a restart.
func NewKeys(expire time.Duration) (*Keys, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Keys{privateKey: priv, publicKey: pub, expire: expire, now: time.Now}, nil
}

// LoadKeys reads a raw ed25519 key pair from disk.
func LoadKeys(privatePath, publicPath string, expire time.Duration) (*Keys, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key files are not raw ed25519 keys")
	}
	return &Keys{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		expire:     expire,
		now:        time.Now,
	}, nil
}

// Issue signs a token granting role on campaignID. playerID is required for
// player tokens and ignored for DM tokens.
func (k *Keys) Issue(campaignID string, role Role, playerID string) (string, error) {
	switch role {
	case RoleDM:
		playerID = ""
	case RolePlayer:
		if playerID == "" {
			return "", fmt.Errorf("player token needs a player id")
		}
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := k.now()
	claims := Claims{
		Campaign: campaignID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if k.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(k.expire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(k.privateKey)
}

// Authenticate verifies a token string and returns its claims.
func (k *Keys) Authenticate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.publicKey, nil
	}, jwt.WithTimeFunc(k.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Campaign == "" || (claims.Role != RoleDM && claims.Role != RolePlayer) {
		return nil, fmt.Errorf("%w: missing campaign or role", ErrInvalidToken)
	}
	return claims, nil
}
